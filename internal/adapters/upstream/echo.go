package upstream

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	perr "uwhatgov/internal/platform/errors"
)

// Echo replays the source segments as records without calling a model
// it is the offline provider and streams its output in small uneven fragments
type Echo struct {
	delay time.Duration
	sizes []int
}

// NewEcho returns an echo producer that pauses delay between fragments
func NewEcho(delay time.Duration) *Echo {
	return &Echo{delay: delay, sizes: []int{7, 3, 19, 1, 11, 5, 23}}
}

// Name identifies the producer in logs and analytics
func (e *Echo) Name() string { return "echo" }

type echoRecord struct {
	Speaker       string `json:"speaker"`
	Text          string `json:"text"`
	OriginalIndex int    `json:"originalIndex"`
}

// Render returns the full output the echo producer streams for req
func (e *Echo) Render(req Request) (string, error) {
	segs := req.Remaining()
	recs := make([]echoRecord, 0, len(segs))
	for _, s := range segs {
		recs = append(recs, echoRecord{Speaker: s.Speaker, Text: strings.TrimSpace(s.Text), OriginalIndex: s.Index})
	}
	b, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeJSON, "render echo output")
	}
	return string(b), nil
}

// Stream implements Producer
func (e *Echo) Stream(ctx context.Context, req Request) <-chan Fragment {
	out := make(chan Fragment)
	go func() {
		defer close(out)
		body, err := e.Render(req)
		if err != nil {
			send(ctx, out, Fragment{Err: err})
			return
		}
		for i := 0; body != ""; i++ {
			n := e.sizes[i%len(e.sizes)]
			if n > len(body) {
				n = len(body)
			}
			if !send(ctx, out, Fragment{Text: body[:n]}) {
				return
			}
			body = body[n:]
			if e.delay > 0 {
				select {
				case <-time.After(e.delay):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Script streams fixed fragments and then an optional error, used by tests and demos
type Script struct {
	Fragments []string
	Err       error
}

// Name identifies the producer in logs and analytics
func (s Script) Name() string { return "script" }

// Stream implements Producer
func (s Script) Stream(ctx context.Context, _ Request) <-chan Fragment {
	out := make(chan Fragment)
	go func() {
		defer close(out)
		for _, f := range s.Fragments {
			if !send(ctx, out, Fragment{Text: f}) {
				return
			}
		}
		if s.Err != nil {
			send(ctx, out, Fragment{Err: s.Err})
		}
	}()
	return out
}
