// Package upstream produces the raw text of a debate rewrite from a language model
//
// A Producer knows nothing about records: it yields arbitrary fragments of the model
// output, which is expected to be one JSON array of records streamed piecemeal
package upstream

import (
	"context"
	"strings"

	perr "uwhatgov/internal/platform/errors"
)

// Fragment is one piece of model output, or the error that ended the generation
// a Fragment with Err set is always the last value before the channel closes
type Fragment struct {
	Text string
	Err  error
}

// Segment is one contribution of the source debate
type Segment struct {
	Index   int
	Speaker string
	Text    string
}

// Request describes one generation
type Request struct {
	DebateID string
	Title    string
	Segments []Segment
	// From skips segments with a lower index, used when a client resumes
	From int
}

// Remaining returns the segments at or after From
func (r Request) Remaining() []Segment {
	if r.From <= 0 {
		return r.Segments
	}
	out := make([]Segment, 0, len(r.Segments))
	for _, s := range r.Segments {
		if s.Index >= r.From {
			out = append(out, s)
		}
	}
	return out
}

// Producer starts a generation and returns its fragments
// the channel is closed when the generation ends or ctx is cancelled
type Producer interface {
	Stream(ctx context.Context, req Request) <-chan Fragment
	Name() string
}

// Config selects and configures a producer
type Config struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// New returns the producer named by cfg.Provider
func New(ctx context.Context, cfg Config) (Producer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai":
		return NewOpenAI(cfg)
	case "gemini":
		return NewGemini(ctx, cfg)
	case "echo", "":
		return NewEcho(0), nil
	default:
		return nil, perr.InvalidArgf("unknown upstream provider %q", cfg.Provider)
	}
}

// send delivers f unless ctx is done
func send(ctx context.Context, out chan<- Fragment, f Fragment) bool {
	select {
	case out <- f:
		return true
	case <-ctx.Done():
		return false
	}
}
