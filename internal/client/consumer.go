// Package client consumes a rewrite stream over SSE, reconnecting with exponential backoff
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"uwhatgov/internal/core/envelope"
	"uwhatgov/internal/core/record"
	"uwhatgov/internal/core/version"
	perr "uwhatgov/internal/platform/errors"
	"uwhatgov/internal/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxAttempts = 5
	defaultBaseDelay   = 1 * time.Second
	defaultIdleTimeout = 90 * time.Second

	// SessionHeader carries the client session id on every request
	SessionHeader = "X-Session-ID"
)

// Options configures a Consumer
type Options struct {
	BaseURL  string
	DebateID string

	MaxAttempts int
	BaseDelay   time.Duration

	// IdleTimeout drops a connection that delivered nothing, pings included, for this long
	// zero uses the default, negative disables the watchdog
	IdleTimeout time.Duration

	// Resume reconnects with ?from=<last index + 1> instead of restarting the generation
	Resume bool

	SessionID  string
	UserAgent  string
	HTTPClient *http.Client
}

// Consumer is the client side state machine for one logical stream
// the network task and the state machine run on separate goroutines joined by channels
type Consumer struct {
	opts    Options
	http    *http.Client
	handler Handler
	log     *logger.Logger
	now     func() time.Time
	after   func(time.Duration) <-chan time.Time

	state State
	retry Retry

	// highWater is the largest original index delivered, the resume point is one past it
	highWater int
	delivered int

	// per connection: a full restart skips the first skip chunks, a resumed one drops
	// indices at or below fence until the first record past it
	seq   int
	skip  int
	fence int

	lastActivity time.Time
}

// NewConsumer returns a consumer in StateDisconnected
func NewConsumer(o Options, h Handler) *Consumer {
	if o.MaxAttempts < 0 {
		o.MaxAttempts = 0
	} else if o.MaxAttempts == 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = defaultBaseDelay
	}
	if o.IdleTimeout == 0 {
		o.IdleTimeout = defaultIdleTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = version.UserAgent("uwhatgov-watch")
	}
	if o.SessionID == "" {
		o.SessionID = uuid.NewString()
	}
	hc := o.HTTPClient
	if hc == nil {
		// no client timeout, the stream is long lived and bounded by ctx and the idle watchdog
		hc = &http.Client{}
	}
	if h == nil {
		h = func(Event) {}
	}
	return &Consumer{
		opts:      o,
		http:      hc,
		handler:   h,
		log:       logger.Named("consumer"),
		now:       time.Now,
		after:     time.After,
		retry:     Retry{MaxAttempts: o.MaxAttempts, BaseDelay: o.BaseDelay},
		highWater: -1,
		fence:     -1,
	}
}

// State returns the current state, only safe to call from the handler or after Run
func (c *Consumer) State() State { return c.state }

// LastActivity is the time of the last received envelope
func (c *Consumer) LastActivity() time.Time { return c.lastActivity }

// Delivered is the number of records handed to the handler
func (c *Consumer) Delivered() int { return c.delivered }

// message types passed from the network task to the state machine
type (
	msgOpen     struct{}
	msgEnvelope struct{ env envelope.Envelope }
	msgDrop     struct{ err error }
	msgRejected struct{ err error }
)

type dial struct {
	from int
}

// Run drives the stream to a terminal state
// it returns nil after a complete envelope, the failure cause after StateFailed, or ctx.Err()
func (c *Consumer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dials := make(chan dial)
	msgs := make(chan any)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.network(gctx, dials, msgs) })

	var result error
	g.Go(func() error {
		defer cancel()
		defer close(dials)
		result = c.machine(gctx, dials, msgs)
		return nil
	})

	if err := g.Wait(); err != nil && result == nil {
		result = err
	}
	return result
}

func (c *Consumer) transition(s State, ev Event) {
	c.state = s
	ev.Type = EventState
	ev.State = s
	c.handler(ev)
}

// machine owns all consumer state and is the only caller of the handler
func (c *Consumer) machine(ctx context.Context, dials chan<- dial, msgs <-chan any) error {
	for {
		c.transition(StateConnecting, Event{})
		from := c.resumeFrom()
		select {
		case dials <- dial{from: from}:
		case <-ctx.Done():
			return c.cancelled(ctx)
		}
		c.seq, c.skip, c.fence = 0, c.delivered, -1
		if from > 0 {
			c.skip, c.fence = 0, from-1
		}

		dropErr, err := c.receive(ctx, msgs)
		if err != nil || c.state.Terminal() {
			return err
		}

		delay, ok := c.retry.Next()
		if !ok {
			fail := perr.Wrapf(dropErr, perr.ErrorCodeRetryExhausted, "gave up after %d reconnect attempts", c.retry.MaxAttempts)
			c.transition(StateFailed, Event{Err: fail})
			return fail
		}
		c.log.Warn().Err(dropErr).Int("attempt", c.retry.Attempt).Dur("retry_in", delay).Str("debate_id", c.opts.DebateID).Msg("stream dropped, reconnecting")
		c.transition(StateReconnecting, Event{Attempt: c.retry.Attempt, Delay: delay, Err: dropErr})

		select {
		case <-c.after(delay):
		case <-ctx.Done():
			return c.cancelled(ctx)
		}
	}
}

// receive processes one connection until it drops or the stream ends
// a nil dropErr with a nil err means a terminal state was reached
func (c *Consumer) receive(ctx context.Context, msgs <-chan any) (dropErr error, err error) {
	for {
		var m any
		select {
		case m = <-msgs:
		case <-ctx.Done():
			return nil, c.cancelled(ctx)
		}

		switch v := m.(type) {
		case msgOpen:
			c.retry.Reset()
			c.transition(StateOpen, Event{})
		case msgEnvelope:
			c.retry.Reset()
			c.lastActivity = c.now()
			if done, err := c.handle(v.env); done {
				return nil, err
			}
		case msgDrop:
			return v.err, nil
		case msgRejected:
			c.transition(StateFailed, Event{Err: v.err})
			return nil, v.err
		}
	}
}

// handle applies one envelope, done is true when it was terminal
func (c *Consumer) handle(env envelope.Envelope) (bool, error) {
	switch e := env.(type) {
	case envelope.Ping:
		c.handler(Event{Type: EventPing})
	case envelope.Chunk:
		c.deliver(e.Record)
	case envelope.Complete:
		c.transition(StateComplete, Event{})
		return true, nil
	case envelope.Error:
		msg := e.Message
		if msg == "" {
			msg = "stream failed"
		}
		err := perr.Upstreamf("%s", msg)
		c.transition(StateFailed, Event{Err: err})
		return true, err
	}
	return false, nil
}

// deliver drops records already seen before a reconnect
// records within one connection are never deduplicated, repeated and out of order indices are normal
func (c *Consumer) deliver(r record.Record) {
	c.seq++
	if c.seq <= c.skip {
		return
	}
	i, ok := r.Index()
	if ok && c.fence >= 0 {
		if i <= c.fence {
			c.log.Debug().Int("index", i).Int("resumed_after", c.fence).Msg("duplicate record dropped")
			return
		}
		c.fence = -1
	}
	if ok && i > c.highWater {
		c.highWater = i
	}
	c.delivered++
	c.handler(Event{Type: EventRecord, Record: r})
}

func (c *Consumer) resumeFrom() int {
	if !c.opts.Resume || c.highWater < 0 {
		return 0
	}
	return c.highWater + 1
}

func (c *Consumer) cancelled(ctx context.Context) error {
	c.state = StateDisconnected
	return ctx.Err()
}

// network performs one request per dial and forwards what it reads
func (c *Consumer) network(ctx context.Context, dials <-chan dial, msgs chan<- any) error {
	send := func(m any) bool {
		select {
		case msgs <- m:
			return true
		case <-ctx.Done():
			return false
		}
	}
	for d := range dials {
		m := c.connect(ctx, d, send)
		if m == nil {
			continue
		}
		if !send(m) {
			return nil
		}
	}
	return nil
}

// connect runs a single connection and returns the message that ended it
func (c *Consumer) connect(ctx context.Context, d dial, send func(any) bool) any {
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, c.streamURL(d.from), nil)
	if err != nil {
		return msgRejected{perr.Wrap(err, perr.ErrorCodeInvalidArgument, "build stream request")}
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set(SessionHeader, c.opts.SessionID)

	resp, err := c.http.Do(req)
	if err != nil {
		return msgDrop{perr.Wrap(err, perr.ErrorCodeUnavailable, "stream connect failed")}
	}
	defer func() { _ = drainAndClose(resp.Body) }()

	if resp.StatusCode != http.StatusOK {
		return statusMessage(resp)
	}
	if !send(msgOpen{}) {
		return msgDrop{ctx.Err()}
	}

	var touch func()
	if c.opts.IdleTimeout > 0 {
		idle := time.AfterFunc(c.opts.IdleTimeout, cancel)
		defer idle.Stop()
		touch = func() { idle.Reset(c.opts.IdleTimeout) }
	} else {
		touch = func() {}
	}

	fr := newFrameReader(resp.Body)
	for {
		data, err := fr.Next()
		if err != nil {
			if cctx.Err() != nil && ctx.Err() == nil {
				return msgDrop{perr.Newf(perr.ErrorCodeUnavailable, "no activity for %s", c.opts.IdleTimeout)}
			}
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return msgDrop{perr.Wrap(err, perr.ErrorCodeUnavailable, "stream closed before a terminal envelope")}
		}
		touch()

		env, err := envelope.Decode(data)
		if err != nil {
			c.log.Debug().Err(err).Int("bytes", len(data)).Msg("skipping undecodable event")
			continue
		}
		if !send(msgEnvelope{env}) {
			return msgDrop{ctx.Err()}
		}
		if envelope.Terminal(env) {
			// the machine is done with this connection, wait for the next dial or shutdown
			return nil
		}
	}
}

func (c *Consumer) streamURL(from int) string {
	u := strings.TrimRight(c.opts.BaseURL, "/") + "/api/v1/debates/" + url.PathEscape(c.opts.DebateID) + "/rewrite/stream"
	if from > 0 {
		u += "?from=" + strconv.Itoa(from)
	}
	return u
}

// statusMessage classifies a non 200 response
// 408, 429 and 5xx are transient; other statuses end the stream
func statusMessage(resp *http.Response) any {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	se := &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	switch {
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= 500:
		return msgDrop{perr.Wrap(se, perr.ErrorCodeUnavailable, "stream endpoint unavailable")}
	case resp.StatusCode == http.StatusNotFound:
		return msgRejected{perr.Wrap(se, perr.ErrorCodeNotFound, "debate not found")}
	default:
		return msgRejected{perr.Wrap(se, perr.ErrorCodeInvalidArgument, "stream request rejected")}
	}
}

// StatusError wraps a non 200 response from the stream endpoint
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.Status)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Body)
}

// HTTPStatus returns the response status
func (e *StatusError) HTTPStatus() int { return e.Status }

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 4096))
	return rc.Close()
}
