package client

import (
	"context"
	"errors"
	"time"

	"uwhatgov/internal/core/pacer"

	"golang.org/x/sync/errgroup"
)

// UI is everything a session reports to a front end
// pacer callbacks and Notify arrive from different goroutines
type UI interface {
	pacer.UI
	Notify(ev Event)
}

// SessionOptions configures a Session
type SessionOptions struct {
	Consumer     Options
	DisplayDelay time.Duration
	// Persist enables the PUT of the finished rewrite
	Persist bool
}

// Session is one watch of one debate: a consumer feeding a pacer
type Session struct {
	consumer *Consumer
	pacer    *pacer.Pacer
	ui       UI
}

// NewSession wires a consumer and a pacer for o.Consumer.DebateID
func NewSession(o SessionOptions, ui UI) *Session {
	s := &Session{ui: ui}

	var popts []pacer.Option
	if o.DisplayDelay > 0 {
		popts = append(popts, pacer.WithDelay(o.DisplayDelay))
	}
	s.consumer = NewConsumer(o.Consumer, s.onEvent)
	if o.Persist {
		popts = append(popts, pacer.WithPersister(NewHTTPPersister(o.Consumer.BaseURL, s.consumer.opts.SessionID, o.Consumer.HTTPClient)))
	}
	s.pacer = pacer.New(o.Consumer.DebateID, ui, popts...)
	return s
}

// SessionID returns the id sent with every request of this session
func (s *Session) SessionID() string { return s.consumer.opts.SessionID }

func (s *Session) onEvent(ev Event) {
	if ev.Type == EventRecord {
		s.pacer.Enqueue(ev.Record)
		return
	}
	s.ui.Notify(ev)
}

// Run blocks until every received record has been displayed, or ctx is cancelled
// the returned error is the consumer's terminal failure, if any
func (s *Session) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.pacer.Run(gctx) })

	var streamErr error
	g.Go(func() error {
		err := s.consumer.Run(gctx)
		switch {
		case err == nil:
			s.pacer.Finish(pacer.StatusSuccess, nil)
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			streamErr = err
			s.pacer.Finish(pacer.StatusFailed, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return streamErr
}
