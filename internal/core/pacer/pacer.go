// Package pacer releases records to a reader at a steady cadence
package pacer

import (
	"context"
	"sync"
	"time"

	"uwhatgov/internal/core/record"
	"uwhatgov/internal/platform/logger"
)

// DefaultDelay is the pause between a composing signal and the record it announces
const DefaultDelay = 600 * time.Millisecond

// Status is the outcome tag persisted with a finished stream
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// UI receives paced output, calls are made from the Run goroutine only
type UI interface {
	Composing(speaker string)
	Show(r record.Record)
	Failed(err error)
	Done()
}

// Persister stores the full record sequence of a finished stream
// implementations must be idempotent for the same id and content
type Persister interface {
	Persist(ctx context.Context, id string, records []record.Record, status Status) error
}

// Pacer is a FIFO between the network and the UI
// Enqueue and Finish may be called from any goroutine; Run must be called once
type Pacer struct {
	id    string
	delay time.Duration
	ui    UI
	store Persister
	after func(time.Duration) <-chan time.Time
	log   *logger.Logger

	mu       sync.Mutex
	queue    []record.Record
	finished bool
	status   Status
	cause    error
	wake     chan struct{}

	shown     []record.Record
	persisted bool
}

// Option configures a Pacer
type Option func(*Pacer)

// WithDelay overrides DefaultDelay
func WithDelay(d time.Duration) Option {
	return func(p *Pacer) {
		if d >= 0 {
			p.delay = d
		}
	}
}

// WithPersister sets the persistence sink, without one nothing is persisted
func WithPersister(s Persister) Option { return func(p *Pacer) { p.store = s } }

// WithClock replaces time.After, used by tests
func WithClock(after func(time.Duration) <-chan time.Time) Option {
	return func(p *Pacer) {
		if after != nil {
			p.after = after
		}
	}
}

// New returns a pacer for one logical stream identified by id
func New(id string, ui UI, opts ...Option) *Pacer {
	p := &Pacer{
		id:    id,
		delay: DefaultDelay,
		ui:    ui,
		after: time.After,
		wake:  make(chan struct{}, 1),
		log:   logger.Named("pacer"),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Enqueue appends a record to the pending queue
// records enqueued after Finish are ignored
func (p *Pacer) Enqueue(r record.Record) {
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	p.queue = append(p.queue, r)
	p.mu.Unlock()
	p.signal()
}

// Finish marks the upstream as done; the first call wins
// cause is reported to the UI when status is StatusFailed
func (p *Pacer) Finish(status Status, cause error) {
	p.mu.Lock()
	if !p.finished {
		p.finished, p.status, p.cause = true, status, cause
	}
	p.mu.Unlock()
	p.signal()
}

func (p *Pacer) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// next pops the queue head; done is true once the queue is empty and Finish was called
func (p *Pacer) next() (r record.Record, ok bool, done bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) > 0 {
		r = p.queue[0]
		p.queue[0] = record.Record{}
		p.queue = p.queue[1:]
		return r, true, false
	}
	return record.Record{}, false, p.finished
}

// Run drains the queue until the stream finishes or ctx is cancelled
// a cancelled run discards the queue and persists nothing
func (p *Pacer) Run(ctx context.Context) error {
	for {
		r, ok, done := p.next()
		switch {
		case ok:
			p.ui.Composing(r.Speaker)
			select {
			case <-ctx.Done():
				p.discard()
				return ctx.Err()
			case <-p.after(p.delay):
			}
			p.ui.Show(r)
			p.shown = append(p.shown, r)
		case done:
			p.complete(ctx)
			return nil
		default:
			select {
			case <-ctx.Done():
				p.discard()
				return ctx.Err()
			case <-p.wake:
			}
		}
	}
}

func (p *Pacer) complete(ctx context.Context) {
	p.mu.Lock()
	status, cause := p.status, p.cause
	p.mu.Unlock()

	p.persist(ctx, status)
	if status == StatusFailed {
		p.ui.Failed(cause)
		return
	}
	p.ui.Done()
}

// persist runs at most once per pacer
func (p *Pacer) persist(ctx context.Context, status Status) {
	if p.persisted || p.store == nil || len(p.shown) == 0 {
		return
	}
	p.persisted = true
	if err := p.store.Persist(ctx, p.id, p.shown, status); err != nil {
		p.log.Error().Err(err).Str("stream_id", p.id).Int("records", len(p.shown)).Msg("persist failed")
		return
	}
	p.log.Debug().Str("stream_id", p.id).Int("records", len(p.shown)).Str("status", string(status)).Msg("persisted")
}

func (p *Pacer) discard() {
	p.mu.Lock()
	n := len(p.queue)
	p.queue = nil
	p.finished = true
	p.mu.Unlock()
	if n > 0 {
		p.log.Debug().Str("stream_id", p.id).Int("records", n).Msg("discarded pending records")
	}
}

// Shown returns a copy of the records released so far
// it is only meaningful after Run has returned
func (p *Pacer) Shown() []record.Record {
	return append([]record.Record(nil), p.shown...)
}
