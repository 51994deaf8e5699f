// Package domain holds the types shared by the stream publisher, its transport and run analytics
package domain

import (
	"context"
	"time"

	"uwhatgov/internal/core/envelope"
)

// Status is how a publisher run ended
type Status string

const (
	// StatusComplete means at least one record was published and the upstream finished
	StatusComplete Status = "complete"
	// StatusFailed means the run ended with an error envelope
	StatusFailed Status = "failed"
	// StatusCancelled means the client went away before a terminal envelope was written
	StatusCancelled Status = "cancelled"
)

// Sink receives envelopes in order, each Send is written and flushed before it returns
type Sink interface {
	Send(e envelope.Envelope) error
}

// SinkFunc adapts a function to a Sink
type SinkFunc func(envelope.Envelope) error

// Send implements Sink
func (f SinkFunc) Send(e envelope.Envelope) error { return f(e) }

// Summary describes one publisher run
type Summary struct {
	Status    Status
	Records   int
	Pings     int
	Malformed int
	Dropped   int
	Err       error
	Duration  time.Duration
}

// Run is one finished stream as stored by analytics
type Run struct {
	RunID      string
	DebateID   string
	Provider   string
	From       int
	Summary    Summary
	FinishedAt time.Time
}

// RunRecorder persists finished runs, implementations must tolerate a cancelled request context
type RunRecorder interface {
	Record(ctx context.Context, run Run) error
}

// Request asks for a rewrite stream of one debate
type Request struct {
	DebateID string
	From     int
}
