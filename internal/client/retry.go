package client

import "time"

// maxBackoff caps a single reconnect delay
const maxBackoff = 60 * time.Second

// Retry is the reconnect budget of one consumer
// Attempt counts reconnects since the last healthy connection
type Retry struct {
	Attempt     int
	MaxAttempts int
	BaseDelay   time.Duration
}

// Next returns the delay before the next reconnect and consumes one attempt
// ok is false once MaxAttempts reconnects have been spent
func (r *Retry) Next() (time.Duration, bool) {
	if r.Attempt >= r.MaxAttempts {
		return 0, false
	}
	d := backoff(r.BaseDelay, r.Attempt)
	r.Attempt++
	return d, true
}

// Reset restores the full budget, called on open and on every received envelope
func (r *Retry) Reset() { r.Attempt = 0 }

// backoff is base * 2^attempt with a cap
func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt > 30 {
		return maxBackoff
	}
	d := base << uint(attempt)
	if d > maxBackoff || d < base {
		return maxBackoff
	}
	return d
}
