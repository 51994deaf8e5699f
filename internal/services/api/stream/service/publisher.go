package service

import (
	"context"
	"time"

	"uwhatgov/internal/adapters/upstream"
	"uwhatgov/internal/core/coalesce"
	"uwhatgov/internal/core/envelope"
	"uwhatgov/internal/core/record"
	perr "uwhatgov/internal/platform/errors"
	"uwhatgov/internal/platform/logger"
	"uwhatgov/internal/platform/telemetry"
	"uwhatgov/internal/services/api/stream/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultHeartbeat keeps idle proxies from closing the connection
const DefaultHeartbeat = 20 * time.Second

// Ticker starts a periodic tick and returns its channel and a stop func
type Ticker func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Publisher turns upstream fragments into envelopes
// each Run owns its own extractor and coalescer, so one Publisher can serve many streams
type Publisher struct {
	heartbeat time.Duration
	narrator  string
	tick      Ticker
	now       func() time.Time
}

// PublisherOption configures a Publisher
type PublisherOption func(*Publisher)

// WithHeartbeat sets the ping interval, zero or less keeps the default
func WithHeartbeat(d time.Duration) PublisherOption {
	return func(p *Publisher) {
		if d > 0 {
			p.heartbeat = d
		}
	}
}

// WithNarrator sets the speaker whose consecutive records are merged
func WithNarrator(name string) PublisherOption {
	return func(p *Publisher) { p.narrator = name }
}

// WithTicker replaces the heartbeat clock
func WithTicker(t Ticker) PublisherOption {
	return func(p *Publisher) {
		if t != nil {
			p.tick = t
		}
	}
}

// NewPublisher returns a publisher with the default heartbeat and narrator
func NewPublisher(opts ...PublisherOption) *Publisher {
	p := &Publisher{heartbeat: DefaultHeartbeat, narrator: record.Narrator, tick: realTicker, now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run publishes frags to sink until the upstream ends, ctx is done or the sink fails
// a run that reaches the end of the upstream writes exactly one terminal envelope, Complete only
// when at least one record was published. A failed sink means the client is gone and nothing more
// is written
func (p *Publisher) Run(ctx context.Context, frags <-chan upstream.Fragment, sink domain.Sink) domain.Summary {
	start := p.now()
	ctx, span := telemetry.Tracer("stream").Start(ctx, "stream.publish")
	defer span.End()

	log := logger.C(ctx)
	run := &publishRun{
		sink: sink,
		ext:  record.NewExtractor(record.WithLogger(log)),
		co:   coalesce.New(p.narrator),
	}

	ticks, stop := p.tick(p.heartbeat)
	sum := run.loop(ctx, frags, ticks)
	stop()

	st := run.ext.Stats()
	sum.Malformed, sum.Dropped = st.Malformed, st.Dropped
	sum.Duration = p.now().Sub(start)

	span.SetAttributes(
		attribute.String("stream.status", string(sum.Status)),
		attribute.Int("stream.records", sum.Records),
		attribute.Int("stream.pings", sum.Pings),
		attribute.Int("stream.malformed", sum.Malformed),
		attribute.Int("stream.dropped", sum.Dropped),
	)
	if sum.Err != nil {
		span.RecordError(sum.Err)
		span.SetStatus(codes.Error, sum.Err.Error())
	}

	ev := log.Info()
	if sum.Status != domain.StatusComplete {
		ev = log.Warn().Err(sum.Err)
	}
	ev.Str("status", string(sum.Status)).
		Int("records", sum.Records).
		Int("pings", sum.Pings).
		Int("malformed", sum.Malformed).
		Int("dropped", sum.Dropped).
		Dur("duration", sum.Duration).
		Msg("stream finished")
	return sum
}

type publishRun struct {
	sink domain.Sink
	ext  *record.Extractor
	co   *coalesce.Coalescer
	sum  domain.Summary
}

func (r *publishRun) loop(ctx context.Context, frags <-chan upstream.Fragment, ticks <-chan time.Time) domain.Summary {
	for {
		select {
		case <-ctx.Done():
			return r.cancelled(ctx.Err())

		case <-ticks:
			if err := r.sink.Send(envelope.Ping{}); err != nil {
				return r.cancelled(err)
			}
			r.sum.Pings++

		case f, ok := <-frags:
			if !ok {
				if err := ctx.Err(); err != nil {
					return r.cancelled(err)
				}
				return r.finish()
			}
			if f.Err != nil {
				return r.fail(f.Err)
			}
			if err := r.publish(r.ext.Feed(f.Text)); err != nil {
				return r.cancelled(err)
			}
		}
	}
}

// publish runs records through the coalescer and writes what it releases
func (r *publishRun) publish(recs []record.Record) error {
	for _, rec := range recs {
		for _, out := range r.co.Ingest(rec) {
			if err := r.chunk(out); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *publishRun) chunk(rec record.Record) error {
	if err := r.sink.Send(envelope.Chunk{Record: rec}); err != nil {
		return err
	}
	r.sum.Records++
	return nil
}

// releasePending writes a buffered narrator block, it is already a complete record
func (r *publishRun) releasePending() error {
	if rec, ok := r.co.Flush(); ok {
		return r.chunk(rec)
	}
	return nil
}

func (r *publishRun) finish() domain.Summary {
	if err := r.publish(r.ext.Flush()); err != nil {
		return r.cancelled(err)
	}
	if err := r.releasePending(); err != nil {
		return r.cancelled(err)
	}
	if r.sum.Records == 0 {
		return r.terminal(domain.StatusFailed, perr.EmptyResultf("the rewrite produced no records"))
	}
	return r.terminal(domain.StatusComplete, nil)
}

// fail ends the run on an upstream error
// records already complete are released, the partial parse buffer is discarded
func (r *publishRun) fail(cause error) domain.Summary {
	if err := r.releasePending(); err != nil {
		return r.cancelled(err)
	}
	r.ext.Reset()
	if !perr.IsCode(cause, perr.ErrorCodeUpstream) {
		cause = perr.Wrap(cause, perr.ErrorCodeUpstream, "upstream generation failed")
	}
	return r.terminal(domain.StatusFailed, cause)
}

func (r *publishRun) terminal(st domain.Status, cause error) domain.Summary {
	var e envelope.Envelope = envelope.Complete{}
	if cause != nil {
		e = envelope.Error{Message: cause.Error()}
	}
	if err := r.sink.Send(e); err != nil {
		return r.cancelled(err)
	}
	r.sum.Status, r.sum.Err = st, cause
	return r.sum
}

func (r *publishRun) cancelled(cause error) domain.Summary {
	r.ext.Reset()
	r.co.Reset()
	r.sum.Status, r.sum.Err = domain.StatusCancelled, cause
	return r.sum
}
