// Package service runs rewrite streams: debate lookup, upstream generation and publishing
package service

import (
	"context"
	"time"

	"uwhatgov/internal/adapters/upstream"
	"uwhatgov/internal/core/envelope"
	perr "uwhatgov/internal/platform/errors"
	"uwhatgov/internal/platform/logger"
	debates "uwhatgov/internal/services/api/debates/domain"
	"uwhatgov/internal/services/api/stream/domain"

	"github.com/google/uuid"
)

// recordTimeout bounds the analytics write after a stream ends
const recordTimeout = 5 * time.Second

// Svc implements domain.ServicePort
type Svc struct {
	debates  debates.ServicePort
	producer upstream.Producer
	pub      *Publisher
	runs     domain.RunRecorder
	now      func() time.Time
	newID    func() string
}

// New builds the stream service, runs may be nil when analytics are off
func New(d debates.ServicePort, p upstream.Producer, pub *Publisher, runs domain.RunRecorder) *Svc {
	if d == nil || p == nil {
		panic("stream service requires a debate source and a producer")
	}
	if pub == nil {
		pub = NewPublisher()
	}
	return &Svc{
		debates:  d,
		producer: p,
		pub:      pub,
		runs:     runs,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Open loads the debate and prepares the upstream request
func (s *Svc) Open(ctx context.Context, req domain.Request) (domain.Stream, error) {
	if req.From < 0 {
		return nil, perr.WithField(perr.InvalidArgf("from must be zero or more"), "from")
	}
	d, err := s.debates.Get(ctx, req.DebateID)
	if err != nil {
		return nil, err
	}

	ureq := upstream.Request{DebateID: d.ID, Title: d.Title, From: req.From}
	ureq.Segments = make([]upstream.Segment, 0, len(d.Segments))
	for _, seg := range d.Segments {
		ureq.Segments = append(ureq.Segments, upstream.Segment{Index: seg.Index, Speaker: seg.Speaker, Text: seg.Text})
	}
	if len(ureq.Remaining()) == 0 && req.From == 0 {
		return nil, perr.InvalidArgf("debate %s has no segments", d.ID)
	}
	return &run{svc: s, id: s.newID(), req: ureq}, nil
}

type run struct {
	svc *Svc
	id  string
	req upstream.Request
}

func (r *run) ID() string { return r.id }

// Publish drives the producer through the publisher
// the producer context is cancelled once publishing stops so its goroutine always exits
func (r *run) Publish(ctx context.Context, sink domain.Sink) domain.Summary {
	ctx = logger.WithStream(ctx, r.id, r.req.DebateID)
	log := logger.C(ctx)
	log.Info().Str("provider", r.svc.producer.Name()).Int("from", r.req.From).Msg("stream started")

	if len(r.req.Remaining()) == 0 {
		// a resumed client already holds every segment and only missed the terminal envelope
		sum := domain.Summary{Status: domain.StatusComplete}
		if err := sink.Send(envelope.Complete{}); err != nil {
			sum.Status, sum.Err = domain.StatusCancelled, err
		}
		log.Info().Str("status", string(sum.Status)).Msg("resumed past the last segment")
		r.record(ctx, sum)
		return sum
	}

	upCtx, cancel := context.WithCancel(ctx)
	sum := r.svc.pub.Run(ctx, r.svc.producer.Stream(upCtx, r.req), sink)
	cancel()

	r.record(ctx, sum)
	return sum
}

func (r *run) record(ctx context.Context, sum domain.Summary) {
	if r.svc.runs == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	err := r.svc.runs.Record(rctx, domain.Run{
		RunID:      r.id,
		DebateID:   r.req.DebateID,
		Provider:   r.svc.producer.Name(),
		From:       r.req.From,
		Summary:    sum,
		FinishedAt: r.svc.now().UTC(),
	})
	if err != nil {
		logger.C(ctx).Warn().Err(err).Msg("record stream run")
	}
}
