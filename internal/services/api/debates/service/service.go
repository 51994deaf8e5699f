// Package service contains debate lookups
package service

import (
	"context"
	"errors"
	"strings"

	"uwhatgov/internal/modkit/repokit"
	"uwhatgov/internal/platform/cache"
	perr "uwhatgov/internal/platform/errors"
	"uwhatgov/internal/services/api/debates/domain"
	"uwhatgov/internal/services/api/debates/repo"
)

// Service defines the service contract for debates
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	Repo  repo.Repo
	cache cache.Cache[string, domain.Debate]
}

// New creates a debates service reading through c
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], c cache.Cache[string, domain.Debate]) *Svc {
	if db == nil {
		panic("debates.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("debates.Service requires a non nil Repo binder")
	}
	if c == nil {
		panic("debates.Service requires a non nil cache")
	}
	return &Svc{Repo: binder.Bind(db), cache: c}
}

// Get returns a debate with its segments in speaking order
func (s *Svc) Get(ctx context.Context, id string) (domain.Debate, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Debate{}, perr.WithField(perr.InvalidArgf("debate id is required"), "id")
	}
	return cache.GetOrLoad(ctx, s.cache, id, s.load)
}

func (s *Svc) load(ctx context.Context, id string) (domain.Debate, error) {
	head, err := s.Repo.Debate(ctx, id)
	if errors.Is(err, perr.ErrNotFound) {
		return domain.Debate{}, perr.NotFoundf("debate %s not found", id)
	}
	if err != nil {
		return domain.Debate{}, perr.FromPostgres(err, "load debate")
	}
	rows, err := s.Repo.Segments(ctx, id)
	if err != nil {
		return domain.Debate{}, perr.FromPostgres(err, "load debate segments")
	}
	if len(rows) == 0 {
		return domain.Debate{}, perr.NotFoundf("debate %s has no segments", id)
	}

	d := domain.Debate{ID: head.ID, Title: head.Title, Date: head.Date, Segments: make([]domain.Segment, 0, len(rows))}
	for _, r := range rows {
		d.Segments = append(d.Segments, domain.Segment{Index: r.Index, Speaker: r.Speaker, Text: r.Body})
	}
	return d, nil
}
