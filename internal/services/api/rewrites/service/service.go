// Package service contains rewrite persistence workflows
package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"uwhatgov/internal/core/record"
	"uwhatgov/internal/modkit/repokit"
	perr "uwhatgov/internal/platform/errors"
	"uwhatgov/internal/platform/logger"
	"uwhatgov/internal/services/api/rewrites/domain"
	"uwhatgov/internal/services/api/rewrites/repo"
)

// Service defines the service contract for rewrites
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner
}

// New creates a rewrites service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo]) *Svc {
	if db == nil {
		panic("rewrites.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("rewrites.Service requires a non nil Repo binder")
	}
	return &Svc{binder: binder, db: db}
}

// Put stores the full record sequence for a debate, replacing any earlier one
// unless that would put a failed rewrite over a successful one; it returns what is stored
func (s *Svc) Put(ctx context.Context, debateID, sessionID string, in domain.PutInput) (domain.Rewrite, error) {
	debateID = strings.TrimSpace(debateID)
	if debateID == "" {
		return domain.Rewrite{}, perr.WithField(perr.InvalidArgf("debate id is required"), "id")
	}
	if in.Status != domain.StatusSuccess && in.Status != domain.StatusFailed {
		return domain.Rewrite{}, perr.WithField(perr.InvalidArgf("status must be success or failed"), "status")
	}
	if len(in.Records) == 0 {
		return domain.Rewrite{}, perr.WithField(perr.InvalidArgf("records must not be empty"), "records")
	}
	// the same cleaning the stream applies, so stored text matches what was shown
	for i := range in.Records {
		if err := in.Records[i].Validate(); err != nil {
			return domain.Rewrite{}, perr.WithField(perr.Wrapf(err, perr.ErrorCodeValidation, "record %d", i), "records")
		}
	}
	raw, err := json.Marshal(in.Records)
	if err != nil {
		return domain.Rewrite{}, perr.Wrap(err, perr.ErrorCodeJSON, "encode records")
	}

	var stored repo.RowRewrite
	err = repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		var e error
		stored, e = s.binder.Bind(q).Upsert(ctx, repo.RowRewrite{
			DebateID:  debateID,
			Status:    in.Status,
			Records:   raw,
			SessionID: sessionID,
		})
		return e
	})
	if err != nil {
		return domain.Rewrite{}, perr.FromPostgres(err, "upsert rewrite")
	}

	log := logger.C(ctx)
	if stored.Status != in.Status {
		log.Info().
			Str("debate_id", debateID).
			Str("stored", stored.Status).
			Int("records", len(in.Records)).
			Msg("failed rewrite not stored over a successful one")
	} else {
		log.Info().
			Str("debate_id", debateID).
			Str("status", in.Status).
			Int("records", len(in.Records)).
			Msg("rewrite stored")
	}
	return toRewrite(stored)
}

// Get returns the stored rewrite for a debate
func (s *Svc) Get(ctx context.Context, debateID string) (domain.Rewrite, error) {
	debateID = strings.TrimSpace(debateID)
	if debateID == "" {
		return domain.Rewrite{}, perr.WithField(perr.InvalidArgf("debate id is required"), "id")
	}
	row, err := s.binder.Bind(s.db).Get(ctx, debateID)
	if errors.Is(err, perr.ErrNotFound) {
		return domain.Rewrite{}, perr.NotFoundf("no rewrite stored for %s", debateID)
	}
	if err != nil {
		return domain.Rewrite{}, perr.FromPostgres(err, "read rewrite")
	}
	return toRewrite(row)
}

func toRewrite(row repo.RowRewrite) (domain.Rewrite, error) {
	var recs []record.Record
	if err := json.Unmarshal(row.Records, &recs); err != nil {
		return domain.Rewrite{}, perr.Wrap(err, perr.ErrorCodeJSON, "decode stored records")
	}
	return domain.Rewrite{
		DebateID:  row.DebateID,
		Status:    row.Status,
		Records:   recs,
		SessionID: row.SessionID,
		UpdatedAt: row.UpdatedAt.UTC().Format(time.RFC3339),
	}, nil
}
