// Package repo stores finished stream runs in clickhouse
package repo

import (
	"context"
	"errors"

	perr "uwhatgov/internal/platform/errors"
	"uwhatgov/internal/services/api/stream/domain"
)

// Table holds one row per publisher run
const Table = "rewrite_runs"

// Schema is applied at startup when clickhouse is enabled
const Schema = `CREATE TABLE IF NOT EXISTS rewrite_runs (
	run_id      UUID,
	debate_id   String,
	provider    LowCardinality(String),
	from_index  UInt32,
	status      LowCardinality(String),
	records     UInt32,
	pings       UInt32,
	malformed   UInt32,
	dropped     UInt32,
	error       String,
	duration_ms UInt64,
	finished_at DateTime64(3, 'UTC')
) ENGINE = MergeTree
ORDER BY (debate_id, finished_at)`

// Inserter is the part of store.Clickhouse the recorder needs
type Inserter interface {
	Insert(ctx context.Context, table string, rows [][]any) error
}

// Runs records runs through an Inserter
type Runs struct{ ch Inserter }

// NewRuns returns a recorder writing to ch
func NewRuns(ch Inserter) *Runs { return &Runs{ch: ch} }

// Record implements domain.RunRecorder
func (r *Runs) Record(ctx context.Context, run domain.Run) error {
	if run.RunID == "" || run.DebateID == "" {
		return perr.InvalidArgf("run id and debate id are required")
	}
	if err := r.ch.Insert(ctx, Table, [][]any{Row(run)}); err != nil {
		return perr.WrapIf(err, perr.ErrorCodeDB, "insert rewrite run")
	}
	return nil
}

// Row flattens a run into Schema column order
func Row(run domain.Run) []any {
	s := run.Summary
	msg := ""
	if s.Err != nil && !errors.Is(s.Err, context.Canceled) {
		msg = s.Err.Error()
	}
	return []any{
		run.RunID,
		run.DebateID,
		run.Provider,
		uint32(max(run.From, 0)),
		string(s.Status),
		uint32(s.Records),
		uint32(s.Pings),
		uint32(s.Malformed),
		uint32(s.Dropped),
		msg,
		uint64(s.Duration.Milliseconds()),
		run.FinishedAt,
	}
}
