// Package repo provides postgres access for rewrites
package repo

import (
	"context"
	"time"

	"uwhatgov/internal/modkit/repokit"
	"uwhatgov/internal/platform/store"
)

// Schema creates the rewrites table
const Schema = `
create table if not exists rewrites (
	debate_id text primary key,
	status text not null check (status in ('success', 'failed')),
	records jsonb not null,
	session_id text not null default '',
	updated_at timestamptz not null default now()
);
`

// Repo defines the repository contract for rewrites
type Repo interface {
	// Upsert returns the row as stored, a failed write never replaces a stored success
	Upsert(ctx context.Context, row RowRewrite) (RowRewrite, error)
	Get(ctx context.Context, debateID string) (RowRewrite, error)
}

// RowRewrite is one stored rewrite, Records is raw JSON
type RowRewrite struct {
	DebateID  string
	Status    string
	Records   []byte
	SessionID string
	UpdatedAt time.Time
}

type (
	// PG implements the Repo interface using Postgres
	PG struct{}

	queries struct{ q repokit.Queryer }
)

// NewPG creates a new Postgres repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Postgres queryer to the Repo implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func scanRow(row store.Row) (RowRewrite, error) {
	var rr RowRewrite
	var records string
	err := row.Scan(&rr.DebateID, &rr.Status, &records, &rr.SessionID, &rr.UpdatedAt)
	rr.Records = []byte(records)
	return rr, err
}

func (r *queries) Upsert(ctx context.Context, row RowRewrite) (RowRewrite, error) {
	// when the guard skips the update the outer select returns the untouched row
	const sql = `
with up as (
	insert into rewrites as rw (debate_id, status, records, session_id, updated_at)
	values ($1, $2, $3::jsonb, $4, now())
	on conflict (debate_id) do update
	set status = excluded.status,
		records = excluded.records,
		session_id = excluded.session_id,
		updated_at = now()
	where rw.status = 'failed' or excluded.status = 'success'
	returning debate_id, status, records::text, session_id, updated_at
)
select debate_id, status, records, session_id, updated_at from up
union all
select debate_id, status, records::text, session_id, updated_at
from rewrites
where debate_id = $1 and not exists (select 1 from up)
`
	return store.One(ctx, r.q, scanRow, sql, row.DebateID, row.Status, string(row.Records), row.SessionID)
}

func (r *queries) Get(ctx context.Context, debateID string) (RowRewrite, error) {
	const sql = `
select debate_id, status, records::text, session_id, updated_at
from rewrites
where debate_id = $1
`
	return store.One(ctx, r.q, scanRow, sql, debateID)
}
