// Package repo provides postgres access for debates
package repo

import (
	"context"

	"uwhatgov/internal/modkit/repokit"
	"uwhatgov/internal/platform/store"
)

// Schema creates the debate tables
const Schema = `
create table if not exists debates (
	id text primary key,
	title text not null,
	sitting_date date
);
create table if not exists debate_segments (
	debate_id text not null references debates(id) on delete cascade,
	idx int not null,
	speaker text not null,
	body text not null,
	primary key (debate_id, idx)
);
`

// Repo defines the repository contract for debates
type Repo interface {
	Debate(ctx context.Context, id string) (RowDebate, error)
	Segments(ctx context.Context, id string) ([]RowSegment, error)
}

// RowDebate is a debate header row
type RowDebate struct {
	ID    string
	Title string
	Date  string
}

// RowSegment is one segment row
type RowSegment struct {
	Index   int    `db:"idx"`
	Speaker string `db:"speaker"`
	Body    string `db:"body"`
}

type (
	// PG implements the Repo interface using Postgres
	PG struct{}

	// queries holds the database query methods
	queries struct{ q repokit.Queryer }
)

// NewPG creates a new Postgres repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Postgres queryer to the Repo implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) Debate(ctx context.Context, id string) (RowDebate, error) {
	const sql = `
select id, title, coalesce(sitting_date::text, '')
from debates
where id = $1
`
	return store.One(ctx, r.q, func(row store.Row) (RowDebate, error) {
		var d RowDebate
		err := row.Scan(&d.ID, &d.Title, &d.Date)
		return d, err
	}, sql, id)
}

func (r *queries) Segments(ctx context.Context, id string) ([]RowSegment, error) {
	const sql = `
select idx, speaker, body
from debate_segments
where debate_id = $1
order by idx
`
	return store.StructsByName[RowSegment](ctx, r.q, sql, id)
}
