package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"uwhatgov/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxRows is a pgx.Rows over canned values, methods it does not override panic
type pgxRows struct {
	pgx.Rows

	cols   []string
	data   [][]any
	i      int
	err    error
	closed bool
}

func (r *pgxRows) Next() bool {
	if r.err != nil || r.i >= len(r.data) {
		return false
	}
	r.i++
	return true
}

func (r *pgxRows) Scan(dest ...any) error {
	row := r.data[r.i-1]
	if len(dest) != len(row) {
		return errors.New("dest len mismatch")
	}
	for i := range dest {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(row[i]))
	}
	return nil
}

func (r *pgxRows) Err() error { return r.err }
func (r *pgxRows) Close()     { r.closed = true }

func (r *pgxRows) FieldDescriptions() []pgconn.FieldDescription {
	out := make([]pgconn.FieldDescription, len(r.cols))
	for i, c := range r.cols {
		out[i] = pgconn.FieldDescription{Name: c}
	}
	return out
}

type pgxRow func(dest ...any) error

func (f pgxRow) Scan(dest ...any) error { return f(dest...) }

// pgxFake records statements and answers with canned results
type pgxFake struct {
	sqls []string
	tag  pgconn.CommandTag
	rows *pgxRows
	row  pgxRow
	err  error
}

func (f *pgxFake) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.sqls = append(f.sqls, sql)
	return f.tag, f.err
}

func (f *pgxFake) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	f.sqls = append(f.sqls, sql)
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *pgxFake) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	f.sqls = append(f.sqls, sql)
	return f.row
}

type recTracer struct{ events []pg.QueryEvent }

func (r *recTracer) OnQuery(_ context.Context, ev pg.QueryEvent) { r.events = append(r.events, ev) }

func TestTracedReportsEveryStatement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fake := &pgxFake{
		tag:  pgconn.NewCommandTag("INSERT 0 1"),
		rows: &pgxRows{cols: []string{"idx", "speaker"}, data: [][]any{{1, "Speaker A"}}},
		row: func(dest ...any) error {
			*(dest[0].(*string)) = "success"
			return nil
		},
	}
	tr := &recTracer{}
	q := traced{q: fake, tracer: tr, slowUS: 0}

	ct, err := q.Exec(ctx, "insert into rewrites values ($1)", "d-1")
	if err != nil || ct.String() != "INSERT 0 1" || ct.RowsAffected() != 1 {
		t.Fatalf("Exec = %v, %v", ct, err)
	}

	rs, err := q.Query(ctx, "select idx, speaker from debate_segments")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got := rs.Columns(); !reflect.DeepEqual(got, []string{"idx", "speaker"}) {
		t.Fatalf("Columns = %v", got)
	}
	var (
		idx     int
		speaker string
	)
	if !rs.Next() || rs.Scan(&idx, &speaker) != nil || idx != 1 || speaker != "Speaker A" {
		t.Fatalf("row = %d %q", idx, speaker)
	}
	rs.Close()
	if !fake.rows.closed {
		t.Fatal("rows not closed")
	}

	var status string
	if err := q.QueryRow(ctx, "select status from rewrites").Scan(&status); err != nil || status != "success" {
		t.Fatalf("QueryRow = %q, %v", status, err)
	}

	if len(tr.events) != 3 {
		t.Fatalf("events = %d, want 3", len(tr.events))
	}
	for i, ev := range tr.events {
		if ev.SQL != fake.sqls[i] || !ev.Slow {
			t.Fatalf("event %d = %+v", i, ev)
		}
	}
}

func TestTracedErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	boom := errors.New("boom")
	tr := &recTracer{}
	q := traced{
		q:      &pgxFake{err: boom, row: func(...any) error { return boom }},
		tracer: tr,
		slowUS: -1,
	}

	if _, err := q.Exec(ctx, "x"); !errors.Is(err, boom) {
		t.Fatalf("Exec err = %v", err)
	}
	if _, err := q.Query(ctx, "x"); !errors.Is(err, boom) {
		t.Fatalf("Query err = %v", err)
	}
	var n int
	if err := q.QueryRow(ctx, "x").Scan(&n); !errors.Is(err, boom) {
		t.Fatalf("Scan err = %v", err)
	}
	for _, ev := range tr.events {
		if !errors.Is(ev.Err, boom) || ev.Slow {
			t.Fatalf("event = %+v", ev)
		}
	}
}

func TestTracedWithoutTracer(t *testing.T) {
	t.Parallel()

	q := traced{q: &pgxFake{tag: pgconn.NewCommandTag("UPDATE 0")}}
	if _, err := q.Exec(context.Background(), "update rewrites set status = 'failed'"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
}

func TestRowsStopOnError(t *testing.T) {
	t.Parallel()

	rs := rows{r: &pgxRows{data: [][]any{{1}}, err: errors.New("conn reset")}}
	if rs.Next() {
		t.Fatal("Next should be false once rows errored")
	}
	if rs.Err() == nil {
		t.Fatal("Err should surface the row error")
	}
}
