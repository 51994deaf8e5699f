package errors

import (
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDBErrorCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		sqlstate string
		want     ErrorCode
	}{
		{"23505", ErrorCodeDuplicateKey},
		{"23503", ErrorCodeInvalidArgument},
		{"23514", ErrorCodeValidation},
		{"22P02", ErrorCodeInvalidArgument},
		{"57P03", ErrorCodeUnavailable},
		{"40001", ErrorCodeDB},
		{"XX000", ErrorCodeDB},
	}
	for _, c := range cases {
		err := fmt.Errorf("exec: %w", &pgconn.PgError{Code: c.sqlstate})
		got, ok := DBErrorCode(err)
		if !ok || got != c.want {
			t.Fatalf("DBErrorCode(%s) = %v %v, want %v", c.sqlstate, got, ok, c.want)
		}
	}

	if _, ok := DBErrorCode(stderrs.New("plain")); ok {
		t.Fatal("plain errors are not postgres errors")
	}
}

func TestFromPostgres(t *testing.T) {
	t.Parallel()

	if FromPostgres(nil, "x") != nil || FromPostgresf(nil, "x %d", 1) != nil {
		t.Fatal("nil must stay nil")
	}

	check := &pgconn.PgError{Code: "23514", ColumnName: "status", Message: "violates check"}
	err := FromPostgresf(check, "upsert rewrite %s", "d-1")
	e, ok := As(err)
	if !ok || e.Code() != ErrorCodeValidation || e.Field() != "status" || e.Message() != "upsert rewrite d-1" {
		t.Fatalf("FromPostgresf = %+v", e)
	}
	if !stderrs.Is(err, check) {
		t.Fatal("pg error not reachable")
	}

	err = FromPostgres(stderrs.New("conn closed"), "bootstrap")
	if !IsCode(err, ErrorCodeDB) {
		t.Fatalf("non pg error code = %v", CodeOf(err))
	}
	if e, _ := As(err); e.Field() != "" {
		t.Fatal("no field without a column")
	}
}
