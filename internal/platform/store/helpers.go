package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	perr "uwhatgov/internal/platform/errors"
)

// Scalar reads the first column of the first row into T
func Scalar[T any](ctx context.Context, q RowQuerier, sql string, args ...any) (T, error) {
	var v T
	if err := q.QueryRow(ctx, sql, args...).Scan(&v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// One maps exactly one row with scan
// no rows is perr.ErrNotFound and more than one row is an error
func One[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) (T, error) {
	out, err := Many(ctx, q, scan, sql, args...)
	var zero T
	switch {
	case err != nil:
		return zero, err
	case len(out) == 0:
		return zero, perr.ErrNotFound
	case len(out) > 1:
		return zero, fmt.Errorf("expected 1 row, got %d", len(out))
	}
	return out[0], nil
}

// Many maps every row with scan
func Many[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// StructsByName maps every row into T, matching column names to `db` tags
// or to field names, case insensitive. Unmatched columns are skipped
func StructsByName[T any](ctx context.Context, q RowQuerier, sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rt := reflect.TypeFor[T]()
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("store: %s is not a struct", rt)
	}
	fields := fieldsByColumn(rt)
	cols := rows.Columns()

	var out []T
	for rows.Next() {
		var item T
		rv := reflect.ValueOf(&item).Elem()
		dest := make([]any, len(cols))
		for i, c := range cols {
			idx, ok := fields[strings.ToLower(c)]
			if !ok {
				dest[i] = new(any)
				continue
			}
			dest[i] = rv.Field(idx).Addr().Interface()
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// fieldsByColumn indexes exported fields by lowercased db tag or name
func fieldsByColumn(t reflect.Type) map[string]int {
	out := make(map[string]int, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Tag.Get("db")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		out[strings.ToLower(name)] = i
	}
	return out
}
