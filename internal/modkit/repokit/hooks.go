package repokit

import (
	"context"
	"strconv"
	"time"

	"uwhatgov/internal/platform/store"
)

// BeginHook runs first inside every transaction with the tx bound Queryer
type BeginHook func(ctx context.Context, q Queryer) error

// WithBeginHooks wraps inner so each Tx runs hooks before fn
// a nil inner stays nil
func WithBeginHooks(inner TxRunner, hooks ...BeginHook) TxRunner {
	if inner == nil || len(hooks) == 0 {
		return inner
	}
	return hookedTx{TxRunner: inner, hooks: hooks}
}

type hookedTx struct {
	TxRunner
	hooks []BeginHook
}

func (h hookedTx) Tx(ctx context.Context, fn func(q Queryer) error) error {
	return h.TxRunner.Tx(ctx, func(q Queryer) error {
		for _, hk := range h.hooks {
			if err := hk(ctx, q); err != nil {
				return err
			}
		}
		return fn(q)
	})
}

// setLocal applies a setting for the rest of the transaction
func setLocal(name, value string) BeginHook {
	return func(ctx context.Context, q Queryer) error {
		_, err := store.Scalar[string](ctx, q, "select set_config($1, $2, true)", name, value)
		return err
	}
}

// StatementTimeout caps every statement in the transaction at d
func StatementTimeout(d time.Duration) BeginHook {
	return setLocal("statement_timeout", strconv.FormatInt(d.Milliseconds(), 10))
}

// ApplicationName labels the transaction in pg_stat_activity
func ApplicationName(name string) BeginHook {
	return setLocal("application_name", name)
}
