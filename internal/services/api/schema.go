package api

import (
	"context"

	perr "uwhatgov/internal/platform/errors"
	"uwhatgov/internal/platform/store"

	debatesrepo "uwhatgov/internal/services/api/debates/repo"
	rewritesrepo "uwhatgov/internal/services/api/rewrites/repo"
	streamrepo "uwhatgov/internal/services/api/stream/repo"
)

// Bootstrap creates the tables the modules use, every statement is idempotent
// clickhouse is skipped when the store has none
func Bootstrap(ctx context.Context, st *store.Store) error {
	if st == nil || st.PG == nil {
		return perr.InvalidArgf("bootstrap requires postgres")
	}
	for _, s := range []struct{ name, ddl string }{
		{"debates", debatesrepo.Schema},
		{"rewrites", rewritesrepo.Schema},
	} {
		if _, err := st.PG.Exec(ctx, s.ddl); err != nil {
			return perr.FromPostgresf(err, "bootstrap %s schema", s.name)
		}
	}
	if st.CH != nil {
		if err := st.CH.Exec(ctx, streamrepo.Schema); err != nil {
			return perr.Wrap(err, perr.ErrorCodeDB, "bootstrap rewrite_runs")
		}
	}
	return nil
}
