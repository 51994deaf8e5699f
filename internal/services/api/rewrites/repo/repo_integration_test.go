//go:build integration_pg

package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"uwhatgov/internal/platform/store"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func openPG(t *testing.T, ctx context.Context) store.TxRunner {
	t.Helper()
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "uwhatgov",
				"POSTGRES_PASSWORD": "uwhatgov",
				"POSTGRES_DB":       "uwhatgov",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections"),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}

	st, err := store.Open(ctx, store.Config{
		AppName: "uwhatgov-rewrites-it",
		PG: store.PGConfig{
			Enabled:  true,
			URL:      fmt.Sprintf("postgres://uwhatgov:uwhatgov@%s:%s/uwhatgov?sslmode=disable", host, port.Port()),
			MaxConns: 2,
		},
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	if _, err := st.PG.Exec(ctx, Schema); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return st.PG
}

func TestUpsertKeepsSuccess(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()
	r := NewPG().Bind(openPG(t, ctx))

	full := `[{"speaker":"Chair","text":"Order."},{"speaker":"Jane","text":"I rise."}]`
	partial := `[{"speaker":"Chair","text":"Order."}]`

	steps := []struct {
		status  string
		records string
		session string
		want    string
		wantSes string
	}{
		{"failed", partial, "a", "failed", "a"},
		{"failed", partial, "b", "failed", "b"},
		{"success", full, "c", "success", "c"},
		{"failed", partial, "d", "success", "c"},
		{"success", full, "e", "success", "e"},
	}
	for i, s := range steps {
		got, err := r.Upsert(ctx, RowRewrite{DebateID: "d-1", Status: s.status, Records: []byte(s.records), SessionID: s.session})
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got.Status != s.want || got.SessionID != s.wantSes || got.UpdatedAt.IsZero() {
			t.Fatalf("step %d returned %+v", i, got)
		}
		read, err := r.Get(ctx, "d-1")
		if err != nil {
			t.Fatalf("step %d get: %v", i, err)
		}
		if read.Status != s.want || read.SessionID != s.wantSes {
			t.Fatalf("step %d stored %+v", i, read)
		}
	}
}
