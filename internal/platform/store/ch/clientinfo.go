package ch

import (
	"os"
	"runtime"
	"strings"

	"uwhatgov/internal/core/version"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo names this process in system.query_log, role is "api" or "watch"
// tag names the writer, e.g. "stream" for rewrite_runs
func BuildClientInfo(role, tag string) clickhouse.ClientInfo {
	host, _ := os.Hostname()
	info := version.Info()
	products := make([]struct{ Name, Version string }, 0, 5)
	for _, p := range [][2]string{
		{"uwhatgov", tag},
		{"role", role},
		{"build", info.Version},
		{"go", runtime.Version()},
		{"host", host},
	} {
		v := strings.TrimSpace(p[1])
		if v == "" {
			v = "unknown"
		}
		products = append(products, struct{ Name, Version string }{p[0], v})
	}
	return clickhouse.ClientInfo{Products: products}
}
