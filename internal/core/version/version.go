// Package version reports build information stamped at link time
//
//	go build -ldflags "-X uwhatgov/internal/core/version.version=v0.3.0 \
//	  -X uwhatgov/internal/core/version.commit=abcd123 \
//	  -X uwhatgov/internal/core/version.date=2026-01-02"
package version

import "strings"

// BuildInfo holds version information about the service build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

var (
	service = "uwhatgov-api"
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Info returns the build information
func Info() BuildInfo {
	return BuildInfo{
		Service: service,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// UserAgent names a component and the build version, as sent by outbound clients
func UserAgent(component string) string {
	component = strings.TrimSpace(component)
	if component == "" {
		component = service
	}
	return component + "/" + version
}
