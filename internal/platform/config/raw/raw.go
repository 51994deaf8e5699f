// Package raw reads the environment during bootstrap without importing the logger
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Conf is a namespaced view over the environment
type Conf struct{ prefix string }

// New returns the root view
func New() Conf { return Conf{} }

// Prefix returns a child view with p appended to the prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// Get returns the trimmed value or def
func (c Conf) Get(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(c.prefix + key)); v != "" {
		return v
	}
	return def
}

// GetBool accepts yes besides what strconv.ParseBool does, anything else is def
func (c Conf) GetBool(key string, def bool) bool {
	v := strings.ToLower(c.Get(key, ""))
	if v == "yes" {
		return true
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// GetInt returns a non negative integer or def
func (c Conf) GetInt(key string, def int) int {
	if n, err := strconv.Atoi(c.Get(key, "")); err == nil && n >= 0 {
		return n
	}
	return def
}
