package httpkit

import (
	"net/http"
	"strconv"
	"strings"

	perrs "uwhatgov/internal/platform/errors"

	"github.com/go-chi/chi/v5"
)

// Param returns a trimmed path parameter or an invalid argument error when blank
func Param(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(chi.URLParam(r, name))
	if v == "" {
		return "", perrs.WithField(perrs.InvalidArgf("%s is required", name), name)
	}
	return v, nil
}

// QueryInt reads a non negative integer query parameter, def when absent
func QueryInt(r *http.Request, name string, def int) (int, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, perrs.WithField(perrs.InvalidArgf("%s must be a non negative integer", name), name)
	}
	return v, nil
}
