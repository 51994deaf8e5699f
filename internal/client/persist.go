package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"uwhatgov/internal/core/pacer"
	"uwhatgov/internal/core/record"
	perr "uwhatgov/internal/platform/errors"
	"uwhatgov/internal/platform/logger"
)

// PersistBody is the PUT payload of the rewrites endpoint
type PersistBody struct {
	Records []record.Record `json:"records"`
	Status  pacer.Status    `json:"status"`
}

// HTTPPersister upserts a finished rewrite through the API
type HTTPPersister struct {
	base    string
	session string
	http    *http.Client
	retry   Retry
	after   func(time.Duration) <-chan time.Time
	log     *logger.Logger
}

// NewHTTPPersister returns a persister for baseURL, hc may be nil
func NewHTTPPersister(baseURL, sessionID string, hc *http.Client) *HTTPPersister {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPPersister{
		base:    strings.TrimRight(baseURL, "/"),
		session: sessionID,
		http:    hc,
		retry:   Retry{MaxAttempts: 3, BaseDelay: 250 * time.Millisecond},
		after:   time.After,
		log:     logger.Named("persister"),
	}
}

var _ pacer.Persister = (*HTTPPersister)(nil)

// Persist PUTs the full record sequence; the endpoint is idempotent so retries are safe
func (p *HTTPPersister) Persist(ctx context.Context, id string, records []record.Record, status pacer.Status) error {
	body, err := json.Marshal(PersistBody{Records: records, Status: status})
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "marshal rewrite")
	}
	u := p.base + "/api/v1/rewrites/" + url.PathEscape(id)

	r := p.retry
	for {
		err := p.put(ctx, u, body)
		if err == nil || !perr.IsCode(err, perr.ErrorCodeUnavailable) {
			return err
		}
		d, ok := r.Next()
		if !ok {
			return err
		}
		p.log.Warn().Err(err).Dur("retry_in", d).Int("attempt", r.Attempt).Msg("persist failed, retrying")
		select {
		case <-p.after(d):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *HTTPPersister) put(ctx context.Context, u string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(body))
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeInvalidArgument, "build persist request")
	}
	req.Header.Set("Content-Type", "application/json")
	if p.session != "" {
		req.Header.Set(SessionHeader, p.session)
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "persist request failed")
	}
	defer func() { _ = drainAndClose(resp.Body) }()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return perr.Newf(perr.ErrorCodeUnavailable, "persist status %d", resp.StatusCode)
	default:
		return perr.Newf(perr.ErrorCodeInvalidArgument, "persist rejected with status %d", resp.StatusCode)
	}
}
