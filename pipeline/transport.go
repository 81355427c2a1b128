package pipeline

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/retail-console/internal/errors"
	"github.com/jrsteele09/retail-console/internal/metrics"
	"github.com/jrsteele09/retail-console/tenants"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderTenantID      = "X-Tenant-Id"

	defaultMaxErrorBody = 64 << 10
)

// SessionSource is a synchronous read of the bearer token
type SessionSource interface {
	Token() string
}

// TenantSource is a synchronous read of the tenant assignment
type TenantSource interface {
	Snapshot() tenants.Assignment
	MarkUnassigned() error
}

// Refresher obtains a new token after a 401. See refresh.Coordinator.
type Refresher interface {
	Refresh(ctx context.Context, staleToken string) (string, error)
}

// Transport attaches the session and tenant headers to every request and recovers
// from token expiry. Each request is replayed at most once.
type Transport struct {
	base         http.RoundTripper
	session      SessionSource
	tenant       TenantSource
	refresher    Refresher
	authPaths    []string
	maxErrorBody int64
	metrics      *metrics.Metrics
}

var _ http.RoundTripper = (*Transport)(nil)

// Option configures a Transport
type Option func(*Transport)

// WithBase sets the transport requests are sent with (default http.DefaultTransport)
func WithBase(base http.RoundTripper) Option {
	return func(t *Transport) {
		t.base = base
	}
}

// WithAuthPaths replaces the paths whose 401 responses never trigger a refresh
func WithAuthPaths(paths ...string) Option {
	return func(t *Transport) {
		t.authPaths = paths
	}
}

// WithMaxErrorBody bounds how much of an error body is read for classification
func WithMaxErrorBody(n int64) Option {
	return func(t *Transport) {
		t.maxErrorBody = n
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Transport) {
		t.metrics = m
	}
}

func NewTransport(session SessionSource, tenant TenantSource, refresher Refresher, options ...Option) (*Transport, error) {
	if session == nil {
		return nil, errors.New("[NewTransport] session is required")
	}
	if tenant == nil {
		return nil, errors.New("[NewTransport] tenant is required")
	}
	if refresher == nil {
		return nil, errors.New("[NewTransport] refresher is required")
	}
	t := &Transport{
		base:         http.DefaultTransport,
		session:      session,
		tenant:       tenant,
		refresher:    refresher,
		authPaths:    []string{"/api/auth/login", "/api/auth/verify", "/api/auth/refresh"},
		maxErrorBody: defaultMaxErrorBody,
		metrics:      metrics.Discard(),
	}
	for _, opt := range options {
		opt(t)
	}
	return t, nil
}

type retriedKey struct{}

// markRetried tags the context of a replayed request
func markRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey{}, true)
}

// IsRetry reports whether req is the replay of a request that already received a 401
func IsRetry(req *http.Request) bool {
	retried, _ := req.Context().Value(retriedKey{}).(bool)
	return retried
}

// RoundTrip never mutates req; headers are attached to a clone.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	getBody, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	out, sentToken, err := t.prepare(req, getBody)
	if err != nil {
		return nil, err
	}
	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	return t.recover(req, getBody, resp, sentToken)
}

// prepare clones req and attaches the headers, returning the token that was sent.
// Absent values produce absent headers.
func (t *Transport) prepare(req *http.Request, getBody func() (io.ReadCloser, error)) (*http.Request, string, error) {
	out := req.Clone(req.Context())
	if getBody != nil {
		body, err := getBody()
		if err != nil {
			return nil, "", errors.Wrap(err, "[Transport.prepare] GetBody")
		}
		out.Body = body
		out.GetBody = getBody
	}

	token := t.session.Token()
	if token != "" {
		out.Header.Set(HeaderAuthorization, "Bearer "+token)
	} else {
		out.Header.Del(HeaderAuthorization)
	}
	if tenantID := t.tenant.Snapshot().TenantID; tenantID != "" {
		out.Header.Set(HeaderTenantID, tenantID)
	} else {
		out.Header.Del(HeaderTenantID)
	}
	return out, token, nil
}

func (t *Transport) recover(req *http.Request, getBody func() (io.ReadCloser, error), resp *http.Response, sentToken string) (*http.Response, error) {
	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusForbidden:
		body, err := t.peekBody(resp)
		if err != nil {
			return nil, err
		}
		eb := apperrors.DecodeErrorBody(body)
		if apperrors.IsMissingTenantHeader(resp.StatusCode, eb) || apperrors.IsTenantNotAllowed(resp.StatusCode, eb) {
			t.metrics.TenantUnassignments.Inc()
			if err := t.tenant.MarkUnassigned(); err != nil {
				log.Err(err).Msg("Failed to mark tenant unassigned")
			}
		}
		return resp, nil

	case http.StatusUnauthorized:
		if IsRetry(req) || t.isAuthPath(req) {
			return resp, nil
		}
		return t.refreshAndReplay(req, getBody, resp, sentToken)
	}
	return resp, nil
}

func (t *Transport) refreshAndReplay(req *http.Request, getBody func() (io.ReadCloser, error), resp *http.Response, sentToken string) (*http.Response, error) {
	// Keep the original body so it can be returned if the refresh fails
	if _, err := t.peekBody(resp); err != nil {
		return nil, err
	}

	if _, err := t.refresher.Refresh(req.Context(), sentToken); err != nil {
		log.Debug().Err(err).Str("path", req.URL.Path).Msg("Refresh failed, returning original response")
		return resp, nil
	}
	closeBody(resp)

	retry := req.WithContext(markRetried(req.Context()))
	out, _, err := t.prepare(retry, getBody)
	if err != nil {
		return nil, err
	}
	t.metrics.RequestRetries.Inc()
	retryResp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	return t.recover(retry, getBody, retryResp, "")
}

func (t *Transport) isAuthPath(req *http.Request) bool {
	for _, p := range t.authPaths {
		if p != "" && strings.HasSuffix(strings.TrimSuffix(req.URL.Path, "/"), strings.TrimSuffix(p, "/")) {
			return true
		}
	}
	return false
}

// peekBody reads up to maxErrorBody bytes and puts them back in front of the rest
// of the body so the caller can still read it in full.
func (t *Transport) peekBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxErrorBody))
	if err != nil {
		closeBody(resp)
		return nil, errors.Wrap(err, "[Transport.peekBody] read response body")
	}
	resp.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(body), resp.Body), resp.Body}
	return body, nil
}

// replayableBody returns a body factory for req, buffering the body once when the
// request does not provide GetBody. A nil factory means there is no body.
func replayableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		// Every send, including the first, reads a fresh copy
		_ = req.Body.Close()
		return req.GetBody, nil
	}
	body, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, errors.Wrap(err, "[replayableBody] read request body")
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}, nil
}

func closeBody(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
}
