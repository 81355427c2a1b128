package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/jrsteele09/retail-console/auth"
	apperrors "github.com/jrsteele09/retail-console/internal/errors"
	"github.com/jrsteele09/retail-console/tenants"
	"github.com/pkg/errors"
)

// Console API routes
const (
	LoginPath   = "/api/auth/login"
	VerifyPath  = "/api/auth/verify"
	RefreshPath = "/api/auth/refresh"
	LogoutPath  = "/api/auth/logout"
	TenantsPath = "/api/tenants"
)

// AuthPaths are the routes whose 401 responses must never trigger a refresh
func AuthPaths() []string {
	return []string{LoginPath, VerifyPath, RefreshPath}
}

var _ auth.API = (*Client)(nil)

// Client is the console API client. Every call goes through the http.Client's
// transport, normally the request pipeline, and shares one cookie jar so the
// refresh cookie set at login is sent back on refresh and logout.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithTransport sets the round tripper used for every call
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithJar replaces the cookie jar, e.g. to share it with another client
func WithJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.httpClient.Jar = jar
	}
}

func New(baseURL string, options ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[apiclient.New] base URL is required")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "[apiclient.New] cookie jar")
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Jar: jar, Timeout: 30 * time.Second},
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return c.postLogin(ctx, LoginPath, req)
}

func (c *Client) Verify(ctx context.Context, req auth.VerifyRequest) (*auth.LoginResponse, error) {
	return c.postLogin(ctx, VerifyPath, req)
}

func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, LogoutPath, nil)
	if err != nil {
		return err
	}
	return drain(resp)
}

type refreshResponse struct {
	Token string `json:"token"`
}

// Refresh exchanges the refresh cookie for a new access token
func (c *Client) Refresh(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, RefreshPath, nil)
	if err != nil {
		return "", err
	}
	var body refreshResponse
	if err := decode(resp, &body); err != nil {
		return "", errors.Wrap(err, "[Client.Refresh]")
	}
	return body.Token, nil
}

// ListTenants returns the tenants the signed in user may select
func (c *Client) ListTenants(ctx context.Context) ([]*tenants.Tenant, error) {
	resp, err := c.do(ctx, http.MethodGet, TenantsPath, nil)
	if err != nil {
		return nil, err
	}
	var list []*tenants.Tenant
	if err := decode(resp, &list); err != nil {
		return nil, errors.Wrap(err, "[Client.ListTenants]")
	}
	return list, nil
}

// Get reads a raw resource. path is relative to the base URL and may carry a query.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.Get] reading %s", path)
	}
	return body, nil
}

func (c *Client) postLogin(ctx context.Context, path string, payload any) (*auth.LoginResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	statusCode := resp.StatusCode
	var body auth.LoginResponse
	if err := decode(resp, &body); err != nil {
		return nil, errors.Wrapf(err, "[Client] %s", path)
	}
	body.StatusCode = statusCode
	return &body, nil
}

// do sends the request and turns any non 2xx answer into a *errors.ResponseError.
// Network failures are returned as is.
func (c *Client) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "[Client] encoding request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrapf(err, "[Client] building %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, apperrors.NewResponseError(resp.StatusCode, data)
	}
	return resp, nil
}

func decode(resp *http.Response, v any) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(v)
}

func drain(resp *http.Response) error {
	defer resp.Body.Close()
	_, err := io.Copy(io.Discard, resp.Body)
	return err
}
