package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/askvara/vara-go/internal/apperr"
	"github.com/askvara/vara-go/internal/connectivity"
	"github.com/askvara/vara-go/internal/domain"
	"github.com/askvara/vara-go/internal/version"
)

const defaultTimeout = 15 * time.Second

// CredentialSource supplies and maintains the bearer credential. The session
// manager implements it; the pipeline never touches persistence directly.
type CredentialSource interface {
	// Token returns the current access token, or "" when logged out.
	Token(ctx context.Context) string
	// RefreshAccessToken exchanges the refresh token for a new access token,
	// returning "" when no refresh is possible.
	RefreshAccessToken(ctx context.Context) string
	// Expire performs the logout-and-clear step after an unrecoverable 401.
	Expire(ctx context.Context)
}

// Client dispatches API calls against a single base URL.
type Client struct {
	baseURL string
	http    *http.Client
	checker connectivity.Checker
	limiter *rate.Limiter
	clock   clockwork.Clock
	creds   CredentialSource

	mu       sync.Mutex
	queue    []*queuedCall
	draining bool
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.http = client }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.http.Timeout = timeout }
}

// WithRateLimit caps outbound requests at rps with a burst of twice that.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		burst := int(2 * rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

func New(baseURL string, checker connectivity.Checker, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		checker: checker,
		limiter: rate.NewLimiter(rate.Inf, 0),
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetCredentials wires the credential source after construction. The session
// manager needs the client for its own auth calls, so the two are connected
// in a second step.
func (c *Client) SetCredentials(creds CredentialSource) {
	c.creds = creds
}

type requestOptions struct {
	headers     http.Header
	noAuthRetry bool
	noQueue     bool
}

type RequestOption func(*requestOptions)

// WithHeader overrides or adds a request header.
func WithHeader(key, value string) RequestOption {
	return func(ro *requestOptions) {
		if ro.headers == nil {
			ro.headers = http.Header{}
		}
		ro.headers.Set(key, value)
	}
}

// WithoutAuthRetry disables the 401 refresh-and-retry branch. The session
// manager uses it for the refresh and logout calls themselves, which must
// never recurse into another refresh.
func WithoutAuthRetry() RequestOption {
	return func(ro *requestOptions) { ro.noAuthRetry = true }
}

// WithoutOfflineQueue makes connectivity failures surface immediately instead
// of deferring the call. Auth maintenance calls use it so a refresh can never
// park the original request behind the offline queue.
func WithoutOfflineQueue() RequestOption {
	return func(ro *requestOptions) { ro.noQueue = true }
}

// Do dispatches a request and normalizes its response. Server-side failures
// come back as an unsuccessful Envelope, not an error; the error return is
// reserved for session expiry, context cancellation, and transport failures
// that could not be deferred. When the network is down or the attempt fails
// for a connectivity reason, the call is queued and Do blocks until the
// queued execution settles with this request's own result.
func (c *Client) Do(ctx context.Context, method, endpoint string, body any, opts ...RequestOption) (Envelope, error) {
	ro := &requestOptions{}
	for _, opt := range opts {
		opt(ro)
	}
	return c.dispatch(ctx, method, endpoint, body, ro, true)
}

func (c *Client) Get(ctx context.Context, endpoint string, opts ...RequestOption) (Envelope, error) {
	return c.Do(ctx, http.MethodGet, endpoint, nil, opts...)
}

func (c *Client) Post(ctx context.Context, endpoint string, body any, opts ...RequestOption) (Envelope, error) {
	return c.Do(ctx, http.MethodPost, endpoint, body, opts...)
}

func (c *Client) Put(ctx context.Context, endpoint string, body any, opts ...RequestOption) (Envelope, error) {
	return c.Do(ctx, http.MethodPut, endpoint, body, opts...)
}

func (c *Client) Delete(ctx context.Context, endpoint string, opts ...RequestOption) (Envelope, error) {
	return c.Do(ctx, http.MethodDelete, endpoint, nil, opts...)
}

// dispatch runs one full request cycle. allowQueue distinguishes fresh calls
// from queued re-executions: a drained request's outcome is final and must
// never re-enter the queue.
func (c *Client) dispatch(ctx context.Context, method, endpoint string, body any, ro *requestOptions, allowQueue bool) (Envelope, error) {
	allowQueue = allowQueue && !ro.noQueue

	if !c.checker.Online() {
		if !allowQueue {
			return Envelope{}, fmt.Errorf("dispatch %s %s: %w", method, endpoint, domain.ErrOffline)
		}
		return c.enqueue(ctx, method, endpoint, body, ro)
	}

	envelope, err := c.attempt(ctx, method, endpoint, body, ro)
	if err != nil && allowQueue && apperr.IsConnectivity(err) {
		slog.Info("Request hit a connectivity failure, queueing for retry", "method", method, "endpoint", endpoint, "error", err)
		return c.enqueue(ctx, method, endpoint, body, ro)
	}
	return envelope, err
}

// attempt performs a single request plus, on 401, at most one
// refresh-and-retry.
func (c *Client) attempt(ctx context.Context, method, endpoint string, body any, ro *requestOptions) (Envelope, error) {
	token := ""
	if c.creds != nil {
		token = c.creds.Token(ctx)
	}

	resp, err := c.send(ctx, method, endpoint, body, token, ro)
	if err != nil {
		return Envelope{}, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !ro.noAuthRetry && c.creds != nil {
		drainBody(resp)

		newToken := c.creds.RefreshAccessToken(ctx)
		if newToken == "" {
			c.creds.Expire(ctx)
			return Envelope{}, fmt.Errorf("%s %s: %w", method, endpoint, domain.ErrSessionExpired)
		}

		resp, err = c.send(ctx, method, endpoint, body, newToken, ro)
		if err != nil {
			return Envelope{}, err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			// The refreshed token was rejected too; do not refresh again.
			drainBody(resp)
			c.creds.Expire(ctx)
			return Envelope{}, fmt.Errorf("%s %s: %w", method, endpoint, domain.ErrSessionExpired)
		}
	}

	return c.normalizeResponse(resp)
}

// send issues one HTTP attempt with fully rebuilt headers.
func (c *Client) send(ctx context.Context, method, endpoint string, body any, token string, ro *requestOptions) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, values := range ro.headers {
		req.Header.Del(key)
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) normalizeResponse(resp *http.Response) (Envelope, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Envelope{Success: false, Error: "Failed to parse response"}, nil
	}
	return Normalize(resp.StatusCode, body), nil
}

func drainBody(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
