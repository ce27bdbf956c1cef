// Package backend is the client for the remote /v1 REST API. It injects the
// bearer token on every request and transparently performs a single
// refresh-and-replay when a request comes back 401; concurrent requests
// queue behind one in-flight refresh.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// TokenSource supplies and receives the bearer credential pair. The session
// store implements it.
type TokenSource interface {
	AccessToken() string
	RefreshToken() string
	UpdateTokens(ctx context.Context, access, refresh string)
}

// APIError is a non-2xx response decoded into the backend's error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend: status %d", e.Status)
}

// Client talks to the remote backend.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *slog.Logger

	// refreshMu serialises token refreshes so a burst of 401s triggers
	// exactly one refresh round-trip.
	refreshMu sync.Mutex
}

// New builds a client for the given base URL (scheme://host, no /v1 suffix).
// tokens may be nil for unauthenticated use.
func New(baseURL string, tokens TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		logger:  logger,
	}
}

type requestOptions struct {
	idempotencyKey string
	query          url.Values
	bearerOverride string
	noAuth         bool
}

type RequestOption func(*requestOptions)

// WithIdempotencyKey attaches an X-Idempotency-Key header so the backend can
// deduplicate a double submission.
func WithIdempotencyKey(key string) RequestOption {
	return func(o *requestOptions) { o.idempotencyKey = key }
}

// WithQuery attaches query parameters.
func WithQuery(q url.Values) RequestOption {
	return func(o *requestOptions) { o.query = q }
}

func withBearer(token string) RequestOption {
	return func(o *requestOptions) { o.bearerOverride = token }
}

func withoutAuth() RequestOption {
	return func(o *requestOptions) { o.noAuth = true }
}

// do performs one API call. body and out may be nil; out receives the
// decoded JSON response. Exactly one refresh-and-replay is attempted on 401.
func (c *Client) do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	usedToken := ""
	if c.tokens != nil && !o.noAuth && o.bearerOverride == "" {
		usedToken = c.tokens.AccessToken()
	}

	status, err := c.roundTrip(ctx, method, path, body, out, &o, usedToken)
	if err != nil {
		return err
	}
	if status != http.StatusUnauthorized {
		return nil
	}

	// 401: refresh once and replay. Requests that raced here wait on the
	// mutex; whoever wins refreshes, the rest reuse the new token.
	if c.tokens == nil || o.noAuth || o.bearerOverride != "" || c.tokens.RefreshToken() == "" {
		return &APIError{Status: http.StatusUnauthorized, Message: "authentification requise"}
	}
	if err := c.refreshTokens(ctx, usedToken); err != nil {
		return err
	}

	replayToken := c.tokens.AccessToken()
	status, err = c.roundTrip(ctx, method, path, body, out, &o, replayToken)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		return &APIError{Status: http.StatusUnauthorized, Message: "session expirée, veuillez vous reconnecter"}
	}
	return nil
}

// roundTrip performs the HTTP exchange. A 401 is reported via the returned
// status with a nil error so the caller can decide to refresh; every other
// non-2xx becomes an *APIError.
func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any, o *requestOptions, bearer string) (int, error) {
	u := c.baseURL + path
	if o.query != nil {
		u += "?" + o.query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("backend: marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, fmt.Errorf("backend: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if o.bearerOverride != "" {
		bearer = o.bearerOverride
	}
	if bearer != "" && !o.noAuth {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if o.idempotencyKey != "" {
		req.Header.Set("X-Idempotency-Key", o.idempotencyKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, res.Body)
		return res.StatusCode, nil
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return res.StatusCode, decodeError(res)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil && err != io.EOF {
			return res.StatusCode, fmt.Errorf("backend: decode %s %s: %w", method, path, err)
		}
	}
	return res.StatusCode, nil
}

// refreshTokens swaps the refresh token for a new pair. usedToken is the
// access token the failed request carried: if the stored token already moved
// past it, another goroutine refreshed first and no round-trip is needed.
func (c *Client) refreshTokens(ctx context.Context, usedToken string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current := c.tokens.AccessToken(); current != "" && current != usedToken {
		return nil
	}

	var res struct {
		AccessToken  string `json:"accessToken"`
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/auth/refresh-token", nil, &res,
		withBearer(c.tokens.RefreshToken()))
	if err != nil {
		c.logger.WarnContext(ctx, "token refresh failed", "error", err)
		return fmt.Errorf("backend: refresh token: %w", err)
	}

	access := res.AccessToken
	if access == "" {
		access = res.Token
	}
	refresh := res.RefreshToken
	if refresh == "" {
		refresh = c.tokens.RefreshToken()
	}
	c.tokens.UpdateTokens(ctx, access, refresh)
	return nil
}

func decodeError(res *http.Response) error {
	apiErr := &APIError{Status: res.StatusCode}
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err == nil {
		apiErr.Code = envelope.Error
		apiErr.Message = envelope.Message
		if apiErr.Message == "" {
			apiErr.Message = envelope.Error
		}
	}
	return apiErr
}
