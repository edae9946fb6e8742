// Package api implements the authenticated HTTP transport for the LookForge
// API: bearer-token attachment, proactive refresh before expiry, a
// single-flight refresh coordinator, and the 401 refresh-and-retry protocol.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lookforge/lookforge-go/internal/credstore"
	"github.com/lookforge/lookforge-go/internal/logging"
	"github.com/lookforge/lookforge-go/internal/token"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultRefreshTimeout = 10 * time.Second
)

// Options configures a Client.
type Options struct {
	// BaseURL is the API host, e.g. "https://api.lookforge.app".
	BaseURL string

	// Store persists the credential pair.
	Store credstore.Store

	// Logger defaults to a no-op logger.
	Logger logging.Logger

	// HTTPClient overrides the underlying transport; when nil one is built
	// with RequestTimeout.
	HTTPClient *http.Client

	// RequestTimeout bounds every API exchange (default 30s).
	RequestTimeout time.Duration

	// RefreshTimeout bounds the refresh exchange so a hung refresh cannot
	// block waiters forever (default 10s). Hitting it is a transient
	// failure.
	RefreshTimeout time.Duration
}

// Client is the authenticated request client. All methods are safe for
// concurrent use.
type Client struct {
	baseURL        string
	http           *http.Client
	store          credstore.Store
	log            logging.Logger
	refreshTimeout time.Duration

	// refreshGroup coalesces concurrent refresh attempts into one network
	// call; every waiter observes the same outcome.
	refreshGroup singleflight.Group

	mu             sync.Mutex
	onTokenRefresh func(accessToken string)
	onSessionEnd   func()
}

// New constructs a Client. Store is required.
func New(opts Options) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		store:          opts.Store,
		log:            opts.Logger,
		http:           opts.HTTPClient,
		refreshTimeout: opts.RefreshTimeout,
	}
	if c.log == nil {
		c.log = logging.Nop()
	}
	if c.http == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if c.refreshTimeout <= 0 {
		c.refreshTimeout = defaultRefreshTimeout
	}
	return c
}

// OnTokenRefresh registers a callback invoked with every access token the
// refresh coordinator obtains. The session manager uses it to rearm its
// background timer.
func (c *Client) OnTokenRefresh(fn func(accessToken string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTokenRefresh = fn
}

// OnSessionEnd registers a callback invoked after a fatal auth failure has
// torn the persisted session down.
func (c *Client) OnSessionEnd(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSessionEnd = fn
}

// Do issues an authenticated JSON request and decodes a 2xx response body
// into out (ignored when out is nil). Non-2xx statuses other than 401 are
// returned as *Error for the caller to interpret.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	payload, err := marshalBody(body)
	if err != nil {
		return err
	}
	return c.send(ctx, method, path, payload, "application/json", out, true)
}

// DoPublic is Do without authentication, for endpoints like login.
func (c *Client) DoPublic(ctx context.Context, method, path string, body, out any) error {
	payload, err := marshalBody(body)
	if err != nil {
		return err
	}
	return c.send(ctx, method, path, payload, "application/json", out, false)
}

func marshalBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return payload, nil
}

// send runs the full request protocol. The payload is a byte slice so the
// 401 retry resends identical bytes; only the Authorization header differs.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, contentType string, out any, authed bool) error {
	var bearer string
	if authed {
		tok, err := c.store.AccessToken(ctx)
		if err != nil {
			return err
		}
		bearer = tok
		if tok == "" || token.IsExpired(tok) {
			// Best effort: on failure keep the stale token and let the
			// server decide. The reactive path below is the backstop.
			fresh, err := c.EnsureFreshToken(ctx)
			if err == nil {
				bearer = fresh
			} else {
				c.log.Debug(ctx, "proactive refresh failed, sending stored token",
					"method", method, "path", path, "error", err)
			}
		}
	}

	resp, err := c.roundTrip(ctx, method, path, payload, contentType, bearer)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusUnauthorized || !authed {
		return c.decode(resp, out)
	}
	drain(resp)

	fresh, err := c.EnsureFreshToken(ctx)
	if err != nil {
		if IsFatalRefresh(err) {
			return c.endSession(ctx)
		}
		// Transient: the session survives, the caller may retry.
		return err
	}

	resp, err = c.roundTrip(ctx, method, path, payload, contentType, fresh)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		return c.endSession(ctx)
	}
	return c.decode(resp, out)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte, contentType, bearer string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	return resp, nil
}

func (c *Client) decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// endSession clears persisted credentials, notifies the session layer, and
// returns the terminal error. Safe to hit more than once.
func (c *Client) endSession(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		c.log.Error(ctx, "failed to clear credentials on session teardown", "error", err)
	}
	c.log.Warn(ctx, "session torn down", "event", "session_expired")

	c.mu.Lock()
	fn := c.onSessionEnd
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
	return ErrSessionExpired
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
