// Package session owns the authenticated/unauthenticated state of the
// client: login, logout, startup restoration of a persisted session, and
// the background timer that refreshes the access token shortly before it
// expires.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lookforge/lookforge-go/internal/api"
	"github.com/lookforge/lookforge-go/internal/credstore"
	"github.com/lookforge/lookforge-go/internal/logging"
	"github.com/lookforge/lookforge-go/internal/models"
	"github.com/lookforge/lookforge-go/internal/token"
)

// Timer parameters. Vars, not consts, so tests can shrink them.
var (
	// refreshLead is how long before exp the background refresh fires.
	refreshLead = 60 * time.Second

	// minRefreshDelay clamps the timer so a nearly-expired token does not
	// schedule a refresh in the past.
	minRefreshDelay = 5 * time.Second
)

var validate = validator.New()

type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Manager is the session lifecycle. Construct exactly one per process and
// inject it where needed; there is no package-level instance.
type Manager struct {
	api   *api.Client
	store credstore.Store
	log   logging.Logger

	mu          sync.Mutex
	state       State
	user        *models.User
	accessToken string
	initialized bool
	timer       *time.Timer

	now func() time.Time
}

// NewManager wires a Manager to the api client's refresh and teardown hooks.
func NewManager(client *api.Client, store credstore.Store, log logging.Logger) *Manager {
	if log == nil {
		log = logging.Nop()
	}
	m := &Manager{
		api:   client,
		store: store,
		log:   log.With("component", "session"),
		state: StateUninitialized,
		now:   time.Now,
	}
	client.OnTokenRefresh(m.handleTokenRefresh)
	client.OnSessionEnd(m.handleSessionEnd)
	return m
}

// Initialize restores a persisted session, refreshing the access token once
// if it is stale. It runs its body at most once per process; later calls
// return immediately. Whatever happens, the manager ends up initialized and
// in either Authenticated or Anonymous.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.initialized || m.state == StateInitializing {
		m.mu.Unlock()
		return nil
	}
	m.state = StateInitializing
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.initialized = true
		if m.state == StateInitializing {
			m.state = StateAnonymous
		}
		m.mu.Unlock()
	}()

	creds, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stored session: %w", err)
	}

	switch {
	case creds.Empty():
		// Nothing stored: anonymous.
		return nil

	case creds.AccessToken != "" && !token.IsExpired(creds.AccessToken):
		m.become(creds.AccessToken, creds.User)
		m.log.Info(ctx, "session restored")
		return nil

	case creds.RefreshToken != "":
		fresh, err := m.api.EnsureFreshToken(ctx)
		if err != nil {
			m.log.Warn(ctx, "startup refresh failed, discarding session", "error", err)
			if clearErr := m.store.Clear(ctx); clearErr != nil {
				m.log.Error(ctx, "failed to clear stale session", "error", clearErr)
			}
			return nil
		}
		m.become(fresh, creds.User)
		m.log.Info(ctx, "session restored after refresh")
		return nil

	default:
		// Expired access token and nothing to refresh with.
		if err := m.store.Clear(ctx); err != nil {
			m.log.Error(ctx, "failed to clear stale session", "error", err)
		}
		return nil
	}
}

// Login authenticates against the API and persists the credential pair.
// Unverified accounts surface as *api.VerificationRequiredError so the
// caller can run the resend-verification flow.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if err := validate.Struct(loginInput{Email: email, Password: password}); err != nil {
		return fmt.Errorf("invalid credentials: %w", err)
	}

	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return m.Adopt(ctx, resp)
}

// Signup registers an account; on deployments without mandatory email
// verification it also logs the new account in.
func (m *Manager) Signup(ctx context.Context, email, password, name string) error {
	if err := validate.Struct(loginInput{Email: email, Password: password}); err != nil {
		return fmt.Errorf("invalid credentials: %w", err)
	}

	resp, err := m.api.Signup(ctx, email, password, name)
	if err != nil {
		return err
	}
	return m.Adopt(ctx, resp)
}

// Adopt takes a credential pair obtained outside the manager (a login or
// signup response, or tokens handed over by another flow), persists it and
// switches to Authenticated.
func (m *Manager) Adopt(ctx context.Context, resp *api.LoginResponse) error {
	creds := credstore.Credentials{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         &resp.User,
	}
	if err := m.store.Save(ctx, creds); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	m.become(resp.AccessToken, &resp.User)
	m.log.Info(ctx, "logged in", "user_id", resp.User.ID)
	return nil
}

// Logout clears persisted credentials and resets the session. Idempotent:
// logging out twice leaves the same empty state and never fails on the
// second pass.
func (m *Manager) Logout(ctx context.Context) error {
	m.stopTimer()

	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	m.mu.Lock()
	m.state = StateAnonymous
	m.user = nil
	m.accessToken = ""
	m.mu.Unlock()

	m.log.Info(ctx, "logged out")
	return nil
}

// ForceLogout tears the session down locally and never fails: the store
// clear is best effort. For flows where the session is already known to be
// dead and Logout's error would have nowhere to go.
func (m *Manager) ForceLogout(ctx context.Context) {
	m.stopTimer()

	if err := m.store.Clear(ctx); err != nil {
		m.log.Error(ctx, "failed to clear session on forced logout", "error", err)
	}

	m.mu.Lock()
	m.state = StateAnonymous
	m.user = nil
	m.accessToken = ""
	m.mu.Unlock()

	m.log.Info(ctx, "forced logout")
}

// Close cancels the background refresh timer. Call on shutdown.
func (m *Manager) Close() {
	m.stopTimer()
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// User returns the cached user record, nil when anonymous.
func (m *Manager) User() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// IsAuthenticated reports whether a session is active. True implies an
// access token is held.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateAuthenticated
}

// IsInitialized reports whether Initialize has completed.
func (m *Manager) IsInitialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

func (m *Manager) become(accessToken string, user *models.User) {
	m.mu.Lock()
	m.state = StateAuthenticated
	m.accessToken = accessToken
	m.user = user
	m.mu.Unlock()

	m.armTimer(accessToken)
}

// handleTokenRefresh is called by the api client for every refreshed token;
// it swaps the cached token and rearms the timer without leaving
// Authenticated.
func (m *Manager) handleTokenRefresh(accessToken string) {
	m.mu.Lock()
	authed := m.state == StateAuthenticated
	if authed {
		m.accessToken = accessToken
	}
	m.mu.Unlock()

	if authed {
		m.armTimer(accessToken)
	}
}

// handleSessionEnd is called by the api client after a fatal auth failure.
// Persisted credentials are already gone; drop the in-memory state too.
func (m *Manager) handleSessionEnd() {
	m.stopTimer()

	m.mu.Lock()
	if m.state == StateAuthenticated {
		m.state = StateAnonymous
	}
	m.user = nil
	m.accessToken = ""
	m.mu.Unlock()

	m.log.Warn(context.Background(), "session ended by server", "event", "session_expired")
}

// armTimer schedules a background refresh refreshLead before the token's
// exp, clamped to minRefreshDelay. The previous timer, if any, is cancelled.
func (m *Manager) armTimer(accessToken string) {
	exp, ok := token.ExpirationTime(accessToken)
	if !ok {
		m.log.Warn(context.Background(), "token has no readable exp, background refresh disabled")
		return
	}
	delay := refreshDelay(exp, m.now())

	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(delay, m.backgroundRefresh)
	m.mu.Unlock()

	m.log.Debug(context.Background(), "background refresh scheduled", "in", delay.String())
}

func refreshDelay(exp, now time.Time) time.Duration {
	d := exp.Sub(now) - refreshLead
	if d < minRefreshDelay {
		return minRefreshDelay
	}
	return d
}

// backgroundRefresh fires from the timer. Failures are logged and swallowed:
// the reactive 401 path on the next request is the backstop. A successful
// refresh rearms the timer through the token-refresh hook.
func (m *Manager) backgroundRefresh() {
	ctx := context.Background()
	if _, err := m.api.EnsureFreshToken(ctx); err != nil {
		m.log.Warn(ctx, "background refresh failed",
			"event", "background_refresh_failed", "error", err)
	}
}

func (m *Manager) stopTimer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
