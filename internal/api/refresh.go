package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// refreshResponse tolerates both field names the backend has used for the
// new access token. A rotated refresh token is optional.
type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// EnsureFreshToken exchanges the stored refresh token for a new access
// token. Concurrent callers are coalesced: while an exchange is in flight,
// every caller waits on it and receives its outcome, and no second network
// call is made. The flight key is released before any caller observes the
// result, so the next call after settlement starts a fresh exchange.
//
// Failures are either fatal (see IsFatalRefresh) or transient; transient
// failures must never tear the session down.
func (c *Client) EnsureFreshToken(ctx context.Context) (string, error) {
	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		return c.refresh()
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) refresh() (string, error) {
	// Deliberately detached from any caller's context: the flight is shared,
	// and one caller's cancellation must not poison it for the rest. The
	// bounded timeout keeps a hung refresh from blocking waiters forever.
	ctx, cancel := context.WithTimeout(context.Background(), c.refreshTimeout)
	defer cancel()

	refreshTok, err := c.store.RefreshToken(ctx)
	if err != nil {
		return "", err
	}
	if refreshTok == "" {
		return "", ErrNoRefreshToken
	}

	payload, err := json.Marshal(refreshRequest{RefreshToken: refreshTok})
	if err != nil {
		return "", err
	}

	resp, err := c.roundTrip(ctx, http.MethodPost, "/v1/auth/refresh", payload, "application/json", "")
	if err != nil {
		// Network-level failure, including the timeout above: transient.
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read refresh response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
	case resp.StatusCode >= 400 && resp.StatusCode <= 499:
		// The refresh token itself was rejected.
		return "", fmt.Errorf("%w: status %d", ErrRefreshRejected, resp.StatusCode)
	default:
		// 5xx: the server is unwell, the token may still be fine.
		return "", fmt.Errorf("refresh endpoint returned status %d", resp.StatusCode)
	}

	var rr refreshResponse
	if err := json.Unmarshal(data, &rr); err != nil {
		return "", fmt.Errorf("failed to decode refresh response: %w", err)
	}
	access := rr.AccessToken
	if access == "" {
		access = rr.Token
	}
	if access == "" {
		return "", errors.New("refresh response carried no access token")
	}

	if err := c.store.SetTokens(ctx, access, rr.RefreshToken); err != nil {
		return "", err
	}

	c.mu.Lock()
	fn := c.onTokenRefresh
	c.mu.Unlock()
	if fn != nil {
		fn(access)
	}

	c.log.Debug(ctx, "access token refreshed", "rotated_refresh", rr.RefreshToken != "")
	return access, nil
}
