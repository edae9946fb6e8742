// Package credstore persists the credential pair (access token, refresh
// token) and the cached user record in a local key/value table, so a session
// survives process restarts.
package credstore

import (
	"context"

	"github.com/lookforge/lookforge-go/internal/models"
)

// Storage keys. Each credential lives under its own key so a token rotation
// can touch one row without rewriting the user record.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

// Credentials is the persisted session state.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

// Empty reports whether nothing usable is stored.
func (c *Credentials) Empty() bool {
	return c == nil || (c.AccessToken == "" && c.RefreshToken == "")
}

// Store reads and writes persisted credentials.
//
// Contract:
//   - Load never fails on absent keys; missing values come back zero.
//   - Save replaces the full pair plus user record atomically.
//   - SetTokens updates only the token rows (refresh rotation); an empty
//     refresh token leaves the stored one untouched.
//   - Clear wipes everything and is idempotent.
type Store interface {
	Load(ctx context.Context) (*Credentials, error)
	Save(ctx context.Context, c Credentials) error
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	SetTokens(ctx context.Context, access, refresh string) error
	Clear(ctx context.Context) error
}
