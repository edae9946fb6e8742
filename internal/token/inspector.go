// Package token decodes bearer tokens client-side to read their expiry.
//
// Tokens are decoded, never verified: signature verification happens
// server-side on every request, and nothing in this package is a security
// boundary. Any malformation is treated as "expired" rather than reported
// as an error, so a broken token degrades into a refresh instead of a
// failure.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpirySkew is subtracted from a token's exp before comparing against the
// local clock, so the client never presents a token the server is likely to
// already consider stale.
const ExpirySkew = 30 * time.Second

// Claims are the payload fields the client cares about.
type Claims struct {
	// UserID is the account the token was minted for.
	UserID string

	// Email mirrors the account email.
	Email string

	// ExpiresAt is exp converted to a time.Time; zero when the claim
	// is absent.
	ExpiresAt time.Time
}

var parser = jwt.NewParser()

// Decode splits and base64url-decodes the token payload without verifying
// the signature. Returns nil for anything malformed; it never returns an
// error.
func Decode(raw string) *Claims {
	mc := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, mc); err != nil {
		return nil
	}

	c := &Claims{}
	if v, ok := mc["user_id"].(string); ok {
		c.UserID = v
	}
	if v, ok := mc["email"].(string); ok {
		c.Email = v
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c
}

// IsExpired reports whether the token should be treated as expired: it is
// malformed, carries no exp, or its exp minus ExpirySkew is not in the
// future.
func IsExpired(raw string) bool {
	return expiredAt(raw, time.Now())
}

func expiredAt(raw string, now time.Time) bool {
	c := Decode(raw)
	if c == nil || c.ExpiresAt.IsZero() {
		return true
	}
	return !now.Before(c.ExpiresAt.Add(-ExpirySkew))
}

// ExpirationTime returns the token's exp. ok is false when the token is
// malformed or carries no exp claim.
func ExpirationTime(raw string) (t time.Time, ok bool) {
	c := Decode(raw)
	if c == nil || c.ExpiresAt.IsZero() {
		return time.Time{}, false
	}
	return c.ExpiresAt, true
}
