// Package models defines client-side data models for the LookForge API.
package models

import "time"

// User is the account record returned by the auth endpoints and cached
// locally alongside the token pair.
type User struct {
	// ID is the server-assigned account identifier.
	ID string `json:"id"`

	// Email is the login identity; also embedded in bearer-token claims.
	Email string `json:"email"`

	// Name is the display name, may be empty for fresh accounts.
	Name string `json:"name,omitempty"`

	// Plan is the billing plan slug ("free", "studio", ...).
	Plan string `json:"plan,omitempty"`

	// CreatedAt is the account creation time in UTC.
	CreatedAt time.Time `json:"created_at,omitzero"`
}
