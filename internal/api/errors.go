package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrSessionExpired is returned once the refresh token has been proven
	// unusable: either the refresh endpoint rejected it, or a retried
	// request still came back 401. The session has already been torn down
	// when a caller sees this; the only recovery is a fresh login.
	ErrSessionExpired = errors.New("session expired, please log in again")

	// ErrRefreshRejected marks a fatal refresh failure: the refresh
	// endpoint answered 4xx, i.e. the refresh token itself is invalid.
	ErrRefreshRejected = errors.New("refresh token rejected")

	// ErrNoRefreshToken means a refresh was needed but no refresh token is
	// stored. Treated the same as a rejection.
	ErrNoRefreshToken = errors.New("no refresh token stored")
)

// IsFatalRefresh reports whether err means the refresh token is unusable and
// the session cannot be recovered without re-login. Everything else coming
// out of EnsureFreshToken (network failure, 5xx, timeout) is transient and
// must not cost the user their session.
func IsFatalRefresh(err error) bool {
	return errors.Is(err, ErrRefreshRejected) || errors.Is(err, ErrNoRefreshToken)
}

// Error is a non-2xx response passed through to the caller. The transport
// only ever interprets 401; every other status lands here untouched.
type Error struct {
	// Status is the HTTP status code.
	Status int

	// Code is the machine-readable error slug from the body, if any.
	Code string

	// Message is the human-readable server message, if any.
	Message string

	// NeedsVerification flags the unverified-account login rejection.
	NeedsVerification bool

	// Email accompanies NeedsVerification so the resend flow knows the target.
	Email string
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
	case e.Code != "":
		return fmt.Sprintf("api: %s (status %d)", e.Code, e.Status)
	default:
		return fmt.Sprintf("api: status %d", e.Status)
	}
}

// VerificationRequiredError is the login rejection for accounts that exist
// but have not confirmed their email. It carries the address forward so the
// caller can offer a resend-verification flow instead of a generic failure.
type VerificationRequiredError struct {
	Email string
}

func (e *VerificationRequiredError) Error() string {
	return fmt.Sprintf("account %s requires email verification", e.Email)
}

// errorBody is the JSON shape of API error payloads.
type errorBody struct {
	Error             string `json:"error"`
	Message           string `json:"message"`
	NeedsVerification bool   `json:"needs_verification"`
	Email             string `json:"email"`
}

func newAPIError(status int, body []byte) *Error {
	e := &Error{Status: status}
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		e.Code = eb.Error
		e.Message = eb.Message
		e.NeedsVerification = eb.NeedsVerification
		e.Email = eb.Email
	}
	return e
}
