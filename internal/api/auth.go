package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/lookforge/lookforge-go/internal/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// LoginResponse is the payload of a successful login or signup.
type LoginResponse struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"`
}

// Login exchanges credentials for a token pair. An unverified account comes
// back as *VerificationRequiredError; every other rejection is returned
// verbatim as *Error for the caller to display.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.DoPublic(ctx, http.MethodPost, "/v1/auth/login", loginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, verificationOr(err, email)
	}
	return &out, nil
}

// Signup creates an account. Depending on deployment policy the response
// either carries a token pair or the account lands unverified, in which
// case the caller gets *VerificationRequiredError and the resend flow.
func (c *Client) Signup(ctx context.Context, email, password, name string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.DoPublic(ctx, http.MethodPost, "/v1/auth/signup", signupRequest{Email: email, Password: password, Name: name}, &out)
	if err != nil {
		return nil, verificationOr(err, email)
	}
	return &out, nil
}

// ResendVerification asks the server to send a fresh verification email.
func (c *Client) ResendVerification(ctx context.Context, email string) error {
	return c.DoPublic(ctx, http.MethodPost, "/v1/auth/resend-verification", map[string]string{"email": email}, nil)
}

func verificationOr(err error, fallbackEmail string) error {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.NeedsVerification {
		email := apiErr.Email
		if email == "" {
			email = fallbackEmail
		}
		return &VerificationRequiredError{Email: email}
	}
	return err
}
