package cli

import (
	"context"
	"errors"
	"os"

	"github.com/lookforge/lookforge-go/internal/api"
)

// Login prompts for credentials and opens a session. An unverified account
// is routed to the resend-verification flow instead of a generic failure.
func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.session.Login(ctx, email, string(password)); err != nil {
		var verr *api.VerificationRequiredError
		if errors.As(err, &verr) {
			a.pendingEmail = verr.Email
			printlnFn("Your email is not verified yet. Type 'resend' to get a new verification link.")
			return err
		}
		printlnFn("Login failed:", err.Error())
		return err
	}

	printlnFn("Logged in as", a.status())
	return nil
}

// Register prompts for account details and signs the user up. Depending on
// deployment policy this either opens a session immediately or parks the
// account behind email verification.
func (a *App) Register(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", os.Stdout)
	if err != nil {
		return err
	}
	name, err := GetSimpleText(a.reader, "Display name (optional)", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.session.Signup(ctx, email, string(password), name); err != nil {
		var verr *api.VerificationRequiredError
		if errors.As(err, &verr) {
			a.pendingEmail = verr.Email
			printlnFn("Account created. Check your inbox for a verification link, or type 'resend'.")
			return nil
		}
		printlnFn("Registration failed:", err.Error())
		return err
	}

	printlnFn("Account created, you are logged in.")
	return nil
}

// ResendVerification asks the server to send a fresh verification email to
// the address remembered from the last rejected login, prompting when none
// is known.
func (a *App) ResendVerification(ctx context.Context) error {
	email := a.pendingEmail
	if email == "" {
		var err error
		email, err = GetSimpleText(a.reader, "Email", os.Stdout)
		if err != nil {
			return err
		}
	}

	if err := a.api.ResendVerification(ctx, email); err != nil {
		printlnFn("Could not resend verification:", err.Error())
		return err
	}
	printlnFn("Verification email sent to", email)
	return nil
}

// Logout ends the session and wipes stored credentials.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		printlnFn("Logout failed:", err.Error())
		return err
	}
	printlnFn("Logged out.")
	return nil
}

// WhoAmI prints the current account.
func (a *App) WhoAmI(ctx context.Context) error {
	u := a.session.User()
	if u == nil {
		printlnFn("Not logged in.")
		return nil
	}
	printlnFn("Logged in as", u.Email, "(plan:", u.Plan+")")
	return nil
}
