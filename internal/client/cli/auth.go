package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/projecthub/internal/common"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// credentials asks for an email, offering the last one used, and a password.
func (a *App) credentials(ctx context.Context) (string, []byte, error) {
	last, err := a.emails.LastEmail(ctx)
	if err != nil {
		a.logger.Warn(ctx, "reading last email failed", "error", err)
	}

	prompt := "Enter email"
	if last != "" {
		prompt = fmt.Sprintf("Enter email [%s]", last)
	}
	email, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return "", nil, err
	}
	if email == "" {
		email = last
	}
	if email == "" {
		return "", nil, fmt.Errorf("%w: email is required", common.ErrorInvalidArgument)
	}

	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return strings.TrimSpace(email), password, nil
}

func (a *App) signedIn(ctx context.Context, email string) {
	if err := a.emails.SaveLastEmail(ctx, email); err != nil {
		a.logger.Warn(ctx, "saving last email failed", "error", err)
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", email, a.session.Role())
}

// Register creates an account and signs in with it.
func (a *App) Register(ctx context.Context, _ []string) error {
	email, password, err := a.credentials(ctx)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	rctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := a.session.SignUp(rctx, email, string(password)); err != nil {
		return err
	}
	a.signedIn(ctx, email)
	return nil
}

func (a *App) Login(ctx context.Context, _ []string) error {
	email, password, err := a.credentials(ctx)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	rctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := a.session.SignIn(rctx, email, string(password)); err != nil {
		return err
	}
	a.signedIn(ctx, email)
	return nil
}

// Logout clears the local session even when the server cannot be reached.
func (a *App) Logout(ctx context.Context, _ []string) error {
	rctx, cancel := a.withTimeout(ctx)
	defer cancel()
	err := a.session.SignOut(rctx)
	fmt.Fprintln(a.out, "Signed out")
	return err
}

func (a *App) WhoAmI(_ context.Context, _ []string) error {
	snap := a.session.Snapshot()
	if snap.Principal == nil {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}
	fmt.Fprintf(a.out, "%s (%s), id %s\n", snap.Principal.Email, snap.Role, snap.Principal.ID)
	for _, c := range snap.Permissions.Granted() {
		fmt.Fprintf(a.out, "  %s\n", c)
	}
	return nil
}
