package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/photovault/photovault/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for account details and opens the first session.
// The password byte slice is securely wiped before returning.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter name", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	profile, err := a.client.Register(ctx, email, name, string(password))
	if err != nil {
		return err
	}

	a.profile = profile
	fmt.Printf("Welcome, %s!\n", profile.Name)
	return nil
}

// Login prompts for credentials and opens a session, ending any session the
// account had open elsewhere.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	profile, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return err
	}

	a.profile = profile
	fmt.Printf("Welcome back, %s!\n", profile.Name)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		return err
	}
	a.profile = nil
	fmt.Println("Logged out.")
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	profile, err := a.client.Profile(ctx)
	if err != nil {
		return err
	}
	a.profile = profile
	fmt.Printf("%s <%s>\n", profile.Name, profile.Email)
	return nil
}

// ForgotPassword requests a reset email. The confirmation is the same
// whether or not the address has an account.
func (a *App) ForgotPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.client.ForgotPassword(ctx, email); err != nil {
		return err
	}
	fmt.Println("If the email exists, a reset link has been sent.")
	return nil
}

// ResetPassword redeems a reset token from the email link for a new
// password. Every open session of the account is revoked on success.
func (a *App) ResetPassword(ctx context.Context) error {
	token, err := getSimpleText(a.reader, "Enter reset token", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout, "Enter new password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.client.ResetPassword(ctx, token, string(password)); err != nil {
		return err
	}
	fmt.Println("Password has been reset, please log in.")
	return nil
}
