package main

import (
	"context"
	"time"

	"github.com/jrsteele09/retail-console/auth"
	"github.com/jrsteele09/retail-console/session"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const maxCodeAttempts = 5

func loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the console",
		Long: `Sign in with email and password. Accounts protected by email verification
are asked for the code that was sent to them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if email == "" {
				if email, err = prompt("Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptSecret("Password: "); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			if err := app.Auth.SubmitPassword(ctx, email, password); err != nil {
				return err
			}

			if app.Auth.State() == auth.AwaitingVerificationCode {
				info("A verification code was sent to %s", email)
			}
			for attempt := 1; app.Auth.State() == auth.AwaitingVerificationCode; attempt++ {
				if attempt > maxCodeAttempts {
					return errors.New("too many invalid codes, run login again")
				}
				code, err := prompt("Code: ")
				if err != nil {
					return err
				}
				if err := app.Auth.SubmitVerificationCode(ctx, code); err != nil {
					warn("%s", err)
				}
			}

			success("Signed in as %s", email)
			if app.Tenants.Snapshot().TenantID == "" {
				info("Select a store with: console tenant select <id>")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when empty)")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			app.Logout(cmd.Context())
			success("Signed out")
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session and store selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			info("API:     %s", app.API.BaseURL())
			info("Session: %s", app.Session.Status())
			if app.Session.Status() == session.Authenticated {
				printClaims(app.Session)
			}

			assignment := app.Tenants.Snapshot()
			switch {
			case assignment.TenantID == "":
				info("Store:   none selected")
			case assignment.Unassigned:
				info("Store:   %s (rejected by the server, select another)", assignment.TenantID)
			default:
				info("Store:   %s", assignment.TenantID)
			}
			return nil
		},
	}
}

func printClaims(s *session.Store) {
	claims, err := s.Claims()
	if err != nil {
		info("Token:   opaque")
		return
	}
	if claims.Email != "" {
		info("User:    %s", claims.Email)
	} else if claims.Subject != "" {
		info("User:    %s", claims.Subject)
	}
	if !claims.ExpiresAt.IsZero() {
		remaining := time.Until(claims.ExpiresAt).Round(time.Second)
		if remaining > 0 {
			info("Expires: %s (in %s)", claims.ExpiresAt.Local().Format(time.RFC1123), remaining)
		} else {
			info("Expires: %s (expired, refreshed on next request)", claims.ExpiresAt.Local().Format(time.RFC1123))
		}
	}
}

// withTimeout bounds a single command's network work
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Minute)
}
