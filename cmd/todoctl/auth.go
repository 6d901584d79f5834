package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brizzai/todoctl/internal/config"
	"github.com/brizzai/todoctl/internal/requester"
	"github.com/brizzai/todoctl/internal/session"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email, err = promptIfEmpty(email, "Email", false); err != nil {
				return err
			}
			if password, err = promptIfEmpty(password, "Password", true); err != nil {
				return err
			}

			return runWithSession(cmd, func(ctx context.Context, c *session.Coordinator) error {
				if err := c.Login(ctx, email, password); err != nil {
					return err
				}
				pterm.Success.Printfln("Logged in as %s", c.DisplayName())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when omitted)")
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var reg requester.Registration

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if reg.Email, err = promptIfEmpty(reg.Email, "Email", false); err != nil {
				return err
			}
			if reg.Password, err = promptIfEmpty(reg.Password, "Password", true); err != nil {
				return err
			}
			if reg.Password2, err = promptIfEmpty(reg.Password2, "Repeat password", true); err != nil {
				return err
			}

			return runWithSession(cmd, func(ctx context.Context, c *session.Coordinator) error {
				if err := c.Register(ctx, reg); err != nil {
					return err
				}
				pterm.Success.Printfln("Welcome, %s", c.DisplayName())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&reg.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&reg.Password, "password", "p", "", "Account password (prompted when omitted)")
	cmd.Flags().StringVar(&reg.Password2, "password2", "", "Password confirmation (prompted when omitted)")
	cmd.Flags().StringVar(&reg.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&reg.LastName, "last-name", "", "Last name")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the current session on this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithSession(cmd, func(ctx context.Context, c *session.Coordinator) error {
				if c.State() == session.Anonymous {
					pterm.Info.Println("Not logged in")
					return nil
				}
				name := c.DisplayName()
				c.Logout()
				pterm.Success.Printfln("Logged out %s", name)
				return nil
			})
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithSession(cmd, func(ctx context.Context, c *session.Coordinator) error {
				if all {
					return renderUsers(c)
				}

				user, ok := c.CurrentUser()
				if !ok || c.State() == session.Anonymous {
					pterm.Info.Println("Not logged in")
					return nil
				}

				pterm.Info.Printfln("%s <%s>", c.DisplayName(), user.Email)
				token, err := c.TokenSource(ctx).Token()
				if err != nil {
					return err
				}
				if token.Expiry.IsZero() {
					pterm.Println("Access token has no expiry")
				} else {
					pterm.Printfln("Access token valid until %s", token.Expiry.Local().Format(time.RFC1123))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "List every remembered user")
	return cmd
}

func renderUsers(c *session.Coordinator) error {
	current, _ := c.CurrentUser()
	data := pterm.TableData{{"", "EMAIL", "NAME", "SESSION"}}
	for _, u := range c.Users() {
		marker := ""
		if u.Email == current.Email {
			marker = "*"
		}
		state := "logged out"
		if u.Authenticated() {
			state = "stored"
		}
		data = append(data, []string{marker, u.Email, u.DisplayName(), state})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the current access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithSession(cmd, func(ctx context.Context, c *session.Coordinator) error {
				if !c.RefreshToken(ctx) {
					return fmt.Errorf("token refresh failed: %w", session.ErrNotAuthenticated)
				}
				pterm.Success.Println("Access token refreshed")
				return nil
			})
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			pterm.Info.Println(config.GetVersionInfo())
		},
	}
}

// promptIfEmpty asks for value interactively when it was not given as a flag
func promptIfEmpty(value, label string, secret bool) (string, error) {
	if value != "" {
		return value, nil
	}
	input := pterm.DefaultInteractiveTextInput
	if secret {
		input = *input.WithMask("*")
	}
	result, err := input.Show(label)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}
	return result, nil
}
