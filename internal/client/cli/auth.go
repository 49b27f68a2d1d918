package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/palamut62/my-notes/internal/client/storage"
	"github.com/palamut62/my-notes/internal/models"
)

func (a *App) credentials(email string) (models.Credentials, error) {
	var err error
	if email == "" {
		if email, err = a.Prompt.Line("Email: "); err != nil {
			return models.Credentials{}, err
		}
	}
	password, err := a.Prompt.Secret("Password: ")
	if err != nil {
		return models.Credentials{}, err
	}
	return models.Credentials{Email: email, Password: password}, nil
}

func (a *App) registerCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.anonymous()
			if err != nil {
				return err
			}
			creds, err := a.credentials(email)
			if err != nil {
				return err
			}
			u, err := c.Register(cmd.Context(), creds)
			if err != nil {
				return a.check(err)
			}
			a.ok("Account %s created. Run %s to sign in.", u.Email, color.YellowString("my-notes login"))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (a *App) loginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.anonymous()
			if err != nil {
				return err
			}
			creds, err := a.credentials(email)
			if err != nil {
				return err
			}
			res, err := c.Login(cmd.Context(), creds)
			if err != nil {
				return a.check(err)
			}
			if err := a.Store.Save(&storage.Session{
				Server:    c.BaseURL,
				Token:     res.Token,
				Email:     res.User.Email,
				ExpiresAt: res.ExpiresAt,
			}); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}
			a.ok("Signed in as %s", res.User.Email)

			if res.OneTimeCode != "" {
				fmt.Fprintln(a.Out, "Your one-time code is "+color.New(color.FgYellow, color.Bold).Sprint(res.OneTimeCode))
				fmt.Fprintln(a.Out, color.CyanString("→")+" Write it down. It is needed to reveal passwords and will not be shown again.")
				if err := c.MarkCodeShown(cmd.Context()); err != nil {
					return a.check(err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			// the local token goes even if the server session is gone
			_ = c.Logout(cmd.Context())
			if err := a.Store.Clear(); err != nil {
				return err
			}
			a.ok("Signed out")
			return nil
		},
	}
}

func (a *App) profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the account and one-time code status",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			st, err := c.Profile(cmd.Context())
			if err != nil {
				return a.check(err)
			}
			fmt.Fprintf(a.Out, "Email: %s\n", st.Email)
			if st.CodeGeneratedAt != nil {
				fmt.Fprintf(a.Out, "One-time code generated: %s\n", st.CodeGeneratedAt.Local().Format("2006-01-02 15:04"))
			}
			if st.OneTimeCode != "" {
				fmt.Fprintln(a.Out, "One-time code: "+color.YellowString(st.OneTimeCode))
				return a.check(c.MarkCodeShown(cmd.Context()))
			}
			return nil
		},
	}
}
