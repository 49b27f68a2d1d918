package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/palamut62/my-notes/internal/client/api"
	"github.com/palamut62/my-notes/internal/models"
)

func (a *App) passwordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passwords",
		Short: "Manage stored passwords",
	}
	cmd.AddCommand(
		a.passwordsListCmd(),
		a.passwordsAddCmd(),
		a.passwordsRemoveCmd(),
		a.passwordsRevealCmd(),
		a.passwordsHideCmd(),
	)
	return cmd
}

func (a *App) printPassword(p models.Password) {
	secret := "••••••••"
	switch {
	case p.Undecryptable:
		secret = color.RedString("(cannot be decrypted)")
	case p.Revealed:
		secret = color.YellowString(p.Password)
	}
	fmt.Fprintf(a.Out, "%s  %s  %s  %s", color.CyanString(p.ID), color.New(color.Bold).Sprint(p.Title), p.Username, secret)
	if p.URL != "" {
		fmt.Fprintf(a.Out, "  %s", p.URL)
	}
	fmt.Fprintln(a.Out)
}

func (a *App) passwordsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List password entries (secrets stay masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			items, err := c.ListPasswords(cmd.Context())
			if err != nil {
				return a.check(err)
			}
			if len(items) == 0 {
				fmt.Fprintln(a.Out, "No passwords.")
				return nil
			}
			for _, p := range items {
				a.printPassword(p)
			}
			return nil
		},
	}
}

func (a *App) passwordsAddCmd() *cobra.Command {
	var in models.PasswordInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store a password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			if in.Password, err = a.Prompt.Secret("Password to store: "); err != nil {
				return err
			}
			p, err := c.CreatePassword(cmd.Context(), in)
			if err != nil {
				return a.check(err)
			}
			a.ok("Password %s stored", p.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "title")
	cmd.Flags().StringVar(&in.Username, "username", "", "username")
	cmd.Flags().StringVar(&in.URL, "url", "", "website")
	cmd.Flags().StringVar(&in.Category, "category", "", "category")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "notes")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func (a *App) passwordsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a password entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			if err := c.DeletePassword(cmd.Context(), args[0]); err != nil {
				return a.check(err)
			}
			a.ok("Password %s deleted", args[0])
			return nil
		},
	}
}

// passwordsRevealCmd asks for the one-time code until it is accepted. An
// empty answer cancels the prompt.
func (a *App) passwordsRevealCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reveal <id>",
		Short: "Show a password after entering the one-time code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			id := args[0]

			if _, err := c.RequestReveal(ctx, id); err != nil {
				return a.check(err)
			}
			for {
				code, err := a.Prompt.Secret("One-time code (empty to cancel): ")
				if err != nil || code == "" {
					_ = c.CancelReveal(ctx, id)
					fmt.Fprintln(a.Out, "Cancelled.")
					return nil
				}

				p, err := c.VerifyReveal(ctx, id, code)
				var apiErr *api.Error
				if errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden {
					fmt.Fprintln(a.Out, color.RedString(apiErr.Message))
					continue
				}
				if err != nil {
					return a.check(err)
				}
				a.printPassword(*p)
				return nil
			}
		},
	}
}

func (a *App) passwordsHideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hide <id>",
		Short: "Mask a revealed password again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			if err := c.Hide(cmd.Context(), args[0]); err != nil {
				return a.check(err)
			}
			a.ok("Password %s hidden", args[0])
			return nil
		},
	}
}
