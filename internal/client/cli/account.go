package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (a *App) accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the account",
	}
	cmd.AddCommand(a.accountDeleteCmd())
	return cmd
}

// accountDeleteCmd re-checks the password, shows a fresh code and deletes
// the account once the code is typed back.
func (a *App) accountDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete the account and everything in it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			password, err := a.Prompt.Secret("Account password: ")
			if err != nil {
				return err
			}
			code, err := c.BeginAccountDeletion(ctx, password)
			if err != nil {
				return a.check(err)
			}

			fmt.Fprintln(a.Out, color.RedString("This deletes all notes, passwords and files permanently."))
			fmt.Fprintln(a.Out, "Verification code: "+color.New(color.FgYellow, color.Bold).Sprint(code))
			typed, err := a.Prompt.Line("Type the code to confirm (empty to cancel): ")
			if err != nil || typed == "" {
				_ = c.CancelAccountDeletion(ctx)
				fmt.Fprintln(a.Out, "Cancelled.")
				return nil
			}

			if err := c.ConfirmAccountDeletion(ctx, typed); err != nil {
				return a.check(err)
			}
			_ = a.Store.Clear()
			a.ok("Account deleted")
			return nil
		},
	}
}
