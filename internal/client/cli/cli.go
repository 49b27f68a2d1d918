// Package cli implements the my-notes command line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/palamut62/my-notes/internal/client/api"
	"github.com/palamut62/my-notes/internal/client/storage"
)

// App holds what every command needs.
type App struct {
	Out    io.Writer
	Prompt *storage.Prompter
	Store  *storage.TokenStore

	server string
	caFile string
}

// NewRootCmd builds the command tree around app.
func NewRootCmd(app *App, version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "my-notes",
		Short:         "Command line client of the my-notes vault",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&app.server, "server", "http://localhost:8080", "server base URL")
	root.PersistentFlags().StringVar(&app.caFile, "ca", "", "CA bundle to verify the server certificate")
	root.PersistentFlags().StringVar(&app.Store.Path, "session-file", app.Store.Path, "where the session token is kept")

	root.AddCommand(
		app.registerCmd(),
		app.loginCmd(),
		app.logoutCmd(),
		app.profileCmd(),
		app.notesCmd(),
		app.passwordsCmd(),
		app.filesCmd(),
		app.accountCmd(),
	)
	return root
}

// Execute runs the command line and prints a failure in red.
func Execute(ctx context.Context, app *App, version string, args []string) error {
	root := NewRootCmd(app, version)
	root.SetArgs(args)
	root.SetOut(app.Out)
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(app.Out, color.RedString("✗")+" "+err.Error())
	}
	return err
}

// anonymous returns a client without a session.
func (a *App) anonymous() (*api.Client, error) {
	return api.New(a.server, a.caFile)
}

// authed returns a client carrying the saved session token.
func (a *App) authed() (*api.Client, error) {
	sess, err := a.Store.Load()
	if errors.Is(err, storage.ErrNoSession) {
		return nil, errors.New("not signed in, run " + color.YellowString("my-notes login"))
	}
	if err != nil {
		return nil, err
	}
	server := a.server
	if sess.Server != "" {
		server = sess.Server
	}
	c, err := api.New(server, a.caFile)
	if err != nil {
		return nil, err
	}
	c.Token = sess.Token
	return c, nil
}

// check turns an expired session into a hint and forgets the token.
func (a *App) check(err error) error {
	if api.IsStatus(err, http.StatusUnauthorized) {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Message != "authentication required" {
			return errors.New(apiErr.Message)
		}
		_ = a.Store.Clear()
		return errors.New("session expired, run " + color.YellowString("my-notes login"))
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return errors.New(apiErr.Message)
	}
	return err
}

func (a *App) ok(format string, args ...any) {
	fmt.Fprintln(a.Out, color.GreenString("✓")+" "+fmt.Sprintf(format, args...))
}
