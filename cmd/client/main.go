// Package main is the my-notes command line client.
package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/palamut62/my-notes/internal/client/cli"
	"github.com/palamut62/my-notes/internal/client/storage"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path, err := storage.DefaultTokenPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app := &cli.App{
		Out:    os.Stdout,
		Prompt: storage.NewPrompter(os.Stdin, os.Stderr),
		Store:  &storage.TokenStore{Path: path},
	}
	v := fmt.Sprintf("%s (built %s)", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
	if err := cli.Execute(ctx, app, v, os.Args[1:]); err != nil {
		stop()
		os.Exit(1)
	}
}
