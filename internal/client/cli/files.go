package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (a *App) filesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Manage uploaded files",
	}
	cmd.AddCommand(a.filesListCmd(), a.filesUploadCmd(), a.filesDownloadCmd(), a.filesRemoveCmd())
	return cmd
}

func (a *App) filesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			files, err := c.ListFiles(cmd.Context())
			if err != nil {
				return a.check(err)
			}
			if len(files) == 0 {
				fmt.Fprintln(a.Out, "No files.")
				return nil
			}
			for _, f := range files {
				fmt.Fprintf(a.Out, "%s  %s  %d bytes  %s\n", color.CyanString(f.ID), f.Name, f.Size, f.Category)
			}
			return nil
		},
	}
}

func (a *App) filesUploadCmd() *cobra.Command {
	var category, notes string
	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a file (never overwrites a file of the same name)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			f, err := c.UploadFile(cmd.Context(), args[0], category, notes)
			if err != nil {
				return a.check(err)
			}
			a.ok("Uploaded %s as %s", f.Name, f.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	return cmd
}

func (a *App) filesDownloadCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			c, err := a.authed()
			if err != nil {
				return err
			}
			out, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
			if err != nil {
				return err
			}
			n, err := c.DownloadFile(cmd.Context(), args[0], out)
			if cerr := out.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				_ = os.Remove(output)
				return a.check(err)
			}
			a.ok("Saved %d bytes to %s", n, filepath.Clean(output))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination path (must not exist)")
	return cmd
}

func (a *App) filesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			if err := c.DeleteFile(cmd.Context(), args[0]); err != nil {
				return a.check(err)
			}
			a.ok("File %s deleted", args[0])
			return nil
		},
	}
}
