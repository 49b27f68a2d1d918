package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/palamut62/my-notes/internal/models"
)

func (a *App) notesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Manage notes",
	}
	cmd.AddCommand(
		a.notesListCmd(),
		a.notesShowCmd(),
		a.notesAddCmd(),
		a.notesEditCmd(),
		a.noteActionCmd("archive", "Archive a note"),
		a.noteActionCmd("unarchive", "Move an archived note back"),
		a.noteActionCmd("trash", "Move a note to the trash"),
		a.noteActionCmd("restore", "Restore a note from the trash"),
		a.notesRemoveCmd(),
	)
	return cmd
}

func (a *App) printNote(n models.Note) {
	title := n.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(a.Out, "%s  %s", color.CyanString(n.ID), color.New(color.Bold).Sprint(title))
	if n.Category != "" {
		fmt.Fprintf(a.Out, "  [%s]", n.Category)
	}
	if len(n.Tags) > 0 {
		fmt.Fprintf(a.Out, "  #%s", strings.Join(n.Tags, " #"))
	}
	if n.Undecryptable {
		fmt.Fprint(a.Out, "  "+color.RedString("(content cannot be decrypted)"))
	}
	fmt.Fprintln(a.Out)
}

func (a *App) notesListCmd() *cobra.Command {
	var view string
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			notes, err := c.ListNotes(cmd.Context(), models.NoteView(view))
			if err != nil {
				return a.check(err)
			}
			if len(notes) == 0 {
				fmt.Fprintln(a.Out, "No notes.")
				return nil
			}
			for _, n := range notes {
				a.printNote(n)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&view, "view", string(models.ActiveNotes), "active | archived | trash")
	return cmd
}

func (a *App) notesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			n, err := c.GetNote(cmd.Context(), args[0])
			if err != nil {
				return a.check(err)
			}
			a.printNote(*n)
			if n.Subtitle != "" {
				fmt.Fprintln(a.Out, n.Subtitle)
			}
			fmt.Fprintln(a.Out, n.Content)
			return nil
		},
	}
}

func (a *App) notesAddCmd() *cobra.Command {
	var in models.NoteInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			n, err := c.CreateNote(cmd.Context(), in)
			if err != nil {
				return a.check(err)
			}
			a.ok("Note %s created", n.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "title")
	cmd.Flags().StringVar(&in.Subtitle, "subtitle", "", "subtitle")
	cmd.Flags().StringVar(&in.Content, "content", "", "content")
	cmd.Flags().StringVar(&in.Category, "category", "", "category")
	cmd.Flags().StringSliceVar(&in.Tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().StringVar(&in.BackgroundColor, "background", "", "background color (#rrggbb)")
	return cmd
}

func (a *App) notesEditCmd() *cobra.Command {
	var (
		title, subtitle, content, category string
		tags                               []string
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the given fields of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd models.NoteUpdate
			flags := cmd.Flags()
			if flags.Changed("title") {
				upd.Title = &title
			}
			if flags.Changed("subtitle") {
				upd.Subtitle = &subtitle
			}
			if flags.Changed("content") {
				upd.Content = &content
			}
			if flags.Changed("category") {
				upd.Category = &category
			}
			if flags.Changed("tag") {
				upd.Tags = &tags
			}
			if upd.Empty() {
				return fmt.Errorf("nothing to change")
			}

			c, err := a.authed()
			if err != nil {
				return err
			}
			if _, err := c.UpdateNote(cmd.Context(), args[0], upd); err != nil {
				return a.check(err)
			}
			a.ok("Note %s updated", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&subtitle, "subtitle", "", "subtitle")
	cmd.Flags().StringVar(&content, "content", "", "content")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable, replaces all tags)")
	return cmd
}

func (a *App) noteActionCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			if err := c.NoteAction(cmd.Context(), args[0], action); err != nil {
				return a.check(err)
			}
			a.ok("Note %s: %s done", args[0], action)
			return nil
		},
	}
}

func (a *App) notesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a note permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			if err := c.DeleteNote(cmd.Context(), args[0]); err != nil {
				return a.check(err)
			}
			a.ok("Note %s deleted", args[0])
			return nil
		},
	}
}
