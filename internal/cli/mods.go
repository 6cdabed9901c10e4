package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/modloader/internal/manager"
	"github.com/roach88/modloader/internal/mod"
)

// describe formats a record as `Name 1.2.0 (#3)`.
func describe(rec mod.Record) string {
	if v := rec.VersionString(); v != "" {
		return fmt.Sprintf("%s %s (#%d)", rec.Name, v, rec.ID)
	}
	return fmt.Sprintf("%s (#%d)", rec.Name, rec.ID)
}

// message is a one-line text result that serializes as its payload.
type message struct {
	text string
	data any
}

func (m message) RenderText(w io.Writer) error {
	_, err := fmt.Fprintln(w, m.text)
	return err
}

func (m message) MarshalJSON() ([]byte, error) { return json.Marshal(m.data) }
func (m message) MarshalYAML() (any, error)    { return m.data, nil }

type addOutput struct {
	manager.AddResult `yaml:",inline"`
}

func (o addOutput) RenderText(w io.Writer) error {
	var line string
	switch o.Outcome {
	case manager.OutcomeAdded:
		line = successStyle.Render("✓") + " Added " + describe(o.Record)
	case manager.OutcomeOverwritten:
		line = successStyle.Render("✓") + " Replaced " + describe(o.Record)
	default:
		line = warningStyle.Render("-") + " Kept " + describe(o.Record) + ", overwrite declined"
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "add <archive>",
		Short: "Register a mod archive",
		Long: `Register a mod archive (zip, tar, tgz or gz) and keep a copy of it.

If a mod with the same name is registered, the archive replaces it when its
version is newer. When either version is unknown you are asked first.

Example:
  modloader add ~/Downloads/better-fonts.zip
  modloader add --yes ./lore-overhaul.tgz`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(rootOpts, cmd, yes, func(ctx context.Context, a *app, f *OutputFormatter) error {
				res, err := a.manager.Add(ctx, args[0])
				if err != nil {
					return err
				}
				return f.Success(addOutput{res})
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "overwrite without asking when a version is unknown")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Remove a mod, deactivating it first if needed",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(newFormatter(rootOpts, cmd), args[0])
			if err != nil {
				return err
			}
			return runWithApp(rootOpts, cmd, false, func(ctx context.Context, a *app, f *OutputFormatter) error {
				if err := a.manager.Delete(ctx, id); err != nil {
					return err
				}
				return f.Success(message{
					text: successStyle.Render("✓") + fmt.Sprintf(" Deleted mod #%d", id),
					data: map[string]uint64{"id": id},
				})
			})
		},
	}
}

// NewActivateCommand creates the activate command.
func NewActivateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <id>",
		Short: "Copy a mod's files into the game",
		Long: `Copy a registered mod's files into <root>/localization/<language>.

Activation fails without writing anything if another active mod already
owns one of the files.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(newFormatter(rootOpts, cmd), args[0])
			if err != nil {
				return err
			}
			return runWithApp(rootOpts, cmd, false, func(ctx context.Context, a *app, f *OutputFormatter) error {
				rec, err := a.manager.Activate(ctx, id)
				if err != nil {
					return err
				}
				return f.Success(message{text: successStyle.Render("✓") + " Activated " + describe(rec), data: rec})
			})
		},
	}
}

// NewDeactivateCommand creates the deactivate command.
func NewDeactivateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "deactivate <id>",
		Short:         "Remove a mod's files from the game",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(newFormatter(rootOpts, cmd), args[0])
			if err != nil {
				return err
			}
			return runWithApp(rootOpts, cmd, false, func(ctx context.Context, a *app, f *OutputFormatter) error {
				rec, err := a.manager.Deactivate(ctx, id)
				if err != nil {
					return err
				}
				return f.Success(message{text: successStyle.Render("✓") + " Deactivated " + describe(rec), data: rec})
			})
		},
	}
}

// NewDeactivateAllCommand creates the deactivate-all command.
func NewDeactivateAllCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "deactivate-all",
		Short:         "Deactivate every active mod",
		Long:          "Deactivate every active mod in id order, stopping at the first failure.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(rootOpts, cmd, false, func(ctx context.Context, a *app, f *OutputFormatter) error {
				ids, err := a.manager.DeactivateAll(ctx)
				if err != nil {
					f.VerboseLog("deactivated before failure: %v", ids)
					return err
				}
				return f.Success(message{
					text: successStyle.Render("✓") + fmt.Sprintf(" Deactivated %d mod(s)", len(ids)),
					data: map[string][]uint64{"deactivated": ids},
				})
			})
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List registered mods",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(rootOpts, cmd, false, func(ctx context.Context, a *app, f *OutputFormatter) error {
				records, err := a.manager.List(ctx)
				if err != nil {
					return err
				}
				return f.Success(modTable(records))
			})
		},
	}
}
