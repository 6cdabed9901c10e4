package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/modloader/internal/config"
)

// configView is the output of `config show`.
type configView struct {
	Path   string        `json:"path" yaml:"path"`
	Config config.Config `json:"config" yaml:"config"`
}

func (v configView) RenderText(w io.Writer) error {
	orUnset := func(s string) string {
		if s == "" {
			return mutedStyle.Render("(not set)")
		}
		return s
	}
	rows := [][]string{
		{"config file", v.Path},
		{"data dir", v.Config.DataDir},
		{"destination root", orUnset(v.Config.Destination.Root)},
		{"destination language", orUnset(v.Config.Destination.Language)},
		{"workers", fmt.Sprint(v.Config.Workers)},
		{"confirm timeout", v.Config.ConfirmTimeout.String()},
		{"store flush interval", v.Config.Store.FlushInterval.String()},
		{"store cache capacity", fmt.Sprint(v.Config.Store.CacheCapacity)},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s %s\n", headerStyle.Render(fmt.Sprintf("%-22s", r[0])), r[1]); err != nil {
			return err
		}
	}
	return nil
}

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}
	cmd.AddCommand(newConfigShowCommand(rootOpts))
	cmd.AddCommand(newConfigSetDestinationCommand(rootOpts))
	return cmd
}

func newConfigShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Print the resolved settings",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			provider, err := config.Load(config.LoadOptions{ConfigFile: rootOpts.ConfigFile, DataDir: rootOpts.DataDir})
			if err != nil {
				return f.Fail(err)
			}
			return f.Success(configView{Path: provider.Path(), Config: provider.Config()})
		},
	}
}

func newConfigSetDestinationCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-destination <root> <language>",
		Short: "Set the game installation and language",
		Long: fmt.Sprintf(`Set the game installation root and the localization language.

The root must be a directory containing a localization directory. The
language is a code or name: %s.

Changing the destination deactivates every active mod first, so no files
are left behind in the old location.`, strings.Join(config.Languages(), ", ")),
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(rootOpts, cmd, false, func(ctx context.Context, a *app, f *OutputFormatter) error {
				changed, err := a.manager.SetDestination(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				dest := a.config.Config().Destination
				text := mutedStyle.Render("Destination unchanged")
				if changed {
					text = successStyle.Render("✓") + fmt.Sprintf(" Destination set to %s (%s)", dest.Root, dest.Language)
				}
				return f.Success(message{
					text: text,
					data: map[string]any{"changed": changed, "destination": dest},
				})
			})
		},
	}
}
