package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "text" | "json" | "yaml"
	ConfigFile string
	DataDir    string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the modloader CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "modloader",
		Short: "modloader - manage localization mods for a game installation",
		Long: `Register mod archives, then activate them to copy their files into the
game's localization directory. Activation refuses to overwrite files owned
by another active mod; deactivation removes exactly the files a mod owns.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				msg := fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
				_ = newFormatter(opts, cmd).Error("USAGE", msg, nil)
				return NewExitError(ExitCommandError, msg)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default <data-dir>/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "data directory (default <user config dir>/modloader)")

	// Add subcommands
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewActivateCommand(opts))
	cmd.AddCommand(NewDeactivateCommand(opts))
	cmd.AddCommand(NewDeactivateAllCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewDoctorCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting structured output
		Verbose:   opts.Verbose,
	}
}

// runWithApp wires the application, runs fn and shuts everything down.
// Errors returned by fn are rendered and mapped to exit codes.
func runWithApp(opts *RootOptions, cmd *cobra.Command, assumeYes bool, fn func(ctx context.Context, a *app, f *OutputFormatter) error) (err error) {
	f := newFormatter(opts, cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp(opts, logger)
	if err != nil {
		return f.Fail(err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil && err == nil {
			err = f.Fail(closeErr)
		}
	}()

	stop := newResponder(a.hub, cmd.InOrStdin(), cmd.ErrOrStderr(), assumeYes).start(ctx)
	defer stop()

	if err := fn(ctx, a, f); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr
		}
		return f.Fail(err)
	}
	return nil
}

// parseID parses a mod id argument.
func parseID(f *OutputFormatter, arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		_ = f.Error("USAGE", fmt.Sprintf("invalid mod id %q", arg), nil)
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid mod id %q", arg))
	}
	return id, nil
}
