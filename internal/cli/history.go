package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/roach88/modloader/internal/journal"
	"github.com/roach88/modloader/internal/manager"
)

type historyTable []journal.Entry

func (t historyTable) RenderText(w io.Writer) error {
	if len(t) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("No operations recorded."))
		return err
	}

	rows := make([][]string, len(t))
	for i, e := range t {
		status, detail := "unfinished", ""
		modID := e.Operation.ModID
		if e.Outcome != nil {
			status = string(e.Outcome.Status)
			detail = e.Outcome.Code
			if e.Outcome.ModID != 0 {
				modID = e.Outcome.ModID
			}
		}
		mod := "-"
		if modID != 0 {
			mod = "#" + strconv.FormatUint(modID, 10)
		}
		if detail == "" {
			detail = e.Operation.Subject
		}
		rows[i] = []string{
			strconv.FormatInt(e.Operation.Seq, 10),
			e.Operation.StartedAt.Local().Format(time.DateTime),
			string(e.Operation.Kind),
			mod,
			status,
			detail,
		}
	}

	return renderTable(w, []string{"SEQ", "STARTED", "KIND", "MOD", "STATUS", "DETAIL"}, rows, func(r, c int) lipgloss.Style {
		if c != 4 {
			return lipgloss.NewStyle()
		}
		switch rows[r][4] {
		case string(journal.StatusOK):
			return successStyle
		case string(journal.StatusFailed), "unfinished":
			return errorStyle
		default:
			return warningStyle
		}
	})
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:           "history",
		Short:         "Show recent operations, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				f := newFormatter(rootOpts, cmd)
				_ = f.Error("USAGE", "--limit must not be negative", nil)
				return NewExitError(ExitCommandError, "--limit must not be negative")
			}
			return runWithApp(rootOpts, cmd, false, func(ctx context.Context, a *app, f *OutputFormatter) error {
				entries, err := a.manager.History(ctx, limit)
				if err != nil {
					return err
				}
				return f.Success(historyTable(entries))
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show (0 for all)")

	return cmd
}

type doctorOutput struct {
	manager.Report `yaml:",inline"`
}

func (o doctorOutput) RenderText(w io.Writer) error {
	if o.Healthy() {
		_, err := fmt.Fprintf(w, "%s No unfinished activations. %d file(s) owned by active mods.\n",
			successStyle.Render("✓"), o.Ownership)
		return err
	}

	if _, err := fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf(
		"%d file(s) were announced by an activation that never finished:", len(o.Orphans)))); err != nil {
		return err
	}
	rows := make([][]string, len(o.Orphans))
	for i, orphan := range o.Orphans {
		owner := "-"
		if orphan.OwnerID != 0 {
			owner = "#" + strconv.FormatUint(orphan.OwnerID, 10)
		}
		onDisk := "unknown"
		if orphan.OnDisk != nil {
			onDisk = strconv.FormatBool(*orphan.OnDisk)
		}
		name := orphan.ModName
		if name == "" {
			name = mutedStyle.Render("(deleted)")
		}
		rows[i] = []string{orphan.Path, fmt.Sprintf("%s #%d", name, orphan.ModID), owner, onDisk}
	}
	return renderTable(w, []string{"PATH", "MOD", "OWNER", "ON DISK"}, rows, func(int, int) lipgloss.Style {
		return lipgloss.NewStyle()
	})
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Report files left by interrupted activations",
		Long: `Report files that an activation announced but never recorded as owned,
for example because the process was killed mid-way. Nothing is changed;
remove listed files by hand if they are not owned by any mod.

Exits with status 1 when anything is reported.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(rootOpts, cmd, false, func(ctx context.Context, a *app, f *OutputFormatter) error {
				report, err := a.manager.Doctor(ctx)
				if err != nil {
					return err
				}
				if err := f.Success(doctorOutput{report}); err != nil {
					return err
				}
				if !report.Healthy() {
					return NewExitError(ExitFailure, fmt.Sprintf("%d unconfirmed file(s)", len(report.Orphans)))
				}
				return nil
			})
		},
	}
}
