package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/modloader/internal/mod"
)

// Color palette for text output.
const (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorSuccess = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
	colorWarning = lipgloss.Color("#F59E0B")
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	cellStyle    = lipgloss.NewStyle().PaddingRight(2)
)

// renderTable writes rows as left-aligned columns. Widths are measured on
// the unstyled text so ANSI sequences do not skew alignment.
func renderTable(w io.Writer, header []string, rows [][]string, style func(row, col int) lipgloss.Style) error {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string, styleFor func(col int) lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = styleFor(i).Inherit(cellStyle).Width(widths[i] + 2).Render(cell)
		}
		return strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, parts...), " ")
	}

	if _, err := fmt.Fprintln(w, line(header, func(int) lipgloss.Style { return headerStyle })); err != nil {
		return err
	}
	for r, row := range rows {
		if _, err := fmt.Fprintln(w, line(row, func(c int) lipgloss.Style { return style(r, c) })); err != nil {
			return err
		}
	}
	return nil
}

// modTable renders records for `list`.
type modTable []mod.Record

func (t modTable) RenderText(w io.Writer) error {
	if len(t) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("No mods registered."))
		return err
	}

	rows := make([][]string, len(t))
	for i, rec := range t {
		state := "inactive"
		if rec.Active {
			state = "active"
		}
		version := rec.VersionString()
		if version == "" {
			version = "-"
		}
		author := "-"
		if rec.Author != nil {
			author = *rec.Author
		}
		rows[i] = []string{strconv.FormatUint(rec.ID, 10), rec.Name, version, author, state}
	}

	return renderTable(w, []string{"ID", "NAME", "VERSION", "AUTHOR", "STATE"}, rows, func(r, c int) lipgloss.Style {
		switch {
		case c == 4 && t[r].Active:
			return successStyle
		case c == 4:
			return mutedStyle
		default:
			return lipgloss.NewStyle()
		}
	})
}
