package render

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/modoterra/sdstatus/pkg/core"
)

const columnGap = "  "

var tableHeader = [3]string{"UNIT", "STATE", "SINCE"}

// Table writes one row per unit, sorted by name. Active rows are green and
// failed rows red when opts.Color is set.
func Table(w io.Writer, rs core.ResultSet, opts Options) error {
	r := lipgloss.NewRenderer(w)
	if opts.Color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	var (
		activeStyle = r.NewStyle().Foreground(lipgloss.Color("42"))
		failedStyle = r.NewStyle().Foreground(lipgloss.Color("196"))
		headerStyle = r.NewStyle().Bold(true)
	)

	names := rs.Names()
	rows := make([][3]string, 0, len(names))
	for _, name := range names {
		info := rs[name]
		rows = append(rows, [3]string{name, info.State.String(), FormatDuration(info.TimeSinceTransition)})
	}

	var widths [3]int
	for _, row := range append([][3]string{tableHeader}, rows...) {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(formatRow(tableHeader, widths)))
	b.WriteByte('\n')
	for i, row := range rows {
		line := formatRow(row, widths)
		switch rs[names[i]].State.State {
		case core.StateActive:
			line = activeStyle.Render(line)
		case core.StateFailed:
			line = failedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// formatRow pads the name and state columns on the right and the elapsed
// column on the left so durations line up.
func formatRow(row [3]string, widths [3]int) string {
	return padRight(row[0], widths[0]) + columnGap +
		padRight(row[1], widths[1]) + columnGap +
		padLeft(row[2], widths[2])
}

func padRight(s string, w int) string {
	return s + strings.Repeat(" ", max(w-lipgloss.Width(s), 0))
}

func padLeft(s string, w int) string {
	return strings.Repeat(" ", max(w-lipgloss.Width(s), 0)) + s
}
