package render

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/psryland/rylogic-code-sub008/pkg/types"
)

// Table draws rows under a header with a rounded border.
func (r *Renderer) Table(headers []string, rows [][]string) string {
	header := r.lg.NewStyle().Bold(true).Padding(0, 1)
	cell := r.lg.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.lg.NewStyle().Faint(true)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers(headers...).
		Rows(rows...)
	return t.String()
}

// Summary draws the counts from a run.
func (r *Renderer) Summary(stats types.Stats) string {
	return r.Table(
		[]string{"Lines", "Admitted", "Rejected", "Transformed", "Highlighted"},
		[][]string{{
			strconv.Itoa(stats.Lines),
			strconv.Itoa(stats.Admitted),
			strconv.Itoa(stats.Rejected),
			strconv.Itoa(stats.Transformed),
			strconv.Itoa(stats.Highlighted),
		}},
	)
}
