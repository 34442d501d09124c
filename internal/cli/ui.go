package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	validStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	invalidStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#EF4444"))

	cellStyle = lipgloss.NewStyle().Padding(0, 1)
)

func mark(ok bool) string {
	if ok {
		return validStyle.Render("✓")
	}
	return invalidStyle.Render("✗")
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		})
}
