package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Theme defines the color scheme for terminal output.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/help text color
	Bad     lipgloss.Color // Failed rows
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Bad:     lipgloss.Color("#ff5f5f"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
	Cell   lipgloss.Style
	Bad    lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
		Cell:   lipgloss.NewStyle().Padding(0, 1),
		Bad:    lipgloss.NewStyle().Foreground(t.Bad).Padding(0, 1),
	}
}

// RenderTable renders rows under headers with a rounded border. Rows whose
// last cell starts with "error" are drawn in the Bad style.
func (s Styles) RenderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.Border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return s.Label
			case row >= 0 && row < len(rows) && isErrorRow(rows[row]):
				return s.Bad
			default:
				return s.Cell
			}
		}).
		String()
}

func isErrorRow(r []string) bool {
	if len(r) == 0 {
		return false
	}
	last := r[len(r)-1]
	return len(last) >= 5 && last[:5] == "error"
}
