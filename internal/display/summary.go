package display

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/backmassage/stillmux/internal/term"
)

// Field is one label/value row of a summary box.
type Field struct {
	Label string
	Value string
}

// SummaryBox renders a titled, rounded box of aligned label/value rows.
func SummaryBox(title string, fields []Field) string {
	width := 0
	for _, f := range fields {
		if w := lipgloss.Width(f.Label); w > width {
			width = w
		}
	}
	labelStyle := term.NewStyle().Width(width + 2).Foreground(term.ColorGray)
	titleStyle := term.NewStyle().Bold(true).Foreground(term.ColorGreen)

	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	for _, f := range fields {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(f.Label))
		b.WriteString(f.Value)
	}

	box := term.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(term.ColorMagenta).
		Padding(0, 1)
	return box.Render(b.String())
}

// Table renders rows under headers with a normal border. The header row is
// bold; the first column is dimmed.
func Table(headers []string, rows [][]string) string {
	headerStyle := term.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := term.NewStyle().Padding(0, 1)
	idStyle := cellStyle.Foreground(term.ColorGray)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(term.NewStyle().Foreground(term.ColorGray)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return idStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}
