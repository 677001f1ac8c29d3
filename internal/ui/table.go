package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column. A zero Width sizes the column to its
// widest cell.
type Column struct {
	Title string
	Width int
}

// Row is a slice of cell values.
type Row []string

// Table renders a lipgloss-styled table.
type Table struct {
	Columns []Column
	Rows    []Row
	SelIdx  int // selected row index (-1 = none)
}

// NewTable creates a new table.
func NewTable(cols []Column) *Table {
	return &Table{Columns: cols, SelIdx: -1}
}

// AddRow appends a row.
func (t *Table) AddRow(r Row) {
	t.Rows = append(t.Rows, r)
}

func (t *Table) widths() []int {
	out := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		if col.Width > 0 {
			out[i] = col.Width
			continue
		}
		w := lipgloss.Width(col.Title)
		for _, row := range t.Rows {
			if i < len(row) && lipgloss.Width(row[i]) > w {
				w = lipgloss.Width(row[i])
			}
		}
		out[i] = w
	}
	return out
}

// fit left-aligns s within exactly width runes, truncating with an ellipsis.
func fit(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		if width <= 1 {
			return string(r[:width])
		}
		return string(r[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(r))
}

// Render returns the full table as a string.
func (t *Table) Render() string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(ColorValue)
	dimStyle := lipgloss.NewStyle().Foreground(ColorMeta)
	widths := t.widths()

	var headers, divParts []string
	for i, col := range t.Columns {
		headers = append(headers, headerStyle.Render(fit(col.Title, widths[i])))
		divParts = append(divParts, dimStyle.Render(strings.Repeat("-", widths[i])))
	}
	sb.WriteString(strings.Join(headers, " ") + "\n")
	sb.WriteString(strings.Join(divParts, " ") + "\n")

	for i, row := range t.Rows {
		var cells []string
		for j := range t.Columns {
			val := ""
			if j < len(row) {
				val = row[j]
			}
			if i == t.SelIdx {
				cells = append(cells, StyleSelected.Render(fit(val, widths[j])))
			} else {
				cells = append(cells, cellStyle.Render(fit(val, widths[j])))
			}
		}
		sb.WriteString(strings.Join(cells, " "))
		sb.WriteString("\n")
	}

	return sb.String()
}

// KeyValueBlock renders a set of key-value pairs in a bordered box.
func KeyValueBlock(title string, pairs [][2]string) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title))
		sb.WriteString("\n")
	}
	for _, p := range pairs {
		key := StyleMeta.Render(fmt.Sprintf("%-20s", p[0]+":"))
		val := StyleValue.Render(p[1])
		sb.WriteString("  " + key + " " + val + "\n")
	}
	return StyleBorder.Render(sb.String())
}
