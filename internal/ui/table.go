package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Alignment represents column text alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// ColumnDef defines a column in a results table.
type ColumnDef struct {
	Name       string
	WidthRatio float64 // proportion of flexible width, 0 means fixed
	MinWidth   int
	MaxWidth   int // 0 = no limit
	Align      Alignment
	Style      lipgloss.Style
}

// Standard columns for listing output.
var (
	// ColNum is the result number column (fixed, right-aligned, muted).
	ColNum = ColumnDef{
		Name:     "num",
		MinWidth: 4,
		MaxWidth: 6,
		Align:    AlignRight,
		Style:    Muted,
	}

	// ColID is the record or note id column.
	ColID = ColumnDef{
		Name:     "id",
		MinWidth: 12,
		MaxWidth: 24,
		Style:    Accent,
	}

	// ColTitle is the main content column (flexible width).
	ColTitle = ColumnDef{
		Name:       "title",
		WidthRatio: 0.60,
		MinWidth:   20,
		MaxWidth:   80,
	}

	// ColMeta is the field summary column.
	ColMeta = ColumnDef{
		Name:       "meta",
		WidthRatio: 0.40,
		MinWidth:   12,
		MaxWidth:   48,
		Style:      Muted,
	}
)

// ListLayout is the column set for record and note listings.
var ListLayout = []ColumnDef{ColNum, ColID, ColTitle, ColMeta}

// ResultsTable renders listing rows against the terminal width.
type ResultsTable struct {
	display *DisplayContext
	columns []ColumnDef
	rows    [][]string
}

// NewResultsTable creates a table with the given display context and
// columns.
func NewResultsTable(display *DisplayContext, columns []ColumnDef) *ResultsTable {
	return &ResultsTable{display: display, columns: columns}
}

// AddRow adds one row; missing cells render empty.
func (t *ResultsTable) AddRow(cells ...string) {
	row := make([]string, len(t.columns))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// calculateWidths splits the terminal width between fixed and ratio
// columns.
func (t *ResultsTable) calculateWidths() []int {
	widths := make([]int, len(t.columns))

	var totalRatio float64
	var fixedWidth int
	const columnPadding = 2

	for i, col := range t.columns {
		if col.WidthRatio == 0 {
			widths[i] = col.MinWidth
			if col.MaxWidth > 0 && widths[i] > col.MaxWidth {
				widths[i] = col.MaxWidth
			}
			fixedWidth += widths[i]
		} else {
			totalRatio += col.WidthRatio
		}
	}

	totalPadding := (len(t.columns) - 1) * columnPadding
	available := t.display.TermWidth - fixedWidth - totalPadding - 2
	if available < 0 {
		available = 0
	}

	for i, col := range t.columns {
		if col.WidthRatio == 0 {
			continue
		}
		width := int(float64(available) * col.WidthRatio / totalRatio)
		if width < col.MinWidth {
			width = col.MinWidth
		}
		if col.MaxWidth > 0 && width > col.MaxWidth {
			width = col.MaxWidth
		}
		widths[i] = width
	}

	return widths
}

// Render generates the table output.
func (t *ResultsTable) Render() string {
	if len(t.rows) == 0 {
		return ""
	}

	widths := t.calculateWidths()

	tbl := table.New().
		Border(lipgloss.Border{}).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderRow(false).
		BorderColumn(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col >= len(t.columns) {
				return lipgloss.NewStyle()
			}

			colDef := t.columns[col]
			style := colDef.Style
			style = style.Width(widths[col])
			if colDef.Align == AlignRight {
				style = style.Align(lipgloss.Right)
			} else {
				style = style.Align(lipgloss.Left)
			}
			if col < len(t.columns)-1 {
				style = style.PaddingRight(2)
			}
			return style
		}).
		Rows(t.rows...)

	return tbl.Render()
}

// TruncateWithEllipsis truncates a string to maxLen, breaking at a word
// boundary when one is close enough.
func TruncateWithEllipsis(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}

	truncated := s[:maxLen-3]
	lastSpace := strings.LastIndex(truncated, " ")
	if lastSpace > maxLen/2 {
		truncated = truncated[:lastSpace]
	}
	return truncated + "..."
}

// FormatRowNum formats a row number with consistent width.
func FormatRowNum(num, maxNum int) string {
	width := len(fmt.Sprintf("%d", maxNum))
	if width < 2 {
		width = 2
	}
	return fmt.Sprintf("%*d", width, num)
}
