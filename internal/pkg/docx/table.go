package docx

import (
	"regexp"
	"strings"
	"unicode"
)

// Table is the part of a Word table the lesson plan filler touches.
// Columns are grid columns: a cell spanning several grid columns is
// returned for each of them.
type Table interface {
	RowCount() int
	ColumnCount(row int) int
	Cell(row, col int) (Cell, error)
	DeleteRow(row int) error
	// InsertRowAfter adds an empty row right after row, with one cell for
	// every cell of row like.
	InsertRowAfter(row, like int) error
}

// Cell is a single table cell.
type Cell interface {
	Text() string
	// SetText replaces the cell content with text, one line per "\n".
	SetText(text string)
}

var (
	leadingBlanks = regexp.MustCompile(`(?m)^[ \t]+`)
	blankLineRuns = regexp.MustCompile(`\n{2,}`)
)

// NormalizeCellText trims text, strips leading spaces and tabs of every line
// and collapses runs of empty lines into a single line break.
func NormalizeCellText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)
	text = leadingBlanks.ReplaceAllString(text, "")
	text = blankLineRuns.ReplaceAllString(text, "\n")
	return text
}

// SetCellText writes the normalised text into c.
func SetCellText(c Cell, text string) {
	c.SetText(NormalizeCellText(text))
}

// CellText reads the text of c back, lines joined by "\n".
func CellText(c Cell) string {
	return c.Text()
}

// FindRowByKeyword returns the index of the first row having a cell that
// contains keyword, ignoring all whitespace, or -1.
func FindRowByKeyword(t Table, keyword string) int {
	needle := stripSpace(keyword)
	if needle == "" {
		return -1
	}

	for row := 0; row < t.RowCount(); row++ {
		for col := 0; col < t.ColumnCount(row); col++ {
			cell, err := t.Cell(row, col)
			if err != nil {
				continue
			}
			if strings.Contains(stripSpace(cell.Text()), needle) {
				return row
			}
		}
	}

	return -1
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
