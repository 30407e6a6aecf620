package docx

import (
	"fmt"
	"strings"

	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/unidoc/unioffice/document"
	"github.com/unidoc/unioffice/schema/soo/wml"
)

// OpenTemplate loads a .docx template and validates layout against it.
func OpenTemplate(path string, layout Layout) (*LessonPlanDoc, error) {
	doc, err := document.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", entity.ErrTemplateInvalid, path, err)
	}

	docTables := doc.Tables()
	tables := make([]Table, 0, len(docTables))
	for _, t := range docTables {
		tables = append(tables, wordTable{t: t})
	}

	lp, err := NewLessonPlanDoc(tables, layout, doc)
	if err != nil {
		doc.Close()
		return nil, err
	}

	return lp, nil
}

type wordTable struct {
	t document.Table
}

func (w wordTable) RowCount() int {
	return len(w.t.Rows())
}

func (w wordTable) ColumnCount(row int) int {
	rows := w.t.Rows()
	if row < 0 || row >= len(rows) {
		return 0
	}

	cols := 0
	for _, c := range rows[row].Cells() {
		cols += gridSpan(c)
	}
	return cols
}

func (w wordTable) Cell(row, col int) (Cell, error) {
	rows := w.t.Rows()
	if row < 0 || row >= len(rows) {
		return nil, fmt.Errorf("row %d out of range (%d rows)", row, len(rows))
	}

	pos := 0
	for _, c := range rows[row].Cells() {
		span := gridSpan(c)
		if col >= pos && col < pos+span {
			return wordCell{c: c}, nil
		}
		pos += span
	}

	return nil, fmt.Errorf("column %d out of range in row %d (%d columns)", col, row, pos)
}

func (w wordTable) DeleteRow(row int) error {
	rows := w.t.Rows()
	if row < 0 || row >= len(rows) {
		return fmt.Errorf("row %d out of range (%d rows)", row, len(rows))
	}

	target := rows[row].X()
	x := w.t.X()
	for i, content := range x.EG_ContentRowContent {
		for j, tr := range content.Tr {
			if tr != target {
				continue
			}
			if len(content.Tr) == 1 {
				x.EG_ContentRowContent = append(x.EG_ContentRowContent[:i], x.EG_ContentRowContent[i+1:]...)
			} else {
				content.Tr = append(content.Tr[:j], content.Tr[j+1:]...)
			}
			return nil
		}
	}

	return fmt.Errorf("row %d is not a direct child of the table", row)
}

func (w wordTable) InsertRowAfter(row, like int) error {
	rows := w.t.Rows()
	if row < 0 || row >= len(rows) || like < 0 || like >= len(rows) {
		return fmt.Errorf("row %d or %d out of range (%d rows)", row, like, len(rows))
	}

	newRow := w.t.InsertRowAfter(rows[row])
	for _, src := range rows[like].Cells() {
		cell := newRow.AddCell()
		cell.AddParagraph()

		pr := src.X().TcPr
		if pr == nil {
			continue
		}

		tcPr := wml.NewCT_TcPr()
		if pr.TcW != nil {
			width := *pr.TcW
			tcPr.TcW = &width
		}
		if pr.GridSpan != nil {
			span := *pr.GridSpan
			tcPr.GridSpan = &span
		}
		cell.X().TcPr = tcPr
	}

	return nil
}

type wordCell struct {
	c document.Cell
}

func (w wordCell) Text() string {
	paragraphs := w.c.Paragraphs()
	lines := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		lines = append(lines, paragraphText(p.X()))
	}

	return strings.Join(lines, "\n")
}

func paragraphText(p *wml.CT_P) string {
	var sb strings.Builder
	for _, pc := range p.EG_PContent {
		for _, rc := range pc.EG_ContentRunContent {
			if rc.R == nil {
				continue
			}
			for _, ic := range rc.R.EG_RunInnerContent {
				switch {
				case ic.T != nil:
					sb.WriteString(ic.T.Content)
				case ic.Br != nil:
					sb.WriteByte('\n')
				case ic.Tab != nil:
					sb.WriteByte('\t')
				}
			}
		}
	}
	return sb.String()
}

// SetText keeps the font family and size of the first run, drops every
// paragraph and writes text as one left-aligned, vertically centred
// paragraph.
func (w wordCell) SetText(text string) {
	var font *wml.CT_RPr
	if paragraphs := w.c.Paragraphs(); len(paragraphs) > 0 {
		if runs := paragraphs[0].Runs(); len(runs) > 0 && runs[0].X().RPr != nil {
			src := runs[0].X().RPr
			font = wml.NewCT_RPr()
			font.RFonts = src.RFonts
			font.Sz = src.Sz
			font.SzCs = src.SzCs
		}
	}

	w.c.X().EG_BlockLevelElts = nil

	p := w.c.AddParagraph()
	props := p.Properties()
	props.SetAlignment(wml.ST_JcLeft)
	props.SetStartIndent(0)
	props.SetFirstLineIndent(0)
	props.SetSpacing(0, 0)

	run := p.AddRun()
	if font != nil {
		run.X().RPr = font
	}
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			run.AddBreak()
		}
		if line != "" {
			run.AddText(line)
		}
	}

	w.c.Properties().SetVerticalAlignment(wml.ST_VerticalJcCenter)
}

func gridSpan(c document.Cell) int {
	if pr := c.X().TcPr; pr != nil && pr.GridSpan != nil && pr.GridSpan.ValAttr > 1 {
		return int(pr.GridSpan.ValAttr)
	}
	return 1
}
