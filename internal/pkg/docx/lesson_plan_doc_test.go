package docx

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/futig/lessonplan-backend/internal/entity"
)

type memCell struct {
	text string
}

func (c *memCell) Text() string        { return c.text }
func (c *memCell) SetText(text string) { c.text = text }

type memTable struct {
	rows [][]*memCell
}

func newMemTable(rows ...[]string) *memTable {
	t := &memTable{}
	for _, row := range rows {
		cells := make([]*memCell, 0, len(row))
		for _, text := range row {
			cells = append(cells, &memCell{text: text})
		}
		t.rows = append(t.rows, cells)
	}
	return t
}

func (t *memTable) RowCount() int { return len(t.rows) }

func (t *memTable) ColumnCount(row int) int {
	if row < 0 || row >= len(t.rows) {
		return 0
	}
	return len(t.rows[row])
}

func (t *memTable) Cell(row, col int) (Cell, error) {
	if row < 0 || row >= len(t.rows) || col < 0 || col >= len(t.rows[row]) {
		return nil, fmt.Errorf("cell %d,%d out of range", row, col)
	}
	return t.rows[row][col], nil
}

func (t *memTable) DeleteRow(row int) error {
	if row < 0 || row >= len(t.rows) {
		return fmt.Errorf("row %d out of range", row)
	}
	t.rows = append(t.rows[:row], t.rows[row+1:]...)
	return nil
}

func (t *memTable) InsertRowAfter(row, like int) error {
	if row < 0 || row >= len(t.rows) || like < 0 || like >= len(t.rows) {
		return fmt.Errorf("row out of range")
	}
	cells := make([]*memCell, len(t.rows[like]))
	for i := range cells {
		cells[i] = &memCell{}
	}
	t.rows = append(t.rows[:row+1], append([][]*memCell{cells}, t.rows[row+1:]...)...)
	return nil
}

func (t *memTable) text(row, col int) string {
	return t.rows[row][col].text
}

type memDoc struct {
	saved  []string
	closed bool
	err    error
}

func (d *memDoc) SaveToFile(path string) error {
	if d.err != nil {
		return d.err
	}
	d.saved = append(d.saved, path)
	return nil
}

func (d *memDoc) Close() error {
	d.closed = true
	return nil
}

func contentTemplate() *memTable {
	rows := make([][]string, 9)
	for r := range rows {
		rows[r] = make([]string, 6)
		for c := range rows[r] {
			rows[r][c] = fmt.Sprintf("orig %d,%d", r, c)
		}
	}
	return newMemTable(rows...)
}

func processTemplate(stale int) *memTable {
	rows := [][]string{
		{"教学实施过程"},
		{"教学环节", "教学内容", "教师活动", "学生活动"},
	}
	for i := 0; i < stale; i++ {
		rows = append(rows, []string{fmt.Sprintf("old %d", i), "", "", ""})
	}
	rows = append(rows,
		[]string{"课 外\n作 业", "old homework"},
		[]string{"教学反思", "old reflection"},
	)
	return newMemTable(rows...)
}

func newTestDoc(t *testing.T, stale int) (*LessonPlanDoc, *memTable, *memTable, *memDoc) {
	t.Helper()

	content := contentTemplate()
	process := processTemplate(stale)
	doc := &memDoc{}

	lp, err := NewLessonPlanDoc([]Table{newMemTable([]string{"cover"}), content, process}, DefaultLayout(), doc)
	if err != nil {
		t.Fatalf("NewLessonPlanDoc: %v", err)
	}
	return lp, content, process, doc
}

func TestNormalizeCellText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "trim", in: "  hello \n", want: "hello"},
		{name: "blank line runs", in: "a\n\n\n\nb", want: "a\nb"},
		{name: "whitespace-only lines", in: "a\n  \n\t\nb", want: "a\nb"},
		{name: "leading indentation", in: "1. x\n    2. y\n\t3. z", want: "1. x\n2. y\n3. z"},
		{name: "windows newlines", in: "a\r\n\r\nb", want: "a\nb"},
		{name: "empty", in: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCellText(tt.in); got != tt.want {
				t.Fatalf("NormalizeCellText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetCellTextRoundTrip(t *testing.T) {
	cell := &memCell{text: "template"}
	input := "\n  第一行\n\n\n第二行  \n\n"

	SetCellText(cell, input)

	if got, want := CellText(cell), "第一行\n第二行"; got != want {
		t.Fatalf("CellText = %q, want %q", got, want)
	}
}

func TestFillContentInfoWritesOnlyInfoCells(t *testing.T) {
	lp, content, _, _ := newTestDoc(t, 0)

	info := entity.CourseInfo{
		Topic:       "焊接基础",
		Class:       "电气自动化（2）班",
		Location:    "实训楼301",
		Time:        "第3周周一",
		Duration:    "2学时",
		SessionType: "理实一体",
		Teacher:     "张老师",
	}
	if err := lp.FillContentInfo(info); err != nil {
		t.Fatalf("FillContentInfo: %v", err)
	}

	want := map[[2]int]string{
		{0, 1}: "焊接基础",
		{1, 1}: "电气自动化（2）班",
		{1, 5}: "实训楼301",
		{2, 1}: "第3周周一",
		{2, 3}: "2学时",
		{2, 5}: "理实一体",
	}

	for r := 0; r < content.RowCount(); r++ {
		for c := 0; c < content.ColumnCount(r); c++ {
			got := content.text(r, c)
			if expected, ok := want[[2]int{r, c}]; ok {
				if got != expected {
					t.Fatalf("cell %d,%d = %q, want %q", r, c, got, expected)
				}
				continue
			}
			if orig := fmt.Sprintf("orig %d,%d", r, c); got != orig {
				t.Fatalf("cell %d,%d changed to %q", r, c, got)
			}
		}
	}
}

func TestFillContentInfoMissingFieldsBecomeEmpty(t *testing.T) {
	lp, content, _, _ := newTestDoc(t, 0)

	if err := lp.FillContentInfo(entity.CourseInfo{Topic: "只有课题"}); err != nil {
		t.Fatalf("FillContentInfo: %v", err)
	}
	if got := content.text(1, 5); got != "" {
		t.Fatalf("location cell = %q, want empty", got)
	}
}

func TestFillModules(t *testing.T) {
	lp, content, _, _ := newTestDoc(t, 0)

	for i, field := range ModuleFields {
		if err := lp.FillModule(field, fmt.Sprintf("module %d", i)); err != nil {
			t.Fatalf("FillModule(%s): %v", field, err)
		}
	}
	for i := range ModuleFields {
		if got, want := content.text(3+i, 1), fmt.Sprintf("module %d", i); got != want {
			t.Fatalf("row %d = %q, want %q", 3+i, got, want)
		}
	}

	if err := lp.FillContentModule(8, "思政"); err != nil {
		t.Fatalf("FillContentModule: %v", err)
	}
	if got := content.text(8, 1); got != "思政" {
		t.Fatalf("row 8 = %q", got)
	}

	if err := lp.FillContentModule(42, "x"); !errors.Is(err, entity.ErrDocumentFill) {
		t.Fatalf("expected ErrDocumentFill for out-of-range row, got %v", err)
	}
}

func TestFillProcessTable(t *testing.T) {
	steps := []entity.ProcessStep{
		{Phase: "导入", Minutes: "5min", Content: "回顾", TeacherActivity: "提问", StudentActivity: "回答"},
		{Phase: "讲授", Minutes: "25min", Content: "新知", TeacherActivity: "讲解", StudentActivity: "记录"},
		{Phase: "小结", Minutes: "15min", Content: "总结", TeacherActivity: "归纳", StudentActivity: "复述"},
	}

	for _, stale := range []int{0, 1, 5} {
		t.Run(fmt.Sprintf("%d stale rows", stale), func(t *testing.T) {
			lp, _, process, _ := newTestDoc(t, stale)

			if err := lp.FillProcessTable(steps, "1. 基础题：练习"); err != nil {
				t.Fatalf("FillProcessTable: %v", err)
			}

			homework := FindRowByKeyword(process, "课外作业")
			if got := homework - 2; got != len(steps) {
				t.Fatalf("step rows = %d, want %d", got, len(steps))
			}

			for i, step := range steps {
				row := 2 + i
				wantFirst := fmt.Sprintf("%s（%s）", step.Phase, step.Minutes)
				if got := process.text(row, 0); got != wantFirst {
					t.Fatalf("row %d col 0 = %q, want %q", row, got, wantFirst)
				}
				if got := process.text(row, 3); got != step.StudentActivity.String() {
					t.Fatalf("row %d col 3 = %q", row, got)
				}
			}

			if got := process.text(1, 0); got != "教学环节" {
				t.Fatalf("header changed: %q", got)
			}
			if got := process.text(process.RowCount()-2, 1); got != "1. 基础题：练习" {
				t.Fatalf("homework = %q", got)
			}
			if got := process.text(process.RowCount()-1, 1); got != "" {
				t.Fatalf("reflection = %q, want empty", got)
			}
		})
	}
}

func TestFillProcessTableTwiceReplacesRows(t *testing.T) {
	lp, _, process, _ := newTestDoc(t, 2)

	first := []entity.ProcessStep{{Phase: "a"}, {Phase: "b"}, {Phase: "c"}, {Phase: "d"}}
	if err := lp.FillProcessTable(first, ""); err != nil {
		t.Fatalf("first fill: %v", err)
	}

	second := []entity.ProcessStep{{Phase: "x", Minutes: "45min"}}
	if err := lp.FillProcessTable(second, "hw"); err != nil {
		t.Fatalf("second fill: %v", err)
	}

	if process.RowCount() != 5 {
		t.Fatalf("rows = %d, want 5", process.RowCount())
	}
	if got := process.text(2, 0); got != "x（45min）" {
		t.Fatalf("step row = %q", got)
	}
}

func TestLayoutValidation(t *testing.T) {
	layout := DefaultLayout()

	err := layout.Validate([]Table{newMemTable(), contentTemplate()})
	if !errors.Is(err, entity.ErrTemplateInvalid) {
		t.Fatalf("expected ErrTemplateInvalid for two tables, got %v", err)
	}

	short := newMemTable([]string{"a", "b"}, []string{"a", "b"})
	err = layout.Validate([]Table{newMemTable(), short, processTemplate(0)})
	if !errors.Is(err, entity.ErrTemplateInvalid) {
		t.Fatalf("expected ErrTemplateInvalid, got %v", err)
	}
	if !strings.Contains(err.Error(), `field "location"`) || !strings.Contains(err.Error(), "row has 2 columns") {
		t.Fatalf("error does not name the first bad binding: %v", err)
	}

	noHomework := newMemTable(
		[]string{"title"},
		[]string{"h1", "h2", "h3", "h4"},
		[]string{"教学反思", ""},
	)
	err = layout.Validate([]Table{newMemTable(), contentTemplate(), noHomework})
	if !errors.Is(err, entity.ErrTemplateInvalid) || !strings.Contains(err.Error(), "课外作业") {
		t.Fatalf("expected missing homework row error, got %v", err)
	}
}

func TestFindRowByKeyword(t *testing.T) {
	table := newMemTable(
		[]string{"标题"},
		[]string{"课 外", "作\n业"},
		[]string{"", "课　外 作\n业"},
	)

	if got := FindRowByKeyword(table, "课外作业"); got != 2 {
		t.Fatalf("FindRowByKeyword = %d, want 2", got)
	}
	if got := FindRowByKeyword(table, "不存在"); got != -1 {
		t.Fatalf("FindRowByKeyword = %d, want -1", got)
	}
}

func TestSaveWrapsError(t *testing.T) {
	lp, _, _, doc := newTestDoc(t, 0)

	if err := lp.Save("out.docx"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(doc.saved) != 1 || doc.saved[0] != "out.docx" {
		t.Fatalf("saved = %v", doc.saved)
	}

	doc.err = errors.New("disk full")
	if err := lp.Save("out.docx"); !errors.Is(err, entity.ErrDocumentSave) {
		t.Fatalf("expected ErrDocumentSave, got %v", err)
	}

	if err := lp.Close(); err != nil || !doc.closed {
		t.Fatalf("Close: %v closed=%v", err, doc.closed)
	}
}
