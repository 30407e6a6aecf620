package docx

import (
	"fmt"

	"github.com/futig/lessonplan-backend/internal/entity"
)

// Field names a cell of the template written by the filler.
type Field string

const (
	FieldTopic       Field = "topic"
	FieldClass       Field = "class"
	FieldLocation    Field = "location"
	FieldTime        Field = "time"
	FieldDuration    Field = "duration"
	FieldSessionType Field = "session_type"

	FieldAnalysis     Field = "analysis"
	FieldObjectives   Field = "objectives"
	FieldKeyPoints    Field = "key_points"
	FieldDifficulties Field = "difficulties"
	FieldMethods      Field = "methods"
	FieldIdeology     Field = "ideology"
)

// InfoFields are the course fields of the content table, in template order.
var InfoFields = []Field{
	FieldTopic, FieldClass, FieldLocation, FieldTime, FieldDuration, FieldSessionType,
}

// ModuleFields are the generated content modules, in template order.
var ModuleFields = []Field{
	FieldAnalysis, FieldObjectives, FieldKeyPoints, FieldDifficulties, FieldMethods, FieldIdeology,
}

// Binding locates a cell: table index, row and grid column.
type Binding struct {
	Table int
	Row   int
	Col   int
}

func (b Binding) String() string {
	return fmt.Sprintf("table %d row %d column %d", b.Table, b.Row, b.Col)
}

// Layout maps the semantic fields of a lesson plan onto template cells.
type Layout struct {
	MinTables    int
	ContentTable int
	Fields       map[Field]Binding

	ProcessTable     int
	ProcessHeaderRow int
	ProcessColumns   int
	HomeworkKeyword  string
}

const (
	contentTable = 1
	processTable = 2
)

// DefaultLayout describes the stock template: cover table, content table
// and process table, in that order.
func DefaultLayout() Layout {
	return Layout{
		MinTables:    3,
		ContentTable: contentTable,
		Fields: map[Field]Binding{
			FieldTopic:       {Table: contentTable, Row: 0, Col: 1},
			FieldClass:       {Table: contentTable, Row: 1, Col: 1},
			FieldLocation:    {Table: contentTable, Row: 1, Col: 5},
			FieldTime:        {Table: contentTable, Row: 2, Col: 1},
			FieldDuration:    {Table: contentTable, Row: 2, Col: 3},
			FieldSessionType: {Table: contentTable, Row: 2, Col: 5},

			FieldAnalysis:     {Table: contentTable, Row: 3, Col: 1},
			FieldObjectives:   {Table: contentTable, Row: 4, Col: 1},
			FieldKeyPoints:    {Table: contentTable, Row: 5, Col: 1},
			FieldDifficulties: {Table: contentTable, Row: 6, Col: 1},
			FieldMethods:      {Table: contentTable, Row: 7, Col: 1},
			FieldIdeology:     {Table: contentTable, Row: 8, Col: 1},
		},
		ProcessTable:     processTable,
		ProcessHeaderRow: 1,
		ProcessColumns:   4,
		HomeworkKeyword:  "课外作业",
	}
}

// Validate checks every binding against the actual tables and reports the
// first one that does not fit.
func (l Layout) Validate(tables []Table) error {
	if len(tables) < l.MinTables {
		return fmt.Errorf("%w: template has %d tables, need at least %d (cover, content, process)",
			entity.ErrTemplateInvalid, len(tables), l.MinTables)
	}

	for _, field := range append(append([]Field{}, InfoFields...), ModuleFields...) {
		b, ok := l.Fields[field]
		if !ok {
			return fmt.Errorf("%w: no binding for field %q", entity.ErrTemplateInvalid, field)
		}
		if err := checkBinding(tables, b); err != nil {
			return fmt.Errorf("%w: field %q: %v", entity.ErrTemplateInvalid, field, err)
		}
	}

	if l.ProcessTable < 0 || l.ProcessTable >= len(tables) {
		return fmt.Errorf("%w: process table %d does not exist", entity.ErrTemplateInvalid, l.ProcessTable)
	}

	process := tables[l.ProcessTable]
	if l.ProcessHeaderRow >= process.RowCount() {
		return fmt.Errorf("%w: process table has %d rows, header row %d is missing",
			entity.ErrTemplateInvalid, process.RowCount(), l.ProcessHeaderRow)
	}
	if cols := process.ColumnCount(l.ProcessHeaderRow); cols < l.ProcessColumns {
		return fmt.Errorf("%w: process header row has %d columns, need %d",
			entity.ErrTemplateInvalid, cols, l.ProcessColumns)
	}

	homework := FindRowByKeyword(process, l.HomeworkKeyword)
	if homework < 0 {
		return fmt.Errorf("%w: process table has no %q row", entity.ErrTemplateInvalid, l.HomeworkKeyword)
	}
	if homework <= l.ProcessHeaderRow {
		return fmt.Errorf("%w: %q row %d is not below header row %d",
			entity.ErrTemplateInvalid, l.HomeworkKeyword, homework, l.ProcessHeaderRow)
	}
	// Homework and reflection rows close the table.
	last := process.RowCount() - 1
	if last-1 < homework || process.ColumnCount(last-1) < 2 || process.ColumnCount(last) < 2 {
		return fmt.Errorf("%w: process table must end with homework and reflection rows of two columns",
			entity.ErrTemplateInvalid)
	}

	return nil
}

func checkBinding(tables []Table, b Binding) error {
	if b.Table < 0 || b.Table >= len(tables) {
		return fmt.Errorf("%s: template has %d tables", b, len(tables))
	}

	t := tables[b.Table]
	if b.Row < 0 || b.Row >= t.RowCount() {
		return fmt.Errorf("%s: table has %d rows", b, t.RowCount())
	}
	if cols := t.ColumnCount(b.Row); b.Col < 0 || b.Col >= cols {
		return fmt.Errorf("%s: row has %d columns", b, cols)
	}

	return nil
}
