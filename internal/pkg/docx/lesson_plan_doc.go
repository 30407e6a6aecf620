package docx

import (
	"fmt"

	"github.com/futig/lessonplan-backend/internal/entity"
)

// persister saves and releases the underlying document.
type persister interface {
	SaveToFile(path string) error
	Close() error
}

// LessonPlanDoc fills a lesson plan template.
type LessonPlanDoc struct {
	tables []Table
	layout Layout
	doc    persister
}

// NewLessonPlanDoc wraps already loaded tables. The layout is validated
// against them before anything is written.
func NewLessonPlanDoc(tables []Table, layout Layout, doc persister) (*LessonPlanDoc, error) {
	if err := layout.Validate(tables); err != nil {
		return nil, err
	}

	return &LessonPlanDoc{
		tables: tables,
		layout: layout,
		doc:    doc,
	}, nil
}

// FillContentInfo writes the course fields of the content table. Missing
// values become empty cells.
func (d *LessonPlanDoc) FillContentInfo(info entity.CourseInfo) error {
	values := map[Field]string{
		FieldTopic:       info.Topic,
		FieldClass:       info.Class,
		FieldLocation:    info.Location,
		FieldTime:        info.Time,
		FieldDuration:    info.Duration,
		FieldSessionType: info.SessionType,
	}

	for _, field := range InfoFields {
		if err := d.FillModule(field, values[field]); err != nil {
			return err
		}
	}

	return nil
}

// FillModule writes text into the cell bound to field.
func (d *LessonPlanDoc) FillModule(field Field, text string) error {
	b, ok := d.layout.Fields[field]
	if !ok {
		return fmt.Errorf("%w: unknown field %q", entity.ErrDocumentFill, field)
	}

	return d.setText(b.Table, b.Row, b.Col, text)
}

// FillContentModule writes text into column 1 of the given content table row.
func (d *LessonPlanDoc) FillContentModule(row int, text string) error {
	return d.setText(d.layout.ContentTable, row, 1, text)
}

// FillProcessTable replaces the step rows between the header and the
// homework row with one row per step, then writes the homework text and
// blanks the reflection row.
func (d *LessonPlanDoc) FillProcessTable(steps []entity.ProcessStep, homework string) error {
	t := d.tables[d.layout.ProcessTable]
	header := d.layout.ProcessHeaderRow

	homeworkRow := FindRowByKeyword(t, d.layout.HomeworkKeyword)
	if homeworkRow <= header {
		return fmt.Errorf("%w: %q row not found below header", entity.ErrDocumentFill, d.layout.HomeworkKeyword)
	}

	for row := homeworkRow - 1; row > header; row-- {
		if err := t.DeleteRow(row); err != nil {
			return fmt.Errorf("%w: delete process row %d: %v", entity.ErrDocumentFill, row, err)
		}
	}

	for i, step := range steps {
		after := header + i
		if err := t.InsertRowAfter(after, header); err != nil {
			return fmt.Errorf("%w: insert process row after %d: %v", entity.ErrDocumentFill, after, err)
		}

		row := after + 1
		cells := []string{
			fmt.Sprintf("%s（%s）", step.Phase, step.Minutes),
			step.Content.String(),
			step.TeacherActivity.String(),
			step.StudentActivity.String(),
		}
		for col, text := range cells {
			if err := d.setText(d.layout.ProcessTable, row, col, text); err != nil {
				return err
			}
		}
	}

	rows := t.RowCount()
	if err := d.setText(d.layout.ProcessTable, rows-2, 1, homework); err != nil {
		return err
	}

	return d.setText(d.layout.ProcessTable, rows-1, 1, "")
}

// Save writes the filled document to path.
func (d *LessonPlanDoc) Save(path string) error {
	if err := d.doc.SaveToFile(path); err != nil {
		return fmt.Errorf("%w: %s: %v", entity.ErrDocumentSave, path, err)
	}
	return nil
}

// Close releases resources held by the document.
func (d *LessonPlanDoc) Close() error {
	return d.doc.Close()
}

func (d *LessonPlanDoc) setText(table, row, col int, text string) error {
	if table < 0 || table >= len(d.tables) {
		return fmt.Errorf("%w: table %d does not exist", entity.ErrDocumentFill, table)
	}

	cell, err := d.tables[table].Cell(row, col)
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrDocumentFill, err)
	}

	SetCellText(cell, text)
	return nil
}
