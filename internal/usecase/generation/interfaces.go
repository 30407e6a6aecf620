package generation

import (
	"context"
	"time"

	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/futig/lessonplan-backend/internal/pkg/docx"
	"github.com/futig/lessonplan-backend/internal/pkg/formatter"
)

type LLMConnector interface {
	GenerateLessonPlan(ctx context.Context, apiKey string, info *entity.CourseInfo) (*entity.LessonPlan, error)
}

// LessonPlanDocument is an opened template being filled.
type LessonPlanDocument interface {
	FillContentInfo(info entity.CourseInfo) error
	FillModule(field docx.Field, text string) error
	FillProcessTable(steps []entity.ProcessStep, homework string) error
	Save(path string) error
	Close() error
}

// TemplateOpener loads a fresh copy of the lesson plan template.
type TemplateOpener func() (LessonPlanDocument, error)

// SessionStore receives progress and log lines of a browser session.
type SessionStore interface {
	UpdateSession(ctx context.Context, id string, update func(*entity.Session)) (*entity.Session, error)
	AppendLog(ctx context.Context, id string, entry entity.LogEntry)
	ClearLogs(ctx context.Context, id string)
}

type HistoryRepository interface {
	CreateGeneration(ctx context.Context, rec entity.GenerationRecord) (*entity.GenerationRecord, error)
	ListGenerations(ctx context.Context, skip, limit int) ([]*entity.GenerationRecord, error)
}

type FormatterFactory interface {
	Create(format entity.ResultFormat) (formatter.Formatter, error)
}

type Metrics interface {
	ObserveGeneration(outcome string, d time.Duration)
}
