package entity

import "time"

type GenerationStatus string

// Status labels are the ones the web client renders.
const (
	GenerationStatusSuccess GenerationStatus = "成功"
	GenerationStatusFailure GenerationStatus = "失败"
)

type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatPDF      ResultFormat = "pdf"
)

func (f ResultFormat) IsValid() bool {
	switch f {
	case FormatMarkdown, FormatPDF:
		return true
	default:
		return false
	}
}

// GenerateRequest is one lesson to generate.
type GenerateRequest struct {
	SessionID     string
	Index         int
	Info          CourseInfo
	APIKey        string
	UseMock       bool
	ExportFormats []ResultFormat
}

// BatchRequest is a whole course: shared fixed fields plus one entry per lesson.
type BatchRequest struct {
	SessionID     string
	Fixed         CourseInfo
	Lessons       []CourseInfo
	APIKey        string
	UseMock       bool
	ExportFormats []ResultFormat
}

type ExportFile struct {
	Format   ResultFormat `json:"format"`
	FileName string       `json:"file_name"`
	FileURL  string       `json:"file_url"`
}

// DocumentOutcome describes a lesson plan written to disk.
type DocumentOutcome struct {
	FileName string
	Path     string
	// Degraded is set when the model never produced a usable plan and the
	// built-in sample plan was written instead.
	Degraded bool
	Exports  []ExportFile
}

type GenerationResult struct {
	Topic    string           `json:"topic"`
	Status   GenerationStatus `json:"status"`
	FileName string           `json:"file_name,omitempty"`
	FileURL  string           `json:"file_url,omitempty"`
	Degraded bool             `json:"degraded,omitempty"`
	Message  string           `json:"message,omitempty"`
	Exports  []ExportFile     `json:"exports,omitempty"`
}

func (r GenerationResult) Succeeded() bool {
	return r.Status == GenerationStatusSuccess
}

type BatchOutcome struct {
	Results      []GenerationResult
	AllSucceeded bool
}

// GenerationRecord is one row of generation history.
type GenerationRecord struct {
	ID          string           `json:"id"`
	SessionID   string           `json:"session_id"`
	LessonIndex int              `json:"lesson_index"`
	Topic       string           `json:"topic"`
	Status      GenerationStatus `json:"status"`
	FileName    string           `json:"file_name,omitempty"`
	Degraded    bool             `json:"degraded"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

type ListGenerationsRequest struct {
	Skip  int
	Limit int
}

func (lg *ListGenerationsRequest) Normalize() {
	if lg.Skip < 0 {
		lg.Skip = 0
	}
	if lg.Limit <= 0 {
		lg.Limit = 20
	}

	lg.Limit = min(lg.Limit, 100)
}
