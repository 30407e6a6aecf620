package entity

// GenerateLessonRequest is the body of POST /api/generate.
type GenerateLessonRequest struct {
	FixedCourseInfo    CourseInfo     `json:"fixed_course_info"`
	VariableCourseInfo *LessonInput   `json:"variable_course_info"`
	LessonIndex        int            `json:"lesson_index"`
	APIKey             string         `json:"api_key"`
	UseMock            bool           `json:"use_mock"`
	ExportFormats      []ResultFormat `json:"export_formats,omitempty"`
}

// BatchGenerateRequest is the body of POST /api/batch-generate.
type BatchGenerateRequest struct {
	FixedCourseInfo     CourseInfo     `json:"fixed_course_info"`
	VariableCourseInfos []LessonInput  `json:"variable_course_infos"`
	APIKey              string         `json:"api_key"`
	UseMock             bool           `json:"use_mock"`
	ExportFormats       []ResultFormat `json:"export_formats,omitempty"`
}

type GenerateLessonResponse struct {
	Success bool              `json:"success"`
	Result  *GenerationResult `json:"result,omitempty"`
	Message string            `json:"message,omitempty"`
}

type BatchGenerateResponse struct {
	Success bool               `json:"success"`
	Results []GenerationResult `json:"results"`
	Message string             `json:"message,omitempty"`
}

type UploadDocumentResponse struct {
	Success  bool              `json:"success"`
	Message  string            `json:"message"`
	Document *UploadedDocument `json:"document,omitempty"`
}

type ListDocumentsResponse struct {
	Success   bool                `json:"success"`
	Documents []*UploadedDocument `json:"documents"`
}

type ListGenerationsResponse struct {
	Success     bool                `json:"success"`
	Generations []*GenerationRecord `json:"generations"`
}

type SessionLogsResponse struct {
	Success bool       `json:"success"`
	Logs    []LogEntry `json:"logs"`
}

// ErrorResponse is the failure envelope understood by the web client.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	ErrorType string `json:"error_type,omitempty"`
	Message   string `json:"message"`
}

// Error types reported to the web client.
const (
	ErrorTypeMissingAPIKey = "missing_api_key"
	ErrorTypeInvalidAPIKey = "invalid_api_key"
)
