package entity

import (
	"io"
	"time"
)

type SessionStatus string

const (
	SessionStatusIdle       SessionStatus = "idle"
	SessionStatusGenerating SessionStatus = "generating"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusFailed     SessionStatus = "failed"
)

// Session correlates one browser session with generation progress and logs.
type Session struct {
	ID           string             `json:"session_id"`
	Status       SessionStatus      `json:"status"`
	Progress     int                `json:"progress"`
	CurrentTopic string             `json:"current_topic,omitempty"`
	Results      []GenerationResult `json:"results"`
	Logs         []LogEntry         `json:"logs,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// LogEntry is one line of generation log delivered to the browser.
type LogEntry struct {
	Time    string `json:"time"`
	Level   string `json:"level,omitempty"`
	Message string `json:"message"`
}

// UploadedDocument is a reference file attached to a lesson.
type UploadedDocument struct {
	LessonID       string    `json:"-"`
	Filename       string    `json:"filename"`
	StoredPath     string    `json:"-"`
	Content        string    `json:"-"`
	ContentSummary string    `json:"content_summary"`
	FileSize       int64     `json:"file_size"`
	UploadTime     time.Time `json:"-"`
	UploadTimeText string    `json:"upload_time"`
}

func (d *UploadedDocument) Reference() ReferenceDocument {
	return ReferenceDocument{Filename: d.Filename, Content: d.Content}
}

// UploadDocumentRequest is a reference file received for a lesson.
type UploadDocumentRequest struct {
	LessonID string
	Filename string
	File     io.Reader
}
