package entity

import "strings"

const DefaultDocumentName = "未命名文档"

// CourseInfo describes one lesson. Keys follow the field names used by the
// web client, which are also the labels printed in the lesson plan template.
type CourseInfo struct {
	Department  string              `json:"院系,omitempty"`
	Topic       string              `json:"课题名称,omitempty"`
	Class       string              `json:"授课班级,omitempty"`
	Major       string              `json:"专业名称,omitempty"`
	Course      string              `json:"课程名称,omitempty"`
	Duration    string              `json:"授课学时,omitempty"`
	Teacher     string              `json:"授课教师,omitempty"`
	Location    string              `json:"授课地点,omitempty"`
	Time        string              `json:"授课时间,omitempty"`
	SessionType string              `json:"授课类型,omitempty"`
	Description string              `json:"用户描述,omitempty"`
	References  []ReferenceDocument `json:"参考文档,omitempty"`
}

// ReferenceDocument is extracted text of a file uploaded for a lesson.
type ReferenceDocument struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// DisplayName returns the file name or a placeholder for unnamed documents.
func (d ReferenceDocument) DisplayName() string {
	if strings.TrimSpace(d.Filename) == "" {
		return DefaultDocumentName
	}
	return d.Filename
}

// Merge returns a copy of c where every non-empty field of override wins.
// Neither c nor override is modified.
func (c CourseInfo) Merge(override CourseInfo) CourseInfo {
	merged := c
	pick := func(dst *string, src string) {
		if strings.TrimSpace(src) != "" {
			*dst = src
		}
	}

	pick(&merged.Department, override.Department)
	pick(&merged.Topic, override.Topic)
	pick(&merged.Class, override.Class)
	pick(&merged.Major, override.Major)
	pick(&merged.Course, override.Course)
	pick(&merged.Duration, override.Duration)
	pick(&merged.Teacher, override.Teacher)
	pick(&merged.Location, override.Location)
	pick(&merged.Time, override.Time)
	pick(&merged.SessionType, override.SessionType)
	pick(&merged.Description, override.Description)

	if len(override.References) > 0 {
		merged.References = append([]ReferenceDocument(nil), override.References...)
	} else if len(c.References) > 0 {
		merged.References = append([]ReferenceDocument(nil), c.References...)
	}

	return merged
}

// LessonInput is one lesson of a batch as sent by the web client: the
// variable course fields plus the client-side lesson id used to look up
// uploaded reference documents.
type LessonInput struct {
	CourseInfo
	ID        LessonID       `json:"id,omitempty"`
	Documents []DocumentName `json:"documents,omitempty"`
}

// DocumentName is the client's view of an uploaded document. It carries no
// content; content is resolved server-side by lesson id.
type DocumentName struct {
	Filename string `json:"filename"`
}

var unsafeFileNameChars = strings.NewReplacer(
	`\`, "-", "/", "-", ":", "-", "*", "-", "?", "-", `"`, "-", "<", "-", ">", "-", "|", "-",
)

// SafeTopic makes a topic usable as part of a file name.
func SafeTopic(topic string) string {
	return unsafeFileNameChars.Replace(topic)
}
