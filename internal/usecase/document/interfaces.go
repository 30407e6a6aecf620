package document

import (
	"context"

	"github.com/futig/lessonplan-backend/internal/entity"
)

type DocumentRepository interface {
	AddDocument(ctx context.Context, doc *entity.UploadedDocument) error
	ListDocuments(ctx context.Context, lessonID string) ([]*entity.UploadedDocument, error)
	RemoveDocument(ctx context.Context, lessonID, filename string) (*entity.UploadedDocument, error)
}

// TextExtractor returns the plain text of a stored file.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

type Metrics interface {
	ObserveUpload(ok bool)
}
