package document

import (
	"context"

	"github.com/futig/lessonplan-backend/internal/entity"
)

type DocumentUsecase interface {
	UploadDocument(ctx context.Context, req *entity.UploadDocumentRequest) (*entity.UploadedDocument, error)
	ListDocuments(ctx context.Context, lessonID string) ([]*entity.UploadedDocument, error)
	DeleteDocument(ctx context.Context, lessonID, filename string) error
}
