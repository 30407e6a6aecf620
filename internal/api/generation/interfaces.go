package generation

import (
	"context"

	"github.com/futig/lessonplan-backend/internal/entity"
)

type GenerationUsecase interface {
	GenerateLesson(ctx context.Context, req entity.GenerateRequest) (*entity.GenerationResult, error)
	BatchGenerate(ctx context.Context, req entity.BatchRequest) (*entity.BatchOutcome, error)
	ListGenerations(ctx context.Context, req *entity.ListGenerationsRequest) ([]*entity.GenerationRecord, error)
}

// ReferenceProvider resolves the documents uploaded for a lesson.
type ReferenceProvider interface {
	References(ctx context.Context, lessonID string) []entity.ReferenceDocument
}
