package repository

import (
	"context"
	"sync"

	"github.com/futig/lessonplan-backend/internal/entity"
)

var _ GenerationRepository = &GenerationMemory{}

// GenerationMemory keeps the latest records in a fixed-size ring. It serves
// history when no database is configured.
type GenerationMemory struct {
	mu      sync.Mutex
	records []entity.GenerationRecord
	next    int
	full    bool
}

func NewGenerationMemory(capacity int) *GenerationMemory {
	return &GenerationMemory{records: make([]entity.GenerationRecord, max(capacity, 1))}
}

func (r *GenerationMemory) CreateGeneration(
	_ context.Context,
	rec entity.GenerationRecord,
) (*entity.GenerationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[r.next] = rec
	r.next = (r.next + 1) % len(r.records)
	if r.next == 0 {
		r.full = true
	}

	return &rec, nil
}

// ListGenerations returns records newest first.
func (r *GenerationMemory) ListGenerations(_ context.Context, skip, limit int) ([]*entity.GenerationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		return []*entity.GenerationRecord{}, nil
	}
	skip = max(skip, 0)

	size := r.next
	if r.full {
		size = len(r.records)
	}

	out := make([]*entity.GenerationRecord, 0, min(limit, size))
	for i := skip; i < size && len(out) < limit; i++ {
		idx := (r.next - 1 - i + len(r.records)) % len(r.records)
		rec := r.records[idx]
		out = append(out, &rec)
	}

	return out, nil
}
