package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// DocumentRepository keeps the reference documents uploaded for each lesson.
type DocumentRepository interface {
	AddDocument(ctx context.Context, doc *entity.UploadedDocument) error
	ListDocuments(ctx context.Context, lessonID string) ([]*entity.UploadedDocument, error)
	RemoveDocument(ctx context.Context, lessonID, filename string) (*entity.UploadedDocument, error)
}

var _ DocumentRepository = &DocumentMemory{}

// DocumentMemory implements DocumentRepository on a go-cache keyed by lesson
// id. Every access to a lesson refreshes its expiration; when a lesson
// expires its uploaded files are deleted from disk.
type DocumentMemory struct {
	mu     sync.Mutex
	items  *cache.Cache
	logger *zap.Logger
}

func NewDocumentMemory(ttl, cleanupInterval time.Duration, logger *zap.Logger) *DocumentMemory {
	s := &DocumentMemory{
		items:  cache.New(ttl, cleanupInterval),
		logger: logger,
	}

	s.items.OnEvicted(func(lessonID string, v any) {
		for _, doc := range v.([]*entity.UploadedDocument) {
			removeStoredFile(doc.StoredPath, s.logger)
		}
		s.logger.Debug("lesson documents evicted", zap.String("lesson_id", lessonID))
	})

	return s
}

func (s *DocumentMemory) AddDocument(_ context.Context, doc *entity.UploadedDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: document", entity.ErrMissingField)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.get(doc.LessonID)
	s.items.Set(doc.LessonID, append(slices.Clone(docs), doc), cache.DefaultExpiration)
	return nil
}

func (s *DocumentMemory) ListDocuments(_ context.Context, lessonID string) ([]*entity.UploadedDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.get(lessonID)
	if len(docs) > 0 {
		s.items.Set(lessonID, docs, cache.DefaultExpiration)
	}
	return slices.Clone(docs), nil
}

// RemoveDocument forgets the first document of the lesson with the given
// file name and returns it. The stored file is left to the caller.
func (s *DocumentMemory) RemoveDocument(
	_ context.Context,
	lessonID, filename string,
) (*entity.UploadedDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.get(lessonID)
	i := slices.IndexFunc(docs, func(d *entity.UploadedDocument) bool { return d.Filename == filename })
	if i < 0 {
		return nil, fmt.Errorf("%w: %s/%s", entity.ErrDocumentNotFound, lessonID, filename)
	}

	removed := docs[i]
	rest := slices.Delete(slices.Clone(docs), i, i+1)
	if len(rest) == 0 {
		// Set first so the eviction callback sees no files to delete.
		s.items.Set(lessonID, rest, cache.DefaultExpiration)
		s.items.Delete(lessonID)
	} else {
		s.items.Set(lessonID, rest, cache.DefaultExpiration)
	}

	return removed, nil
}

func (s *DocumentMemory) get(lessonID string) []*entity.UploadedDocument {
	if v, ok := s.items.Get(lessonID); ok {
		return v.([]*entity.UploadedDocument)
	}
	return nil
}

func removeStoredFile(path string, logger *zap.Logger) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("remove uploaded file", zap.String("path", path), zap.Error(err))
	}
}
