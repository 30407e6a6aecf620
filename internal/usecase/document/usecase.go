package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/futig/lessonplan-backend/internal/pkg/extractor"
	"github.com/futig/lessonplan-backend/internal/pkg/validator"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	summaryLength  = 500
	uploadTimeText = "2006-01-02 15:04:05"
)

// DocumentUsecase stores reference documents per lesson and extracts their
// text for the prompt.
type DocumentUsecase struct {
	uploadDir string
	repo      DocumentRepository
	extractor TextExtractor
	metrics   Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewUsecase(
	uploadDir string,
	repo DocumentRepository,
	textExtractor TextExtractor,
	recorder Metrics,
	logger *zap.Logger,
) *DocumentUsecase {
	return &DocumentUsecase{
		uploadDir: uploadDir,
		repo:      repo,
		extractor: textExtractor,
		metrics:   recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// UploadDocument saves the file as {lesson_id}_{unix}_{name}, extracts its
// text and attaches it to the lesson. When no text can be extracted the
// stored file is removed again.
func (uc *DocumentUsecase) UploadDocument(
	ctx context.Context,
	req *entity.UploadDocumentRequest,
) (doc *entity.UploadedDocument, err error) {
	defer func() { uc.observe(err == nil) }()

	displayName := filepath.Base(strings.ReplaceAll(req.Filename, `\`, "/"))
	if !extractor.IsSupported(filepath.Ext(displayName)) {
		return nil, fmt.Errorf("%w: %s", entity.ErrInvalidExtension, filepath.Ext(displayName))
	}

	if err := os.MkdirAll(uc.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	now := uc.now()
	storedName := fmt.Sprintf("%s_%d_%s",
		validator.SanitizeFilename(req.LessonID), now.Unix(), validator.SanitizeFilename(displayName))
	storedPath := filepath.Join(uc.uploadDir, storedName)

	size, err := saveFile(storedPath, req.File)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	ctxzap.Info(ctx, "document uploaded", zap.String("path", storedPath), zap.Int64("size", size))

	content, err := uc.extractor.Extract(ctx, storedPath)
	if err != nil {
		if rmErr := os.Remove(storedPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			ctxzap.Warn(ctx, "remove rejected upload", zap.String("path", storedPath), zap.Error(rmErr))
		}
		return nil, err
	}

	doc = &entity.UploadedDocument{
		LessonID:       req.LessonID,
		Filename:       displayName,
		StoredPath:     storedPath,
		Content:        content,
		ContentSummary: extractor.Summary(content, summaryLength),
		FileSize:       size,
		UploadTime:     now,
		UploadTimeText: now.Format(uploadTimeText),
	}

	if err := uc.repo.AddDocument(ctx, doc); err != nil {
		os.Remove(storedPath)
		return nil, fmt.Errorf("add document: %w", err)
	}

	ctxzap.Info(ctx, "document content extracted",
		zap.String("lesson_id", req.LessonID),
		zap.Int("runes", len([]rune(content))),
	)

	return doc, nil
}

func (uc *DocumentUsecase) ListDocuments(ctx context.Context, lessonID string) ([]*entity.UploadedDocument, error) {
	docs, err := uc.repo.ListDocuments(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument detaches the document from the lesson and removes the
// stored file.
func (uc *DocumentUsecase) DeleteDocument(ctx context.Context, lessonID, filename string) error {
	doc, err := uc.repo.RemoveDocument(ctx, lessonID, filename)
	if err != nil {
		return err
	}

	if err := os.Remove(doc.StoredPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		ctxzap.Warn(ctx, "remove stored document", zap.String("path", doc.StoredPath), zap.Error(err))
	}

	ctxzap.Info(ctx, "document deleted", zap.String("lesson_id", lessonID), zap.String("filename", filename))
	return nil
}

// References returns the extracted text of every document of the lesson,
// in upload order.
func (uc *DocumentUsecase) References(ctx context.Context, lessonID string) []entity.ReferenceDocument {
	if lessonID == "" {
		return nil
	}

	docs, err := uc.repo.ListDocuments(ctx, lessonID)
	if err != nil {
		ctxzap.Warn(ctx, "load lesson documents", zap.String("lesson_id", lessonID), zap.Error(err))
		return nil
	}

	refs := make([]entity.ReferenceDocument, 0, len(docs))
	for _, d := range docs {
		refs = append(refs, d.Reference())
	}
	return refs
}

func (uc *DocumentUsecase) observe(ok bool) {
	if uc.metrics != nil {
		uc.metrics.ObserveUpload(ok)
	}
}

func saveFile(path string, src io.Reader) (int64, error) {
	dst, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return n, nil
}
