package document

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/futig/lessonplan-backend/internal/pkg/logger"
	"github.com/futig/lessonplan-backend/internal/pkg/response"
	"github.com/futig/lessonplan-backend/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	msgUploaded         = "文档上传成功"
	msgExtractionFailed = "无法提取文档内容，请检查文件格式是否正确"
	msgNotFound         = "文档不存在"
)

type Handler struct {
	usecase       DocumentUsecase
	validator     *validator.Validator
	maxUploadSize int64
}

func NewHandler(usecase DocumentUsecase, validator *validator.Validator, maxUploadSize int64) *Handler {
	return &Handler{
		usecase:       usecase,
		validator:     validator,
		maxUploadSize: maxUploadSize,
	}
}

// UploadDocument handles POST /api/upload-document - Attach a reference file to a lesson
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "UploadDocument")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "无法解析上传内容", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	lessonID := strings.TrimSpace(r.FormValue("lesson_id"))
	if lessonID == "" {
		h.respondError(ctx, w, http.StatusBadRequest, "缺少课时ID", nil)
		return
	}
	ctx = logger.AddFields(ctx, zap.String("lesson_id", lessonID))

	file, fh, err := r.FormFile("file")
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "没有上传文件", err)
		return
	}
	defer file.Close()

	if err := h.validator.ValidateUpload(fh); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "文件校验失败: "+err.Error(), err)
		return
	}

	doc, err := h.usecase.UploadDocument(ctx, &entity.UploadDocumentRequest{
		LessonID: lessonID,
		Filename: fh.Filename,
		File:     file,
	})
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, entity.UploadDocumentResponse{
		Success:  true,
		Message:  msgUploaded,
		Document: doc,
	})
}

// ListDocuments handles GET /api/documents/{lesson_id} - Documents of a lesson
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lesson_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("lesson_id", lessonID),
		zap.String("action", "ListDocuments"),
	)

	docs, err := h.usecase.ListDocuments(ctx, lessonID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}
	if docs == nil {
		docs = []*entity.UploadedDocument{}
	}

	response.Success(w, entity.ListDocumentsResponse{
		Success:   true,
		Documents: docs,
	})
}

// DeleteDocument handles DELETE /api/documents/{lesson_id}/{filename} - Remove a document
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lesson_id")
	filename := chi.URLParam(r, "filename")
	ctx := logger.AddFields(r.Context(),
		zap.String("lesson_id", lessonID),
		zap.String("filename", filename),
		zap.String("action", "DeleteDocument"),
	)

	if err := h.usecase.DeleteDocument(ctx, lessonID, filename); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, map[string]any{
		"success": true,
		"message": "文档删除成功",
	})
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Error(ctx, message)
	}
	response.Error(w, status, message)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrDocumentNotFound):
		h.respondError(ctx, w, http.StatusNotFound, msgNotFound, err)
	case errors.Is(err, entity.ErrExtractionFailed), errors.Is(err, entity.ErrUnsupportedFormat):
		h.respondError(ctx, w, http.StatusBadRequest, msgExtractionFailed, err)
	case errors.Is(err, entity.ErrInvalidExtension), errors.Is(err, entity.ErrInvalidFile), errors.Is(err, entity.ErrFileTooLarge):
		h.respondError(ctx, w, http.StatusBadRequest, "文件校验失败: "+err.Error(), err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
