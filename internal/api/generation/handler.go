package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/futig/lessonplan-backend/internal/api/middleware"
	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/futig/lessonplan-backend/internal/pkg/logger"
	"github.com/futig/lessonplan-backend/internal/pkg/response"
	"github.com/futig/lessonplan-backend/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	msgMissingAPIKey = "未提供DeepSeek API Key，请输入您的API Key"
	msgInvalidAPIKey = "DeepSeek API Key无效或已过期，请检查您的API Key是否正确"
)

type Handler struct {
	usecase    GenerationUsecase
	references ReferenceProvider
	validator  *validator.Validator
	defaults   entity.CourseInfo
}

func NewHandler(
	usecase GenerationUsecase,
	references ReferenceProvider,
	validator *validator.Validator,
	defaults entity.CourseInfo,
) *Handler {
	return &Handler{
		usecase:    usecase,
		references: references,
		validator:  validator,
		defaults:   defaults,
	}
}

// GenerateLesson handles POST /api/generate - Generate one lesson plan
func (h *Handler) GenerateLesson(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GenerateLesson")

	var req entity.GenerateLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "无效的请求数据", err)
		return
	}

	if err := h.validator.ValidateGenerate(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "请求参数错误: "+err.Error(), err)
		return
	}

	sessionID := h.sessionID(w, r)
	ctx = logger.AddFields(ctx, zap.String("session_id", sessionID))

	index := max(req.LessonIndex, 1)
	lesson := *req.VariableCourseInfo
	lessonID := string(lesson.ID)
	if lessonID == "" {
		lessonID = strconv.Itoa(index)
	}

	info := h.defaults.Merge(req.FixedCourseInfo).Merge(lesson.CourseInfo)
	info.References = h.references.References(ctx, lessonID)
	if len(info.References) == 0 && len(lesson.Documents) > 0 {
		ctxzap.Warn(ctx, "client listed documents without uploaded content",
			zap.String("lesson_id", lessonID),
			zap.Int("documents", len(lesson.Documents)),
		)
	}

	ctxzap.Info(ctx, "generating lesson plan",
		zap.Int("lesson_index", index),
		zap.String("topic", info.Topic),
		zap.Int("references", len(info.References)),
	)

	// Generation outlives a closed browser tab; the session keeps the outcome.
	result, err := h.usecase.GenerateLesson(context.WithoutCancel(ctx), entity.GenerateRequest{
		SessionID:     sessionID,
		Index:         index,
		Info:          info,
		APIKey:        req.APIKey,
		UseMock:       req.UseMock,
		ExportFormats: req.ExportFormats,
	})
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	resp := entity.GenerateLessonResponse{
		Success: result.Succeeded(),
		Result:  result,
	}
	if !resp.Success {
		resp.Message = result.Message
	}

	response.Success(w, resp)
}

// BatchGenerate handles POST /api/batch-generate - Generate every lesson of a course
func (h *Handler) BatchGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "BatchGenerate")

	var req entity.BatchGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "无效的请求数据", err)
		return
	}

	if err := h.validator.ValidateBatch(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "请求参数错误: "+err.Error(), err)
		return
	}

	sessionID := h.sessionID(w, r)
	ctx = logger.AddFields(ctx, zap.String("session_id", sessionID))

	lessons := make([]entity.CourseInfo, 0, len(req.VariableCourseInfos))
	for i, lesson := range req.VariableCourseInfos {
		lessonID := string(lesson.ID)
		if lessonID == "" {
			lessonID = strconv.Itoa(i + 1)
		}

		info := lesson.CourseInfo
		info.References = h.references.References(ctx, lessonID)
		lessons = append(lessons, info)
	}

	ctxzap.Info(ctx, "generating course", zap.Int("lessons", len(lessons)))

	outcome, err := h.usecase.BatchGenerate(context.WithoutCancel(ctx), entity.BatchRequest{
		SessionID:     sessionID,
		Fixed:         h.defaults.Merge(req.FixedCourseInfo),
		Lessons:       lessons,
		APIKey:        req.APIKey,
		UseMock:       req.UseMock,
		ExportFormats: req.ExportFormats,
	})
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, entity.BatchGenerateResponse{
		Success: outcome.AllSucceeded,
		Results: outcome.Results,
	})
}

// ListGenerations handles GET /api/generations - Generation history
func (h *Handler) ListGenerations(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListGenerations")

	req := &entity.ListGenerationsRequest{}
	if v := r.URL.Query().Get("skip"); v != "" {
		skip, err := strconv.Atoi(v)
		if err != nil {
			h.respondError(ctx, w, http.StatusBadRequest, "invalid skip parameter", err)
			return
		}
		req.Skip = skip
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			h.respondError(ctx, w, http.StatusBadRequest, "invalid limit parameter", err)
			return
		}
		req.Limit = limit
	}

	records, err := h.usecase.ListGenerations(ctx, req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, entity.ListGenerationsResponse{
		Success:     true,
		Generations: records,
	})
}

// sessionID returns the client's session id, minting one when the header
// is absent. The id is echoed back so the client can follow the logs.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(middleware.SessionHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(middleware.SessionHeader, id)
	return id
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
	case errors.Is(err, entity.ErrMissingAPIKey):
		ctxzap.Warn(ctx, "request without api key")
		response.TypedError(w, http.StatusBadRequest, entity.ErrorTypeMissingAPIKey, msgMissingAPIKey)
	case errors.Is(err, entity.ErrInvalidAPIKey):
		ctxzap.Warn(ctx, "api key rejected", zap.Error(err))
		response.TypedError(w, http.StatusUnauthorized, entity.ErrorTypeInvalidAPIKey, msgInvalidAPIKey)
	case errors.Is(err, entity.ErrMissingField), errors.Is(err, entity.ErrInvalidParameter), errors.Is(err, entity.ErrInvalidFormat):
		h.respondError(ctx, w, http.StatusBadRequest, "请求参数错误: "+err.Error(), err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "生成失败: "+err.Error(), err)
	}
}
