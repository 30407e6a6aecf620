package generation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/futig/lessonplan-backend/internal/integration/llm"
	"github.com/futig/lessonplan-backend/internal/metrics"
	"github.com/futig/lessonplan-backend/internal/pkg/docx"
	"github.com/futig/lessonplan-backend/internal/pkg/logger"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the paths and switches the generator needs.
type Config struct {
	OutputDir     string
	DownloadRoute string
	// EnableMocks forces the sample plan for every request.
	EnableMocks bool
	// HasDefaultAPIKey is set when the LLM connector carries a configured key.
	HasDefaultAPIKey bool
}

// GenerationUsecase turns course information into filled lesson plan
// documents.
type GenerationUsecase struct {
	cfg          Config
	llm          LLMConnector
	mock         LLMConnector
	openTemplate TemplateOpener
	sessions     SessionStore
	history      HistoryRepository
	formatters   FormatterFactory
	metrics      Metrics
	logger       *zap.Logger
	now          func() time.Time
}

func NewUsecase(
	cfg Config,
	llmConnector LLMConnector,
	mockConnector LLMConnector,
	openTemplate TemplateOpener,
	sessions SessionStore,
	history HistoryRepository,
	formatters FormatterFactory,
	recorder Metrics,
	logger *zap.Logger,
) *GenerationUsecase {
	return &GenerationUsecase{
		cfg:          cfg,
		llm:          llmConnector,
		mock:         mockConnector,
		openTemplate: openTemplate,
		sessions:     sessions,
		history:      history,
		formatters:   formatters,
		metrics:      recorder,
		logger:       logger,
		now:          time.Now,
	}
}

// CheckAPIKey fails with ErrMissingAPIKey when a model call would have no
// key to send.
func (uc *GenerationUsecase) CheckAPIKey(apiKey string, useMock bool) error {
	if useMock || uc.cfg.EnableMocks || uc.cfg.HasDefaultAPIKey || strings.TrimSpace(apiKey) != "" {
		return nil
	}
	return entity.ErrMissingAPIKey
}

// GenerateLessonPlanDoc writes the lesson plan of req.Info to the output
// directory. The template is opened before the model is asked, so a broken
// template costs no tokens. A rejected key returns ErrInvalidAPIKey without
// writing anything; when the model never produces a usable plan the sample
// plan is written and the outcome is marked degraded.
func (uc *GenerationUsecase) GenerateLessonPlanDoc(
	ctx context.Context,
	req entity.GenerateRequest,
) (*entity.DocumentOutcome, error) {
	index := max(req.Index, 1)
	topic := LessonTopic(req.Info, index)
	fileName := OutputFileName(index, topic)

	ctx = logger.AddFields(ctx,
		zap.Int("lesson_index", index),
		zap.String("topic", topic),
	)
	info := req.Info
	info.Topic = topic

	ctxzap.Info(ctx, "开始生成教案",
		zap.String("class", info.Class),
		zap.String("major", info.Major),
		zap.String("course", info.Course),
		zap.String("teacher", info.Teacher),
	)

	doc, err := uc.openTemplate()
	if err != nil {
		ctxzap.Error(ctx, "打开模板失败", zap.Error(err))
		return nil, err
	}
	defer doc.Close()

	plan, degraded, err := uc.lessonPlan(ctx, req, &info)
	if err != nil {
		return nil, err
	}
	plan = plainPlan(plan)

	if err := uc.fill(ctx, doc, info, plan); err != nil {
		ctxzap.Error(ctx, "填充教案失败", zap.Error(err))
		return nil, err
	}

	outPath := filepath.Join(uc.cfg.OutputDir, fileName)
	if err := os.MkdirAll(uc.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create output dir: %v", entity.ErrDocumentSave, err)
	}
	if err := doc.Save(outPath); err != nil {
		ctxzap.Error(ctx, "保存教案失败", zap.Error(err))
		return nil, err
	}

	ctxzap.Info(ctx, "教案保存成功", zap.String("file", fileName), zap.Bool("degraded", degraded))

	return &entity.DocumentOutcome{
		FileName: fileName,
		Path:     outPath,
		Degraded: degraded,
		Exports:  uc.export(ctx, topic, fileName, plan, req.ExportFormats),
	}, nil
}

func (uc *GenerationUsecase) lessonPlan(
	ctx context.Context,
	req entity.GenerateRequest,
	info *entity.CourseInfo,
) (*entity.LessonPlan, bool, error) {
	if req.UseMock || uc.cfg.EnableMocks {
		ctxzap.Info(ctx, "生成模式: 本地模拟数据")
		plan, err := uc.mock.GenerateLessonPlan(ctx, req.APIKey, info)
		return plan, false, err
	}

	ctxzap.Info(ctx, "生成模式: 大模型实时生成", zap.Int("references", len(info.References)))
	plan, err := uc.llm.GenerateLessonPlan(ctx, req.APIKey, info)
	switch {
	case err == nil:
		return plan, false, nil
	case errors.Is(err, entity.ErrGenerationExhausted):
		ctxzap.Warn(ctx, "大模型调用失败，使用默认数据", zap.Error(err))
		return llm.MockLessonPlan(), true, nil
	default:
		return nil, false, err
	}
}

func (uc *GenerationUsecase) fill(
	ctx context.Context,
	doc LessonPlanDocument,
	info entity.CourseInfo,
	plan *entity.LessonPlan,
) error {
	if err := doc.FillContentInfo(info); err != nil {
		return err
	}

	modules := []struct {
		field docx.Field
		name  string
		text  string
	}{
		{docx.FieldAnalysis, "教学内容及学情分析", FormatAnalysis(plan.Analysis)},
		{docx.FieldObjectives, "教学目标", FormatObjectives(plan.Objectives)},
		{docx.FieldKeyPoints, "教学重点", FormatList(plan.KeyPoints)},
		{docx.FieldDifficulties, "教学难点", FormatList(plan.Difficulties)},
		{docx.FieldMethods, "教学方法与教学资源", FormatMethods(plan.Methods)},
		{docx.FieldIdeology, "思政元素", FormatList(plan.Ideology)},
	}
	for _, m := range modules {
		if err := doc.FillModule(m.field, m.text); err != nil {
			return err
		}
		ctxzap.Debug(ctx, "模块已填充", zap.String("module", m.name))
	}

	ctxzap.Info(ctx, "填充教学实施过程", zap.Int("steps", len(plan.Process)))
	return doc.FillProcessTable(plan.Process, FormatHomework(plan.Homework))
}

// export writes the requested extra renderings next to the document.
// Failures are logged and the format skipped.
func (uc *GenerationUsecase) export(
	ctx context.Context,
	topic, fileName string,
	plan *entity.LessonPlan,
	formats []entity.ResultFormat,
) []entity.ExportFile {
	if len(formats) == 0 {
		return nil
	}

	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	doc := planDocument(topic, plan)

	var exports []entity.ExportFile
	for _, format := range formats {
		f, err := uc.formatters.Create(format)
		if err != nil {
			ctxzap.Warn(ctx, "export format skipped", zap.String("format", string(format)), zap.Error(err))
			continue
		}

		data, err := f.Format(doc)
		if err != nil {
			ctxzap.Warn(ctx, "export failed", zap.String("format", string(format)), zap.Error(err))
			continue
		}

		name := base + f.FileExtension()
		if err := os.WriteFile(filepath.Join(uc.cfg.OutputDir, name), data, 0o644); err != nil {
			ctxzap.Warn(ctx, "write export", zap.String("file", name), zap.Error(err))
			continue
		}

		exports = append(exports, entity.ExportFile{
			Format:   format,
			FileName: name,
			FileURL:  uc.downloadURL(name),
		})
	}

	return exports
}

// GenerateLesson runs one lesson for a browser session: progress and log
// lines go to the session, the outcome to history. Document failures come
// back as a failed result; only a missing or rejected key and unexpected
// errors are returned as errors.
func (uc *GenerationUsecase) GenerateLesson(
	ctx context.Context,
	req entity.GenerateRequest,
) (*entity.GenerationResult, error) {
	if err := uc.CheckAPIKey(req.APIKey, req.UseMock); err != nil {
		return nil, err
	}

	ctx = uc.startSession(ctx, req.SessionID)
	index := max(req.Index, 1)
	topic := LessonTopic(req.Info, index)

	uc.updateSession(ctx, req.SessionID, func(s *entity.Session) {
		s.Status = entity.SessionStatusGenerating
		s.Progress = 0
		s.CurrentTopic = topic
		s.Results = []entity.GenerationResult{}
	})

	result, err := uc.generateOne(ctx, req)
	if err != nil {
		uc.updateSession(ctx, req.SessionID, func(s *entity.Session) {
			s.Status = entity.SessionStatusFailed
			s.CurrentTopic = ""
		})
		return nil, err
	}

	uc.updateSession(ctx, req.SessionID, func(s *entity.Session) {
		s.Status = entity.SessionStatusCompleted
		if !result.Succeeded() {
			s.Status = entity.SessionStatusFailed
		}
		s.Progress = 100
		s.CurrentTopic = ""
		s.Results = []entity.GenerationResult{*result}
	})

	return result, nil
}

// generateOne produces the result of one lesson and records it. Document
// errors are folded into a failed result.
func (uc *GenerationUsecase) generateOne(
	ctx context.Context,
	req entity.GenerateRequest,
) (*entity.GenerationResult, error) {
	start := uc.now()
	index := max(req.Index, 1)
	topic := LessonTopic(req.Info, index)

	outcome, err := uc.GenerateLessonPlanDoc(ctx, req)
	switch {
	case err == nil:
	case errors.Is(err, entity.ErrTemplateInvalid),
		errors.Is(err, entity.ErrDocumentFill),
		errors.Is(err, entity.ErrDocumentSave):
		result := &entity.GenerationResult{
			Topic:   topic,
			Status:  entity.GenerationStatusFailure,
			Message: "文件未生成",
		}
		uc.observe(metrics.OutcomeFailure, start)
		uc.record(ctx, req, result, err)
		return result, nil
	default:
		uc.observe(metrics.OutcomeFailure, start)
		if !errors.Is(err, entity.ErrInvalidAPIKey) {
			uc.record(ctx, req, &entity.GenerationResult{Topic: topic, Status: entity.GenerationStatusFailure}, err)
		}
		return nil, err
	}

	result := &entity.GenerationResult{
		Topic:    topic,
		Status:   entity.GenerationStatusSuccess,
		FileName: outcome.FileName,
		FileURL:  uc.downloadURL(outcome.FileName),
		Degraded: outcome.Degraded,
		Exports:  outcome.Exports,
	}

	if outcome.Degraded {
		uc.observe(metrics.OutcomeDegraded, start)
	} else {
		uc.observe(metrics.OutcomeSuccess, start)
	}
	uc.record(ctx, req, result, nil)

	return result, nil
}

// ListGenerations returns generation history, newest first.
func (uc *GenerationUsecase) ListGenerations(
	ctx context.Context,
	req *entity.ListGenerationsRequest,
) ([]*entity.GenerationRecord, error) {
	req.Normalize()

	records, err := uc.history.ListGenerations(ctx, req.Skip, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	return records, nil
}

func (uc *GenerationUsecase) record(
	ctx context.Context,
	req entity.GenerateRequest,
	result *entity.GenerationResult,
	genErr error,
) {
	rec := entity.GenerationRecord{
		ID:          uuid.New().String(),
		SessionID:   req.SessionID,
		LessonIndex: max(req.Index, 1),
		Topic:       result.Topic,
		Status:      result.Status,
		FileName:    result.FileName,
		Degraded:    result.Degraded,
		CreatedAt:   uc.now(),
	}
	if genErr != nil {
		rec.Error = genErr.Error()
	}

	if _, err := uc.history.CreateGeneration(context.WithoutCancel(ctx), rec); err != nil {
		ctxzap.Warn(ctx, "failed to record generation", zap.Error(err))
	}
}

func (uc *GenerationUsecase) observe(outcome string, start time.Time) {
	if uc.metrics != nil {
		uc.metrics.ObserveGeneration(outcome, uc.now().Sub(start))
	}
}

func (uc *GenerationUsecase) downloadURL(fileName string) string {
	return path.Join("/", uc.cfg.DownloadRoute, fileName)
}

// startSession clears the session's previous log lines and returns a
// context whose logger also feeds the session log.
func (uc *GenerationUsecase) startSession(ctx context.Context, sessionID string) context.Context {
	if sessionID == "" || uc.sessions == nil {
		return ctx
	}

	uc.sessions.ClearLogs(ctx, sessionID)
	ctx = logger.AddFields(ctx, zap.String("session_id", sessionID))

	store := uc.sessions
	return logger.WithSessionSink(ctx, zapcore.InfoLevel, func(entry entity.LogEntry) {
		store.AppendLog(context.Background(), sessionID, entry)
	})
}

func (uc *GenerationUsecase) updateSession(ctx context.Context, sessionID string, update func(*entity.Session)) {
	if sessionID == "" || uc.sessions == nil {
		return
	}
	if _, err := uc.sessions.UpdateSession(ctx, sessionID, update); err != nil {
		uc.logger.Warn("failed to update session", zap.String("session_id", sessionID), zap.Error(err))
	}
}
