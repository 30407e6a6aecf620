package generation

import (
	"context"
	"errors"

	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// BatchGenerate generates every lesson of a course in input order. Each
// lesson's fields are merged over the fixed ones. A failed lesson does not
// stop the batch, a rejected key does: the partial outcome is returned
// together with ErrInvalidAPIKey.
func (uc *GenerationUsecase) BatchGenerate(
	ctx context.Context,
	req entity.BatchRequest,
) (*entity.BatchOutcome, error) {
	if err := uc.CheckAPIKey(req.APIKey, req.UseMock); err != nil {
		return nil, err
	}
	if len(req.Lessons) == 0 {
		return nil, entity.ErrMissingField
	}

	ctx = uc.startSession(ctx, req.SessionID)
	total := len(req.Lessons)

	ctxzap.Info(ctx, "批量生成教案", zap.Int("lessons", total), zap.String("course", req.Fixed.Course))

	uc.updateSession(ctx, req.SessionID, func(s *entity.Session) {
		s.Status = entity.SessionStatusGenerating
		s.Progress = 0
		s.CurrentTopic = ""
		s.Results = []entity.GenerationResult{}
	})

	outcome := &entity.BatchOutcome{
		Results:      make([]entity.GenerationResult, 0, total),
		AllSucceeded: true,
	}

	for i, lesson := range req.Lessons {
		index := i + 1
		info := req.Fixed.Merge(lesson)
		topic := LessonTopic(info, index)

		ctxzap.Info(ctx, "开始生成课时", zap.Int("lesson", index), zap.Int("total", total), zap.String("topic", topic))
		uc.updateSession(ctx, req.SessionID, func(s *entity.Session) {
			s.CurrentTopic = topic
		})

		result, err := uc.generateOne(ctx, entity.GenerateRequest{
			SessionID:     req.SessionID,
			Index:         index,
			Info:          info,
			APIKey:        req.APIKey,
			UseMock:       req.UseMock,
			ExportFormats: req.ExportFormats,
		})
		if err != nil {
			if errors.Is(err, entity.ErrInvalidAPIKey) {
				ctxzap.Error(ctx, "API Key无效，停止批量生成", zap.Int("lesson", index))
				outcome.AllSucceeded = false
				uc.updateSession(ctx, req.SessionID, func(s *entity.Session) {
					s.Status = entity.SessionStatusFailed
					s.CurrentTopic = ""
				})
				return outcome, err
			}

			ctxzap.Error(ctx, "课时生成失败", zap.Int("lesson", index), zap.Error(err))
			result = &entity.GenerationResult{
				Topic:   topic,
				Status:  entity.GenerationStatusFailure,
				Message: "文件未生成",
			}
		}

		if !result.Succeeded() {
			outcome.AllSucceeded = false
		}
		outcome.Results = append(outcome.Results, *result)

		progress := index * 100 / total
		uc.updateSession(ctx, req.SessionID, func(s *entity.Session) {
			s.Progress = progress
			s.Results = append(s.Results, *result)
		})
	}

	ctxzap.Info(ctx, "批量生成完成",
		zap.Bool("all_succeeded", outcome.AllSucceeded),
		zap.Int("lessons", total),
		zap.String("output_dir", uc.cfg.OutputDir),
	)

	uc.updateSession(ctx, req.SessionID, func(s *entity.Session) {
		s.Status = entity.SessionStatusCompleted
		if !outcome.AllSucceeded {
			s.Status = entity.SessionStatusFailed
		}
		s.CurrentTopic = ""
	})

	return outcome, nil
}
