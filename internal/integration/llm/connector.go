package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/futig/lessonplan-backend/internal/config"
	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/futig/lessonplan-backend/internal/integration/common"
	"github.com/futig/lessonplan-backend/internal/pkg/llmjson"
	pkghttp "github.com/futig/lessonplan-backend/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MaxAttempts bounds the number of chat completions sent for one lesson.
const MaxAttempts = 5

var errEmptyChoices = errors.New("chat completion returned no choices")

type Connector struct {
	config    config.LLMConnectorConfig
	connector *pkghttp.Connector
	recorder  *PromptRecorder
	logger    *zap.Logger
}

func NewConnector(
	cfg config.LLMConnectorConfig,
	recorder *PromptRecorder,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, cfg.LogPayload, logger),
		config:    cfg,
		recorder:  recorder,
		logger:    logger,
	}
}

// HasDefaultKey reports whether a key is configured for requests that do
// not bring their own.
func (c *Connector) HasDefaultKey() bool {
	return strings.TrimSpace(c.config.Token) != ""
}

// GenerateLessonPlan asks the model for a lesson plan. Malformed answers are
// sent back to the model with the parse error until one decodes or the
// attempts run out (ErrGenerationExhausted). A rejected key stops at once
// with ErrInvalidAPIKey.
func (c *Connector) GenerateLessonPlan(ctx context.Context, apiKey string, info *entity.CourseInfo) (
	*entity.LessonPlan, error,
) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		key = strings.TrimSpace(c.config.Token)
	}
	if key == "" {
		return nil, fmt.Errorf("%w: no api key configured", entity.ErrInvalidAPIKey)
	}

	prompt := BuildPrompt(info)
	c.recorder.Save(ctx, info, prompt)

	maxAttempts := c.maxAttempts()
	m := newMachine(prompt, maxAttempts)

	var plan *entity.LessonPlan
	opts := append(c.config.Retry.ToRetryOptions(),
		retry.Attempts(uint(maxAttempts)),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			ctxzap.Warn(ctx, "lesson plan attempt failed, retrying",
				zap.Uint("attempt", n+1),
				zap.Int("max_attempts", maxAttempts),
				zap.Stringer("state", m.state),
				zap.Error(err),
			)
		}),
	)

	err := retry.Do(func() error {
		ctxzap.Info(ctx, "requesting lesson plan from LLM",
			zap.Int("attempt", m.attempt+1),
			zap.Int("max_attempts", maxAttempts),
			zap.Bool("repair", m.state == stateAwaitingRepair),
		)

		decoded, o, content, attemptErr := c.attempt(ctx, key, m.prompt)
		switch m.record(o, content, attemptErr) {
		case stateSucceeded:
			plan = decoded
			return nil
		case stateAuthFailed, stateExhausted:
			return retry.Unrecoverable(attemptErr)
		default:
			return attemptErr
		}
	}, opts...)

	switch {
	case m.state == stateSucceeded:
		ctxzap.Info(ctx, "lesson plan generated", zap.Int("attempts", m.attempt))
		return plan, nil
	case m.state == stateAuthFailed:
		ctxzap.Error(ctx, "LLM rejected the api key")
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidAPIKey, m.lastErr)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		ctxzap.Error(ctx, "lesson plan generation exhausted",
			zap.Int("attempts", m.attempt), zap.Error(err))
		return nil, fmt.Errorf("%w after %d attempts: %v", entity.ErrGenerationExhausted, m.attempt, m.lastErr)
	}
}

func (c *Connector) maxAttempts() int {
	n := int(c.config.Retry.Attempts)
	if n < 1 || n > MaxAttempts {
		return MaxAttempts
	}
	return n
}

// attempt sends one completion and classifies the result.
func (c *Connector) attempt(ctx context.Context, key, prompt string) (*entity.LessonPlan, outcome, string, error) {
	content, err := c.complete(ctx, key, prompt)
	if err != nil {
		if pkghttp.HasStatus(err, http.StatusUnauthorized) {
			return nil, outcomeUnauthorized, "", err
		}
		return nil, outcomeTransportFailure, "", err
	}

	ctxzap.Debug(ctx, "LLM answer received", zap.Int("length", len(content)))

	var plan entity.LessonPlan
	if err := llmjson.Unmarshal(content, &plan); err != nil {
		return nil, outcomeMalformedContent, content, err
	}
	if plan.IsEmpty() {
		return nil, outcomeMalformedContent, content,
			fmt.Errorf("%w: none of the expected sections are present", entity.ErrMalformedPlan)
	}

	return &plan, outcomeDecoded, content, nil
}

func (c *Connector) complete(ctx context.Context, key, prompt string) (string, error) {
	req := entity.ChatCompletionRequest{
		Model:       c.config.Model,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
		Stream:      false,
		Messages:    []entity.ChatMessage{{Role: "user", Content: prompt}},
	}

	var resp entity.ChatCompletionResponse
	err := c.connector.DoRequest(ctx, http.MethodPost, c.config.ChatEndpoint, req, &resp,
		pkghttp.WithBearerToken(key),
	)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errEmptyChoices
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
