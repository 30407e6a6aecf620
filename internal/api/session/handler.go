package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/futig/lessonplan-backend/internal/pkg/logger"
	"github.com/futig/lessonplan-backend/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const msgConnected = "日志连接已建立"

// Event types of the log stream
const (
	EventConnected = "connected"
	EventLog       = "log"
	EventHeartbeat = "heartbeat"
)

type streamEvent struct {
	Type    string           `json:"type"`
	Message string           `json:"message,omitempty"`
	Data    *entity.LogEntry `json:"data,omitempty"`
}

type Handler struct {
	sessions  SessionStore
	heartbeat time.Duration
}

func NewHandler(sessions SessionStore, heartbeat time.Duration) *Handler {
	return &Handler{
		sessions:  sessions,
		heartbeat: heartbeat,
	}
}

// StreamLogs handles GET /api/logs/{session_id} - Server-Sent Events log stream
func (h *Handler) StreamLogs(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("session_id", sessionID),
		zap.String("action", "StreamLogs"),
	)

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.respondError(ctx, w, http.StatusInternalServerError, "streaming unsupported", nil)
		return
	}

	updates, unsubscribe := h.sessions.Subscribe(sessionID)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	send := func(ev streamEvent) bool {
		payload, err := json.Marshal(ev)
		if err != nil {
			ctxzap.Error(ctx, "failed to encode stream event", zap.Error(err))
			return true
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	sendQueued := func() bool {
		for _, entry := range h.sessions.DrainLogs(ctx, sessionID) {
			if !send(streamEvent{Type: EventLog, Data: &entry}) {
				return false
			}
		}
		return true
	}

	ctxzap.Debug(ctx, "log stream opened")

	if !send(streamEvent{Type: EventConnected, Message: msgConnected}) || !sendQueued() {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ctxzap.Debug(ctx, "log stream closed by client")
			return
		case <-updates:
			if !sendQueued() {
				return
			}
		case <-ticker.C:
			if !send(streamEvent{Type: EventHeartbeat}) {
				return
			}
		}
	}
}

// GetSession handles GET /api/sessions/{session_id} - Generation progress
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("session_id", sessionID),
		zap.String("action", "GetSession"),
	)

	session, err := h.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, entity.ErrSessionNotFound) {
			h.respondError(ctx, w, http.StatusNotFound, "会话不存在", err)
			return
		}
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
		return
	}

	if session.Results == nil {
		session.Results = []entity.GenerationResult{}
	}

	response.Success(w, map[string]any{
		"success": true,
		"session": session,
	})
}

// PollLogs handles GET /api/sessions/{session_id}/logs - Drain queued log lines
func (h *Handler) PollLogs(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("session_id", sessionID),
		zap.String("action", "PollLogs"),
	)

	logs := h.sessions.DrainLogs(ctx, sessionID)
	if logs == nil {
		logs = []entity.LogEntry{}
	}

	response.Success(w, entity.SessionLogsResponse{
		Success: true,
		Logs:    logs,
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
