package session

import (
	"context"

	"github.com/futig/lessonplan-backend/internal/entity"
)

// SessionStore exposes generation progress and the queued log lines of a
// browser session.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*entity.Session, error)
	DrainLogs(ctx context.Context, id string) []entity.LogEntry
	Subscribe(id string) (<-chan struct{}, func())
}
