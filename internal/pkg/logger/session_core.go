package logger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogTimeLayout is the clock format shown next to session log lines.
const LogTimeLayout = "15:04:05"

// SinkFunc receives every entry logged through a session-scoped logger.
type SinkFunc func(entity.LogEntry)

// sessionCore renders entries as short human-readable lines and hands them
// to a session's log queue.
type sessionCore struct {
	zapcore.LevelEnabler
	fields []zapcore.Field
	sink   SinkFunc
}

func NewSessionCore(level zapcore.LevelEnabler, sink SinkFunc) zapcore.Core {
	return &sessionCore{LevelEnabler: level, sink: sink}
}

func (c *sessionCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	return &clone
}

func (c *sessionCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *sessionCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	c.sink(entity.LogEntry{
		Time:    ent.Time.Format(LogTimeLayout),
		Level:   ent.Level.String(),
		Message: renderLine(ent.Message, enc.Fields),
	})
	return nil
}

func (c *sessionCore) Sync() error {
	return nil
}

func renderLine(msg string, fields map[string]any) string {
	if len(fields) == 0 {
		return msg
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(msg)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return b.String()
}

// WithSessionSink returns a context whose logger also writes every entry at
// or above level to sink. Fields already attached to the context logger are
// not repeated in the session lines.
func WithSessionSink(ctx context.Context, level zapcore.LevelEnabler, sink SinkFunc) context.Context {
	session := NewSessionCore(level, sink)
	l := ctxzap.Extract(ctx).WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, session)
	}))
	return ctxzap.ToContext(ctx, l)
}

// Entry builds a session log line stamped with the current time.
func Entry(level zapcore.Level, message string) entity.LogEntry {
	return entity.LogEntry{
		Time:    time.Now().Format(LogTimeLayout),
		Level:   level.String(),
		Message: message,
	}
}
