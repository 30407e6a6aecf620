package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sync"
	"time"

	"github.com/futig/lessonplan-backend/internal/entity"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// SessionRepository keeps generation progress and the pending log lines of
// every browser session.
type SessionRepository interface {
	GetSession(ctx context.Context, id string) (*entity.Session, error)
	UpdateSession(ctx context.Context, id string, update func(*entity.Session)) (*entity.Session, error)
	AppendLog(ctx context.Context, id string, entry entity.LogEntry)
	DrainLogs(ctx context.Context, id string) []entity.LogEntry
	ClearLogs(ctx context.Context, id string)
	Subscribe(id string) (<-chan struct{}, func())
}

var _ SessionRepository = &SessionMemory{}

// maxSessionHistory caps the log lines kept in a session snapshot.
const maxSessionHistory = 500

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

type sessionState struct {
	session entity.Session
	queue   []entity.LogEntry
}

// SessionMemory implements SessionRepository on a go-cache with sliding
// expiration. Snapshots are written to dir so progress survives a restart;
// an evicted session takes its snapshot file with it.
type SessionMemory struct {
	mu     sync.Mutex
	items  *cache.Cache
	dir    string
	logger *zap.Logger

	subsMu sync.Mutex
	subs   map[string]map[chan struct{}]struct{}

	now func() time.Time
}

func NewSessionMemory(ttl, cleanupInterval time.Duration, dir string, logger *zap.Logger) *SessionMemory {
	s := &SessionMemory{
		items:  cache.New(ttl, cleanupInterval),
		dir:    dir,
		logger: logger,
		subs:   make(map[string]map[chan struct{}]struct{}),
		now:    time.Now,
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Warn("session snapshot dir unavailable, snapshots disabled",
				zap.String("dir", dir), zap.Error(err))
			s.dir = ""
		}
	}

	s.items.OnEvicted(func(id string, _ any) {
		if path, ok := s.snapshotPath(id); ok {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				s.logger.Warn("remove session snapshot", zap.String("session_id", id), zap.Error(err))
			}
		}
		s.logger.Debug("session evicted", zap.String("session_id", id))
	})

	return s
}

func (s *SessionMemory) GetSession(ctx context.Context, id string) (*entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrSessionNotFound, id)
	}

	return cloneSession(&st.session), nil
}

// UpdateSession applies update to the session, creating an idle one first
// if id is unknown, and returns the stored result.
func (s *SessionMemory) UpdateSession(
	ctx context.Context,
	id string,
	update func(*entity.Session),
) (*entity.Session, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: session id", entity.ErrMissingField)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.loadOrCreate(id)
	update(&st.session)
	st.session.UpdatedAt = s.now()
	s.items.Set(id, st, cache.DefaultExpiration)
	s.persist(st)

	return cloneSession(&st.session), nil
}

// AppendLog queues entry for the session's log consumers and wakes them.
func (s *SessionMemory) AppendLog(ctx context.Context, id string, entry entity.LogEntry) {
	if id == "" {
		return
	}

	s.mu.Lock()
	st := s.loadOrCreate(id)
	st.queue = append(st.queue, entry)
	st.session.Logs = append(st.session.Logs, entry)
	if extra := len(st.session.Logs) - maxSessionHistory; extra > 0 {
		st.session.Logs = slices.Delete(st.session.Logs, 0, extra)
	}
	s.items.Set(id, st, cache.DefaultExpiration)
	s.mu.Unlock()

	s.notify(id)
}

// DrainLogs returns and forgets the queued log lines of a session.
func (s *SessionMemory) DrainLogs(ctx context.Context, id string) []entity.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.load(id)
	if !ok || len(st.queue) == 0 {
		return nil
	}

	out := st.queue
	st.queue = nil
	s.items.Set(id, st, cache.DefaultExpiration)
	return out
}

// ClearLogs drops queued lines and history, used when a new run starts.
func (s *SessionMemory) ClearLogs(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.load(id)
	if !ok {
		return
	}
	st.queue = nil
	st.session.Logs = nil
	s.items.Set(id, st, cache.DefaultExpiration)
}

// Subscribe returns a channel signalled whenever a line is appended to the
// session, and a function releasing it.
func (s *SessionMemory) Subscribe(id string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.subsMu.Lock()
	if s.subs[id] == nil {
		s.subs[id] = make(map[chan struct{}]struct{})
	}
	s.subs[id][ch] = struct{}{}
	s.subsMu.Unlock()

	return ch, func() {
		s.subsMu.Lock()
		delete(s.subs[id], ch)
		if len(s.subs[id]) == 0 {
			delete(s.subs, id)
		}
		s.subsMu.Unlock()
	}
}

func (s *SessionMemory) notify(id string) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for ch := range s.subs[id] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// load must be called with s.mu held. A cache hit refreshes the expiration.
// Code running under s.mu logs through s.logger only: a request context may
// carry a session sink that appends back into this store.
func (s *SessionMemory) load(id string) (*sessionState, bool) {
	if v, ok := s.items.Get(id); ok {
		st := v.(*sessionState)
		s.items.Set(id, st, cache.DefaultExpiration)
		return st, true
	}

	st, ok := s.restore(id)
	if ok {
		s.items.Set(id, st, cache.DefaultExpiration)
	}
	return st, ok
}

func (s *SessionMemory) loadOrCreate(id string) *sessionState {
	if st, ok := s.load(id); ok {
		return st
	}

	now := s.now()
	return &sessionState{session: entity.Session{
		ID:        id,
		Status:    entity.SessionStatusIdle,
		Results:   []entity.GenerationResult{},
		CreatedAt: now,
		UpdatedAt: now,
	}}
}

func (s *SessionMemory) snapshotPath(id string) (string, bool) {
	if s.dir == "" || !sessionIDPattern.MatchString(id) {
		return "", false
	}
	return filepath.Join(s.dir, id+".json"), true
}

func (s *SessionMemory) restore(id string) (*sessionState, bool) {
	path, ok := s.snapshotPath(id)
	if !ok {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("read session snapshot", zap.String("path", path), zap.Error(err))
		}
		return nil, false
	}

	var st sessionState
	if err := json.Unmarshal(data, &st.session); err != nil {
		s.logger.Warn("corrupt session snapshot ignored", zap.String("path", path), zap.Error(err))
		return nil, false
	}

	s.logger.Debug("session restored from snapshot", zap.String("session_id", id))
	return &st, true
}

// persist writes the snapshot best-effort; failures are only logged.
func (s *SessionMemory) persist(st *sessionState) {
	path, ok := s.snapshotPath(st.session.ID)
	if !ok {
		return
	}

	data, err := json.Marshal(&st.session)
	if err != nil {
		s.logger.Warn("encode session snapshot", zap.Error(err))
		return
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.logger.Warn("write session snapshot", zap.String("path", path), zap.Error(err))
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		s.logger.Warn("replace session snapshot", zap.String("path", path), zap.Error(err))
	}
}

func cloneSession(s *entity.Session) *entity.Session {
	c := *s
	c.Results = append([]entity.GenerationResult{}, s.Results...)
	c.Logs = slices.Clone(s.Logs)
	return &c
}
