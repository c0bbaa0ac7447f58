package player

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Saver persists one owner's SaveData.
type Saver interface {
	Save(ctx context.Context, ownerID string, data SaveData) error
}

// SessionManager maintains the registry of active sessions.
type SessionManager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session // ownerID → session
	saveLimit int
	logger    *zap.Logger
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		sessions:  make(map[string]*Session),
		saveLimit: 8,
		logger:    logger,
	}
}

// Register adds a session. A previous session for the same owner is closed
// first.
func (sm *SessionManager) Register(s *Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if old, ok := sm.sessions[s.OwnerID]; ok && old != s {
		old.Close()
		sm.logger.Info("duplicate session displaced", zap.String("owner", s.OwnerID))
	}
	sm.sessions[s.OwnerID] = s
	sm.logger.Info("session registered", zap.String("owner", s.OwnerID))
}

// Unregister removes and closes the session for ownerID.
func (sm *SessionManager) Unregister(ownerID string) *Session {
	sm.mu.Lock()
	s, ok := sm.sessions[ownerID]
	delete(sm.sessions, ownerID)
	sm.mu.Unlock()
	if !ok {
		return nil
	}
	s.Close()
	sm.logger.Info("session unregistered", zap.String("owner", ownerID))
	return s
}

// Get returns the session for ownerID, or nil if not found.
func (sm *SessionManager) Get(ownerID string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[ownerID]
}

// Count returns the number of active sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// All returns a snapshot slice of all sessions ordered by owner id.
func (sm *SessionManager) All() []*Session {
	sm.mu.RLock()
	out := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		out = append(out, s)
	}
	sm.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].OwnerID < out[j].OwnerID })
	return out
}

// Owners returns the registered owner ids in order.
func (sm *SessionManager) Owners() []string {
	all := sm.All()
	ids := make([]string, len(all))
	for i, s := range all {
		ids[i] = s.OwnerID
	}
	return ids
}

// Tick advances every session by dt.
func (sm *SessionManager) Tick(dt time.Duration) {
	for _, s := range sm.All() {
		s.Tick(dt)
	}
}

// SaveAll snapshots every session and saves them concurrently. It returns
// the first error; the remaining saves still run.
func (sm *SessionManager) SaveAll(ctx context.Context, saver Saver) error {
	sessions := sm.All()
	var g errgroup.Group
	g.SetLimit(sm.saveLimit)
	for _, s := range sessions {
		data := s.Snapshot()
		g.Go(func() error {
			if err := saver.Save(ctx, s.OwnerID, data); err != nil {
				return fmt.Errorf("save %s: %w", s.OwnerID, err)
			}
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		sm.logger.Error("save all failed", zap.Error(err))
		return err
	}
	sm.logger.Info("sessions saved", zap.Int("count", len(sessions)))
	return nil
}

// CloseAll unregisters and closes every session.
func (sm *SessionManager) CloseAll() {
	sm.mu.Lock()
	sessions := sm.sessions
	sm.sessions = make(map[string]*Session)
	sm.mu.Unlock()

	sm.logger.Info("closing all sessions", zap.Int("count", len(sessions)))
	for _, s := range sessions {
		s.Close()
	}
}
