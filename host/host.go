// Package host owns the session lifecycle: sessions are opened from the
// save store, decorated with attachments (notifications, audit) and saved
// again when closed.
package host

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kasuganosora/itemruntime/game/player"
	"github.com/kasuganosora/itemruntime/savestore"
	"go.uber.org/zap"
)

// Store loads and saves per-owner data.
type Store interface {
	player.Saver
	Load(ctx context.Context, ownerID string) (player.SaveData, error)
}

// Attachment hooks into a newly opened session and returns a detach func.
type Attachment func(s *player.Session) (detach func())

// ErrNotOpen is returned for owners without an open session.
var ErrNotOpen = errors.New("host: session not open")

// Host opens and closes sessions.
type Host struct {
	sm          *player.SessionManager
	store       Store
	deps        player.Deps
	attachments []Attachment
	logger      *zap.Logger

	mu      sync.Mutex
	detach  map[string][]func()
	opening map[string]*sync.Mutex
}

// New creates a Host. deps is shared by every session it opens.
func New(sm *player.SessionManager, store Store, deps player.Deps, logger *zap.Logger, attachments ...Attachment) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Logger == nil {
		deps.Logger = logger
	}
	return &Host{
		sm:          sm,
		store:       store,
		deps:        deps,
		attachments: attachments,
		logger:      logger,
		detach:      make(map[string][]func()),
		opening:     make(map[string]*sync.Mutex),
	}
}

// Sessions returns the underlying session manager.
func (h *Host) Sessions() *player.SessionManager { return h.sm }

func (h *Host) ownerLock(ownerID string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.opening[ownerID]
	if !ok {
		l = &sync.Mutex{}
		h.opening[ownerID] = l
	}
	return l
}

// Open returns the owner's session, loading it from the store on first use.
// An owner with no saved data starts empty.
func (h *Host) Open(ctx context.Context, ownerID string, p player.Profile) (*player.Session, error) {
	if ownerID == "" {
		return nil, errors.New("host: empty owner id")
	}
	l := h.ownerLock(ownerID)
	l.Lock()
	defer l.Unlock()

	if s := h.sm.Get(ownerID); s != nil {
		return s, nil
	}
	s, err := player.NewSession(ownerID, p, h.deps)
	if err != nil {
		return nil, err
	}
	data, err := h.store.Load(ctx, ownerID)
	switch {
	case errors.Is(err, savestore.ErrNotFound):
		h.logger.Info("new owner, starting empty", zap.String("owner", ownerID))
	case err != nil:
		s.Close()
		return nil, fmt.Errorf("host: open %s: %w", ownerID, err)
	default:
		rep := s.Load(data)
		h.logger.Info("session loaded",
			zap.String("owner", ownerID),
			zap.Int("slots", rep.Inventory.Restored),
			zap.Int("slots_dropped", rep.Inventory.Dropped),
			zap.Int("bindings", rep.Equipment.Restored),
			zap.Int("bindings_dropped", rep.Equipment.Dropped),
			zap.Int("returned", rep.Returned))
	}

	detach := make([]func(), 0, len(h.attachments))
	for _, a := range h.attachments {
		detach = append(detach, a(s))
	}
	h.mu.Lock()
	h.detach[ownerID] = detach
	h.mu.Unlock()
	h.sm.Register(s)
	return s, nil
}

// Save persists the owner's open session.
func (h *Host) Save(ctx context.Context, ownerID string) error {
	s := h.sm.Get(ownerID)
	if s == nil {
		return ErrNotOpen
	}
	if err := h.store.Save(ctx, ownerID, s.Snapshot()); err != nil {
		return fmt.Errorf("host: save %s: %w", ownerID, err)
	}
	return nil
}

// Close saves and unregisters the owner's session. The session is dropped
// even when the save fails; the error is returned.
func (h *Host) Close(ctx context.Context, ownerID string) error {
	l := h.ownerLock(ownerID)
	l.Lock()
	defer l.Unlock()

	if h.sm.Get(ownerID) == nil {
		return ErrNotOpen
	}
	err := h.Save(ctx, ownerID)
	h.release(ownerID)
	h.sm.Unregister(ownerID)
	return err
}

func (h *Host) release(ownerID string) {
	h.mu.Lock()
	detach := h.detach[ownerID]
	delete(h.detach, ownerID)
	h.mu.Unlock()
	for _, d := range detach {
		d()
	}
}

// SaveAll persists every open session.
func (h *Host) SaveAll(ctx context.Context) error {
	return h.sm.SaveAll(ctx, h.store)
}

// Shutdown saves every session and closes them all.
func (h *Host) Shutdown(ctx context.Context) error {
	err := h.SaveAll(ctx)
	for _, id := range h.sm.Owners() {
		h.release(id)
	}
	h.sm.CloseAll()
	return err
}
