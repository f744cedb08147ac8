package session

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/Cheese-Tafl/internal/obslog"
	"github.com/park285/Cheese-Tafl/internal/variant"
)

// Options configures a Manager. The zero value is usable.
type Options struct {
	// MaxSessions caps running games; finished games do not count. Zero means 200.
	MaxSessions int
	Catalog     *variant.Catalog
	// DefaultVariant is used when a request names none; empty means the catalog default.
	DefaultVariant string
	Publisher      Publisher
	// NewID overrides session ID generation in tests.
	NewID func() string
}

// StartRequest opens a game. Players[0] is the creator.
type StartRequest struct {
	Variant           string
	Players           [2]Player
	CreatorIsAttacker bool
}

// Manager keeps independent sessions; each session serializes its own moves.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	// playerID -> sessionID of the latest game the player joined
	byPlayer map[string]string

	max        int
	catalog    *variant.Catalog
	defVariant string
	pub        Publisher
	newID      func() string
}

// NewManager fills unset options with defaults.
func NewManager(opts Options) *Manager {
	m := &Manager{
		sessions:   make(map[string]*Session),
		byPlayer:   make(map[string]string),
		max:        opts.MaxSessions,
		catalog:    opts.Catalog,
		defVariant: strings.TrimSpace(opts.DefaultVariant),
		pub:        opts.Publisher,
		newID:      opts.NewID,
	}
	if m.max <= 0 {
		m.max = 200
	}
	if m.catalog == nil {
		m.catalog = variant.Builtin()
	}
	if m.pub == nil {
		m.pub = nopPublisher{}
	}
	if m.defVariant == "" {
		m.defVariant = m.catalog.Default()
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	return m
}

// Start creates, registers and starts a session. An unknown variant falls back to the
// catalog default.
func (m *Manager) Start(ctx context.Context, req StartRequest) (*Session, error) {
	a := strings.TrimSpace(req.Players[0].ID)
	b := strings.TrimSpace(req.Players[1].ID)
	if a == "" || b == "" || a == b {
		return nil, ErrInvalidArgs
	}

	name := strings.TrimSpace(req.Variant)
	if name == "" {
		name = m.defVariant
	}
	cfg, res := m.catalog.Lookup(name)
	if res.FellBack {
		obslog.L().Warn("variant_fallback",
			zap.String("requested", res.Requested),
			zap.String("resolved", res.Resolved),
		)
	}

	m.mu.Lock()
	if m.activeLocked(a) != nil || m.activeLocked(b) != nil {
		m.mu.Unlock()
		return nil, ErrPlayerBusy
	}
	if m.runningLocked() >= m.max {
		m.mu.Unlock()
		return nil, ErrTooManySessions
	}
	s, err := New(m.newID(), cfg, req.Players, req.CreatorIsAttacker, m.pub)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.sessions[s.ID()] = s
	m.byPlayer[a] = s.ID()
	m.byPlayer[b] = s.ID()
	m.mu.Unlock()

	if _, err := s.Start(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[strings.TrimSpace(id)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// ActiveFor returns the running game playerID is in, or ErrSessionNotFound.
func (m *Manager) ActiveFor(playerID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s := m.activeLocked(strings.TrimSpace(playerID)); s != nil {
		return s, nil
	}
	return nil, ErrSessionNotFound
}

// Submit routes a move to its session. An empty sessionID means the player's active game.
func (m *Manager) Submit(ctx context.Context, sessionID string, req MoveRequest) (*MoveResult, error) {
	var (
		s   *Session
		err error
	)
	if strings.TrimSpace(sessionID) == "" {
		s, err = m.ActiveFor(req.PlayerID)
	} else {
		s, err = m.Get(sessionID)
	}
	if err != nil {
		return nil, err
	}
	return s.Submit(ctx, req)
}

// Remove forgets a session and its player index entries.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	delete(m.sessions, id)
	for _, p := range s.players {
		if m.byPlayer[p.ID] == id {
			delete(m.byPlayer, p.ID)
		}
	}
	return true
}

// Prune removes finished sessions and returns how many were dropped.
func (m *Manager) Prune() int {
	m.mu.RLock()
	var done []string
	for id, s := range m.sessions {
		if s.Over() {
			done = append(done, id)
		}
	}
	m.mu.RUnlock()
	n := 0
	for _, id := range done {
		if m.Remove(id) {
			n++
		}
	}
	return n
}

// IDs returns the registered session IDs, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (m *Manager) activeLocked(playerID string) *Session {
	id, ok := m.byPlayer[playerID]
	if !ok {
		return nil
	}
	s, ok := m.sessions[id]
	if !ok || s.Over() {
		return nil
	}
	return s
}

func (m *Manager) runningLocked() int {
	n := 0
	for _, s := range m.sessions {
		if !s.Over() {
			n++
		}
	}
	return n
}
