package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusConnecting Status = "connecting"
	StatusActive     Status = "active"
	StatusClosed     Status = "closed"
	StatusErrored    Status = "errored"
)

var ErrNotFound = errors.New("session not found")

// Session is one end-to-end call between a client and the upstream
// voice-model service. Sessions are never reused.
type Session struct {
	ID        string    `json:"session_id"`
	AgentID   string    `json:"agent_id"`
	Status    Status    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

type entry struct {
	sess     *Session
	releases []func()
}

// Manager owns the table of live sessions. It is the only state shared
// across sessions; the bridge never holds raw references into it.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]*entry
	onClose func(*Session)
}

func NewManager() *Manager {
	return &Manager{entries: make(map[string]*entry)}
}

// SetCloseHook registers a callback invoked exactly once per session close.
func (m *Manager) SetCloseHook(hook func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onClose = hook
}

// Open allocates a fresh session for the given agent.
func (m *Manager) Open(agentID string) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		AgentID:   agentID,
		Status:    StatusConnecting,
		StartedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[s.ID] = &entry{sess: s}
	return clone(s)
}

// Lookup returns a snapshot of the session or ErrNotFound.
func (m *Manager) Lookup(sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(e.sess), nil
}

// SetStatus transitions the session's lifecycle status.
func (m *Manager) SetStatus(sessionID string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[sessionID]
	if !ok {
		return ErrNotFound
	}
	e.sess.Status = status
	return nil
}

// BindRelease attaches a resource release function that runs when the
// session is closed. Release functions run at most once.
func (m *Manager) BindRelease(sessionID string, release func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[sessionID]
	if !ok {
		return ErrNotFound
	}
	e.releases = append(e.releases, release)
	return nil
}

// Close releases all resources associated with the session. Closing an
// already-closed or unknown session is a no-op, never an error.
func (m *Manager) Close(sessionID string) {
	m.mu.Lock()
	e, ok := m.entries[sessionID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.entries, sessionID)
	if e.sess.Status != StatusErrored {
		e.sess.Status = StatusClosed
	}
	closed := clone(e.sess)
	hook := m.onClose
	m.mu.Unlock()

	for _, release := range e.releases {
		release()
	}
	if hook != nil {
		hook(closed)
	}
}

func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func clone(s *Session) *Session {
	c := *s
	return &c
}
