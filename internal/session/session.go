package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"Girder/internal/repo"

	"github.com/ansel1/merry"
	"github.com/google/uuid"
	"github.com/powerman/structlog"
)

var log = structlog.New(structlog.KeyUnit, "session")

var ErrNotFound = merry.New("session not found or expired").WithHTTPCode(http.StatusUnauthorized)

// Opener returns the record store for a new session of login.
type Opener func(ctx context.Context, login string) (repo.Repository, error)

type Session struct {
	ID      string
	Login   string
	Repo    repo.Repository
	Started time.Time

	lastSeen time.Time
}

// Manager keeps the live dashboard sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	open     Opener
	ttl      time.Duration
	now      func() time.Time
}

// NewManager returns a Manager ending sessions idle for longer than ttl.
func NewManager(open Opener, ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		open:     open,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *Manager) Start(ctx context.Context, login string) (*Session, error) {
	r, err := m.open(ctx, login)
	if err != nil {
		return nil, merry.Prependf(err, "open records of %s", login)
	}
	now := m.now()
	s := &Session{ID: uuid.NewString(), Login: login, Repo: r, Started: now, lastSeen: now}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	log.Debug("session started", "login", login, "sid", s.ID)
	return s, nil
}

// Get returns a live session and marks it as seen.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok && m.expired(s) {
		delete(m.sessions, id)
		m.mu.Unlock()
		m.close(s)
		return nil, merry.Here(ErrNotFound)
	}
	if ok {
		s.lastSeen = m.now()
	}
	m.mu.Unlock()
	if !ok {
		return nil, merry.Here(ErrNotFound)
	}
	return s, nil
}

// End removes the session and closes its records. Unknown ids are ignored.
func (m *Manager) End(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		m.close(s)
	}
}

// Sweep ends every idle session and returns how many were ended.
func (m *Manager) Sweep() int {
	var idle []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if m.expired(s) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, s := range idle {
		m.close(s)
	}
	return len(idle)
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				log.Info("idle sessions ended", "count", n)
			}
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close ends all sessions.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range all {
		m.close(s)
	}
}

func (m *Manager) expired(s *Session) bool {
	return m.ttl > 0 && m.now().Sub(s.lastSeen) > m.ttl
}

func (m *Manager) close(s *Session) {
	if err := s.Repo.Close(); err != nil {
		log.PrintErr(err, "sid", s.ID)
	}
	log.Debug("session ended", "login", s.Login, "sid", s.ID)
}

type contextKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok
}
