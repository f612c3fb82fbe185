package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"
)

// Manager keeps logged-in sessions of the web ui keyed by random id
type Manager struct {
	makeCtrl ControllerMaker
	ttl      time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager makes session manager, sessions idle longer than ttl are dropped by Cleanup
func NewManager(makeCtrl ControllerMaker, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{makeCtrl: makeCtrl, ttl: ttl, now: time.Now, sessions: map[string]*Session{}}
}

// Login creates a new logged-in session, its feed is loaded before return
func (m *Manager) Login(ctx context.Context) (id string, sess *Session) {
	sess = New(m.makeCtrl)
	sess.now = m.now
	id = uuid.NewString()

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	sess.Login(ctx)
	lgr.Printf("[DEBUG] session %s logged in", id)
	return id, sess
}

// Get returns logged-in session by id
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok || sess.Status() != StatusLoggedIn {
		return nil, false
	}
	return sess, true
}

// Logout discards session and its feed
func (m *Manager) Logout(id string) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		sess.Logout()
		lgr.Printf("[DEBUG] session %s logged out", id)
	}
}

// Len returns number of active sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Cleanup logs out sessions idle longer than ttl and returns how many were dropped
func (m *Manager) Cleanup() int {
	deadline := m.now().Add(-m.ttl)
	var expired []string
	m.mu.Lock()
	for id, sess := range m.sessions {
		if sess.LastSeen().Before(deadline) {
			expired = append(expired, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		m.Logout(id)
	}
	return len(expired)
}

// Run calls Cleanup every interval until ctx is done
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.Cleanup(); n > 0 {
				lgr.Printf("[INFO] expired %d idle sessions", n)
			}
		}
	}
}
