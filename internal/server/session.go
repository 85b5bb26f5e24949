package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"certtrack/internal/types"
)

const sessionCookie = "certtrack_session"

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level   string // success, info, warning, danger
	Message string
}

// Session is a logged-in user's server-side state.
type Session struct {
	Token     string
	UserID    int64
	UserName  string
	Role      types.Role
	ExpiresAt time.Time

	flashes []Flash
}

// SessionManager holds sessions in memory, keyed by opaque token. Sessions
// expire after the configured TTL; expired entries are dropped lazily on
// access and wholesale via Sweep.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewSessionManager creates a manager with the given TTL.
func NewSessionManager(ttl time.Duration) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Create starts a session for the user and returns it.
func (m *SessionManager) Create(u *types.User) *Session {
	s := &Session{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		UserName:  u.Name,
		Role:      u.Role,
		ExpiresAt: time.Now().Add(m.ttl),
	}
	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()
	return s
}

// Get returns the live session for a token, or nil.
func (m *SessionManager) Get(token string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil
	}
	if time.Now().After(s.ExpiresAt) {
		delete(m.sessions, token)
		return nil
	}
	return s
}

// Destroy ends a session.
func (m *SessionManager) Destroy(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Sweep drops all expired sessions and reports how many were removed.
func (m *SessionManager) Sweep() int {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for tok, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			delete(m.sessions, tok)
			removed++
		}
	}
	return removed
}

// AddFlash queues a message for the session's next page render.
func (m *SessionManager) AddFlash(s *Session, level, message string) {
	if s == nil {
		return
	}
	m.mu.Lock()
	s.flashes = append(s.flashes, Flash{Level: level, Message: message})
	m.mu.Unlock()
}

// PopFlashes drains the session's queued messages.
func (m *SessionManager) PopFlashes(s *Session) []Flash {
	if s == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f := s.flashes
	s.flashes = nil
	return f
}

// sessionFrom resolves the request's session cookie, or nil.
func (m *SessionManager) sessionFrom(r *http.Request) *Session {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil
	}
	return m.Get(c.Value)
}

// setCookie attaches the session cookie to a response.
func setCookie(w http.ResponseWriter, s *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.ExpiresAt,
	})
}

// clearCookie removes the session cookie.
func clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
