// Package auth implements the demo sign-in shell. Authentication is
// simulated: any credentials are accepted after a fixed delay, and no
// identity provider is contacted. Sessions are still real server-side
// sessions with cookies and expiry so the HTTP surface behaves like a
// production login.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/divyyeahhhhh/autocampaign/internal/pkg/logger"
)

// Mode is the sign-in flow the user chose.
type Mode string

const (
	ModeSignIn Mode = "signin"
	ModeSignUp Mode = "signup"
	ModeGoogle Mode = "google"
)

// Valid reports whether m is a supported sign-in mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeSignIn, ModeSignUp, ModeGoogle:
		return true
	}
	return false
}

var (
	ErrInvalidMode  = errors.New("unsupported sign-in mode")
	ErrEmptyEmail   = errors.New("email is required")
	ErrSessionBuild = errors.New("failed to create session")
)

// Session represents an authenticated user session.
type Session struct {
	ID        string    `json:"-"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Mode      Mode      `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Authenticator is the pluggable sign-in port. The demo binds the
// simulated implementation; a real provider slots in behind the same
// interface.
type Authenticator interface {
	Authenticate(ctx context.Context, mode Mode, email string) (*Session, error)
}

// SimulatedAuthenticator accepts any well-formed request after a fixed
// delay that stands in for a provider round trip.
type SimulatedAuthenticator struct {
	delay      time.Duration
	sessionTTL time.Duration
}

// NewSimulatedAuthenticator builds the demo authenticator.
func NewSimulatedAuthenticator(delay time.Duration) *SimulatedAuthenticator {
	if delay < 0 {
		delay = 0
	}
	return &SimulatedAuthenticator{delay: delay, sessionTTL: 24 * time.Hour}
}

// SetSessionTTL overrides the default 24h session lifetime.
func (a *SimulatedAuthenticator) SetSessionTTL(ttl time.Duration) {
	if ttl > 0 {
		a.sessionTTL = ttl
	}
}

// Authenticate validates the request shape, waits the simulated delay and
// issues a session. The Google mode needs no email; a demo identity is
// synthesized instead.
func (a *SimulatedAuthenticator) Authenticate(ctx context.Context, mode Mode, email string) (*Session, error) {
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}
	if mode == ModeGoogle && email == "" {
		email = "demo.user@gmail.com"
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, ErrEmptyEmail
	}

	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	id, err := generateSessionID()
	if err != nil {
		return nil, ErrSessionBuild
	}
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Email:     email,
		Name:      nameFromEmail(email),
		Mode:      mode,
		CreatedAt: now,
		ExpiresAt: now.Add(a.sessionTTL),
	}, nil
}

// nameFromEmail derives a display name from the local part of the email.
func nameFromEmail(email string) string {
	local := email
	if i := strings.Index(email, "@"); i > 0 {
		local = email[:i]
	}
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	if len(parts) == 0 {
		return "Demo User"
	}
	return strings.Join(parts, " ")
}

// generateSessionID creates a random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

const sessionCookie = "campaign_session"

// Manager tracks live sessions and exposes cookie helpers plus the
// RequireAuth middleware.
type Manager struct {
	authenticator Authenticator
	sessions      map[string]*Session
	sessionMu     sync.RWMutex
}

// NewManager wires a session manager around an authenticator.
func NewManager(authenticator Authenticator) *Manager {
	return &Manager{
		authenticator: authenticator,
		sessions:      make(map[string]*Session),
	}
}

// Login runs the sign-in flow and registers the resulting session.
func (m *Manager) Login(ctx context.Context, mode Mode, email string) (*Session, error) {
	sess, err := m.authenticator.Authenticate(ctx, mode, email)
	if err != nil {
		return nil, err
	}
	m.sessionMu.Lock()
	m.sessions[sess.ID] = sess
	m.sessionMu.Unlock()
	logger.Info("user logged in", "email", sess.Email, "mode", string(mode))
	return sess, nil
}

// Logout removes the session named by the request cookie.
func (m *Manager) Logout(r *http.Request) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return
	}
	m.sessionMu.Lock()
	delete(m.sessions, cookie.Value)
	m.sessionMu.Unlock()
}

// GetSession returns the live session for the request, or nil.
func (m *Manager) GetSession(r *http.Request) *Session {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil
	}

	m.sessionMu.RLock()
	sess, ok := m.sessions[cookie.Value]
	m.sessionMu.RUnlock()
	if !ok {
		return nil
	}

	if time.Now().After(sess.ExpiresAt) {
		m.sessionMu.Lock()
		delete(m.sessions, sess.ID)
		m.sessionMu.Unlock()
		return nil
	}
	return sess
}

// IsAuthenticated reports whether the request carries a live session.
func (m *Manager) IsAuthenticated(r *http.Request) bool {
	return m.GetSession(r) != nil
}

// SetCookie attaches the session cookie to the response.
func (m *Manager) SetCookie(w http.ResponseWriter, sess *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireAuth rejects requests without a live session.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.IsAuthenticated(r) {
			http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CleanupExpiredSessions drops expired sessions. Run periodically from
// the server loop.
func (m *Manager) CleanupExpiredSessions() {
	now := time.Now()
	m.sessionMu.Lock()
	for id, sess := range m.sessions {
		if now.After(sess.ExpiresAt) {
			delete(m.sessions, id)
		}
	}
	m.sessionMu.Unlock()
}
