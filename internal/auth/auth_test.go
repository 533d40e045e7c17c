package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedAuthenticate(t *testing.T) {
	a := NewSimulatedAuthenticator(0)

	sess, err := a.Authenticate(context.Background(), ModeSignIn, "Priya.Patel@example.com")
	require.NoError(t, err)
	assert.Equal(t, "priya.patel@example.com", sess.Email)
	assert.Equal(t, "Priya Patel", sess.Name)
	assert.NotEmpty(t, sess.ID)
	assert.True(t, sess.ExpiresAt.After(sess.CreatedAt))

	// Google mode synthesizes a demo identity.
	sess, err = a.Authenticate(context.Background(), ModeGoogle, "")
	require.NoError(t, err)
	assert.Equal(t, "demo.user@gmail.com", sess.Email)

	_, err = a.Authenticate(context.Background(), ModeSignIn, "  ")
	assert.ErrorIs(t, err, ErrEmptyEmail)

	_, err = a.Authenticate(context.Background(), Mode("sso"), "a@b.com")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestSimulatedDelayHonorsContext(t *testing.T) {
	a := NewSimulatedAuthenticator(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := a.Authenticate(ctx, ModeSignIn, "a@b.com")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestManagerSessionLifecycle(t *testing.T) {
	m := NewManager(NewSimulatedAuthenticator(0))

	sess, err := m.Login(context.Background(), ModeSignUp, "new.user@example.com")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	m.SetCookie(w, sess)
	cookie := w.Result().Cookies()[0]
	assert.Equal(t, sessionCookie, cookie.Name)
	assert.True(t, cookie.HttpOnly)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	got := m.GetSession(r)
	require.NotNil(t, got)
	assert.Equal(t, "new.user@example.com", got.Email)
	assert.True(t, m.IsAuthenticated(r))

	m.Logout(r)
	assert.Nil(t, m.GetSession(r))

	bare := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, m.IsAuthenticated(bare))
}

func TestManagerExpiredSession(t *testing.T) {
	m := NewManager(NewSimulatedAuthenticator(0))

	sess, err := m.Login(context.Background(), ModeSignIn, "a@b.com")
	require.NoError(t, err)

	m.sessionMu.Lock()
	m.sessions[sess.ID].ExpiresAt = time.Now().Add(-time.Minute)
	m.sessionMu.Unlock()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookie, Value: sess.ID})
	assert.Nil(t, m.GetSession(r))

	// Expired entry was evicted on read.
	m.sessionMu.RLock()
	_, ok := m.sessions[sess.ID]
	m.sessionMu.RUnlock()
	assert.False(t, ok)
}

func TestCleanupExpiredSessions(t *testing.T) {
	m := NewManager(NewSimulatedAuthenticator(0))

	live, err := m.Login(context.Background(), ModeSignIn, "live@b.com")
	require.NoError(t, err)
	dead, err := m.Login(context.Background(), ModeSignIn, "dead@b.com")
	require.NoError(t, err)

	m.sessionMu.Lock()
	m.sessions[dead.ID].ExpiresAt = time.Now().Add(-time.Minute)
	m.sessionMu.Unlock()

	m.CleanupExpiredSessions()

	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()
	_, liveOK := m.sessions[live.ID]
	_, deadOK := m.sessions[dead.ID]
	assert.True(t, liveOK)
	assert.False(t, deadOK)
}

func TestRequireAuth(t *testing.T) {
	m := NewManager(NewSimulatedAuthenticator(0))
	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	sess, err := m.Login(context.Background(), ModeSignIn, "a@b.com")
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookie, Value: sess.ID})
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}
