package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/webapi-auth-demo/internal/domain"
	"go.uber.org/zap"
)

// fakeService — минимальный сервис верификации: admin/password, токен живет час.
type fakeService struct {
	t       *testing.T
	rejectN bool // отвергать любой токен в /Me
}

func (f *fakeService) token(exp time.Time) string {
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("fake-secret"))
	require.NoError(f.t, err)
	return s
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/Auth/ValidateUser":
		var creds domain.Credentials
		json.NewDecoder(r.Body).Decode(&creds)
		if creds.Username != "admin" || creds.Password != "password" {
			json.NewEncoder(w).Encode(domain.LoginResponse{IsValid: false, Message: "Invalid username or password."})
			return
		}
		user := demoUser()
		json.NewEncoder(w).Encode(domain.LoginResponse{
			IsValid: true,
			Message: "Login successful.",
			Token:   f.token(time.Now().Add(time.Hour)),
			User:    &user,
		})
	case "/api/Auth/Me":
		if f.rejectN {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(domain.SessionClaims{UserID: 1, Username: "admin", Roles: []string{"Admin", "Owner"}})
	default:
		http.NotFound(w, r)
	}
}

func newTestManager(t *testing.T) (*SessionManager, *fakeService, Store) {
	t.Helper()
	fake := &fakeService{t: t}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	store := NewMemoryStore()
	return NewSessionManager(fastAPI(srv.URL, 1), store, zap.NewNop()), fake, store
}

func TestSessionManager_LoginCurrentLogout(t *testing.T) {
	m, _, store := newTestManager(t)

	s, err := m.Login(context.Background(), "admin", "password")
	require.NoError(t, err)
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, demoUser(), s.User)

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, s.Token, stored.Token)

	current, err := m.Current()
	require.NoError(t, err)
	assert.Equal(t, "admin", current.User.Username)

	require.NoError(t, m.Logout())
	_, err = m.Current()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionManager_LoginRejected(t *testing.T) {
	m, _, store := newTestManager(t)

	_, err := m.Login(context.Background(), "admin", "wrong")
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "Invalid username or password.", rejected.Message)

	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionManager_CurrentDiscardsExpiredSession(t *testing.T) {
	m, fake, store := newTestManager(t)

	exp := time.Date(2026, 10, 15, 13, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(fake.token(exp), demoUser()))

	m.now = func() time.Time { return exp.Add(-time.Second) }
	_, err := m.Current()
	require.NoError(t, err)

	m.now = func() time.Time { return exp }
	_, err = m.Current()
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionManager_CurrentDiscardsUnreadableToken(t *testing.T) {
	m, _, store := newTestManager(t)
	require.NoError(t, store.Save("not-a-jwt", demoUser()))

	_, err := m.Current()
	assert.ErrorIs(t, err, ErrSessionExpired)
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionManager_CurrentDiscardsCorruptUserRecord(t *testing.T) {
	fake := &fakeService{t: t}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, TokenKey), []byte(fake.token(time.Now().Add(time.Hour))), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, UserKey), []byte("{"), 0o600))
	m := NewSessionManager(fastAPI(srv.URL, 1), NewFileStore(dir), zap.NewNop())

	_, err := m.Current()
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.NoFileExists(t, filepath.Join(dir, UserKey))
	assert.NoFileExists(t, filepath.Join(dir, TokenKey))

	// дальше это обычное отсутствие сессии, а не повторяющаяся ошибка
	_, err = m.Current()
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = m.Verify(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionManager_Verify(t *testing.T) {
	m, fake, store := newTestManager(t)
	_, err := m.Login(context.Background(), "admin", "password")
	require.NoError(t, err)

	claims, err := m.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, claims.UserID)

	fake.rejectN = true
	_, err = m.Verify(context.Background())
	assert.ErrorIs(t, err, ErrSessionRejected)

	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}
