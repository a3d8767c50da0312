package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/webapi-auth-demo/internal/domain"
)

func demoUser() domain.UserIdentity {
	return domain.UserIdentity{ID: 1, Username: "admin", Email: "admin@example.com", FullName: "Administrator", Roles: []string{"Admin", "Owner"}}
}

func storeImplementations(t *testing.T) map[string]Store {
	return map[string]Store{
		"file":   NewFileStore(filepath.Join(t.TempDir(), "session")),
		"memory": NewMemoryStore(),
	}
}

func TestStore_SaveLoadClear(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Load()
			assert.ErrorIs(t, err, ErrNoSession)

			require.NoError(t, store.Save("tok", demoUser()))

			s, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, "tok", s.Token)
			assert.Equal(t, demoUser(), s.User)

			require.NoError(t, store.Clear())
			_, err = store.Load()
			assert.ErrorIs(t, err, ErrNoSession)

			// повторная очистка не ошибка
			assert.NoError(t, store.Clear())
		})
	}
}

func TestFileStore_TwoSeparateEntries(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "session")
	store := NewFileStore(dir)
	require.NoError(t, store.Save("tok", demoUser()))

	token, err := os.ReadFile(filepath.Join(dir, TokenKey))
	require.NoError(t, err)
	assert.Equal(t, "tok", string(token))

	info, err := os.Stat(filepath.Join(dir, UserKey))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// неполная сессия считается отсутствующей
	require.NoError(t, os.Remove(filepath.Join(dir, UserKey)))
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestFileStore_CorruptUserRecord(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, TokenKey), []byte("tok"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, UserKey), []byte("{"), 0o600))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrSessionCorrupt)
	assert.ErrorContains(t, err, "decode user")
}

func TestFileStore_FailedSaveLeavesNoMixedSession(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, store.Save("old-token", demoUser()))

	// место токена занято каталогом, запись токена упадет
	require.NoError(t, os.Remove(filepath.Join(dir, TokenKey)))
	require.NoError(t, os.Mkdir(filepath.Join(dir, TokenKey), 0o700))

	other := demoUser()
	other.Username = "someone-else"
	require.Error(t, store.Save("new-token", other))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
	assert.NoFileExists(t, filepath.Join(dir, UserKey))
}

func TestFileStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewFileStore(dir).Save("tok", demoUser()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{TokenKey, UserKey}, names)

	info, err := os.Stat(filepath.Join(dir, TokenKey))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestClientSession_ExpiresAt(t *testing.T) {
	exp := time.Date(2026, 10, 15, 13, 0, 0, 0, time.UTC)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("whatever"))
	require.NoError(t, err)

	got, err := (&ClientSession{Token: token}).ExpiresAt()
	require.NoError(t, err)
	assert.True(t, got.Equal(exp))

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "1"}).SignedString([]byte("whatever"))
	require.NoError(t, err)
	_, err = (&ClientSession{Token: noExp}).ExpiresAt()
	assert.Error(t, err)

	_, err = (&ClientSession{Token: "garbage"}).ExpiresAt()
	assert.Error(t, err)
}
