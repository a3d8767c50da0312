package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xela07ax/webapi-auth-demo/internal/domain"
)

const (
	TokenKey = "authToken"
	UserKey  = "user"
)

// FileStore хранит сессию двумя файлами в каталоге: authToken и user (JSON).
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// DefaultSessionDir — $HOME/.authdemo
func DefaultSessionDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".authdemo"), nil
}

func (s *FileStore) Save(token string, user domain.UserIdentity) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	// Пара пишется целиком или никак: при сбое не оставляем новый токен рядом со старым пользователем
	if err := writeFileAtomic(s.path(UserKey), data); err != nil {
		return s.abortSave(fmt.Errorf("write user: %w", err))
	}
	if err := writeFileAtomic(s.path(TokenKey), []byte(token)); err != nil {
		return s.abortSave(fmt.Errorf("write token: %w", err))
	}
	return nil
}

func (s *FileStore) abortSave(err error) error {
	if clearErr := s.Clear(); clearErr != nil {
		return errors.Join(err, clearErr)
	}
	return err
}

// writeFileAtomic пишет во временный файл рядом и переименовывает, файл получается 0600.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *FileStore) Load() (*ClientSession, error) {
	token, err := os.ReadFile(s.path(TokenKey))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}

	data, err := os.ReadFile(s.path(UserKey))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}

	var user domain.UserIdentity
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("%w: decode user: %v", ErrSessionCorrupt, err)
	}

	t := strings.TrimSpace(string(token))
	if t == "" {
		return nil, ErrNoSession
	}
	return &ClientSession{Token: t, User: user}, nil
}

func (s *FileStore) Clear() error {
	for _, key := range []string{TokenKey, UserKey} {
		if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", key, err)
		}
	}
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key)
}
