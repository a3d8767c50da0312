package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xela07ax/webapi-auth-demo/internal/domain"
)

var (
	ErrNoSession      = errors.New("no stored session")
	ErrSessionExpired = errors.New("stored session has expired")
	// ErrSessionCorrupt — запись сессии есть, но прочитать ее нельзя.
	ErrSessionCorrupt = errors.New("stored session is corrupt")
)

// ClientSession — то, что клиент держит между запусками: токен и запись о пользователе.
type ClientSession struct {
	Token string
	User  domain.UserIdentity
}

// ExpiresAt читает exp из токена без проверки подписи.
// Подпись клиент проверить не может (секрет есть только у сервиса), это лишь локальный срок годности.
func (s *ClientSession) ExpiresAt() (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse stored token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, errors.New("stored token has no exp claim")
	}
	return exp.Time, nil
}

// Store — клиентское хранилище сессии. Токен и пользователь лежат под двумя отдельными ключами.
type Store interface {
	Save(token string, user domain.UserIdentity) error
	// Load возвращает ErrNoSession, если сессии нет (или она неполная).
	Load() (*ClientSession, error)
	Clear() error
}
