package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xela07ax/webapi-auth-demo/internal/domain"
	"go.uber.org/zap"
)

// ErrSessionRejected — сервер больше не принимает сохраненный токен.
var ErrSessionRejected = errors.New("stored session was rejected by the server")

// RejectedError — сервис отказал во входе; Message показываем пользователю как есть.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return "login rejected: " + e.Message
}

// SessionManager связывает API и Store: логин, текущая сессия, выход.
// Сохраненной сессии не доверяем вслепую: срок проверяется при каждом чтении,
// а Verify спрашивает сервер.
type SessionManager struct {
	api    *API
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

func NewSessionManager(api *API, store Store, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		api:    api,
		store:  store,
		logger: logger.Named("session-manager"),
		now:    time.Now,
	}
}

func (m *SessionManager) Login(ctx context.Context, username, password string) (*ClientSession, error) {
	resp, err := m.api.ValidateUser(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("validate user: %w", err)
	}
	if !resp.IsValid {
		return nil, &RejectedError{Message: resp.Message}
	}
	if resp.Token == "" || resp.User == nil {
		return nil, errors.New("login response is missing token or user")
	}

	if err := m.store.Save(resp.Token, *resp.User); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	m.logger.Debug("session stored", zap.String("username", resp.User.Username))
	return &ClientSession{Token: resp.Token, User: *resp.User}, nil
}

// Current возвращает сохраненную сессию, если она еще не истекла локально.
// Истекшая или битая сессия удаляется.
func (m *SessionManager) Current() (*ClientSession, error) {
	s, err := m.store.Load()
	if errors.Is(err, ErrSessionCorrupt) {
		m.logger.Debug("discarding corrupt session", zap.Error(err))
		if clearErr := m.store.Clear(); clearErr != nil {
			return nil, fmt.Errorf("clear corrupt session: %w", clearErr)
		}
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}

	exp, err := s.ExpiresAt()
	if err != nil || !m.now().Before(exp) {
		m.logger.Debug("discarding stored session", zap.Time("expires_at", exp), zap.Error(err))
		if clearErr := m.store.Clear(); clearErr != nil {
			return nil, fmt.Errorf("clear expired session: %w", clearErr)
		}
		return nil, ErrSessionExpired
	}
	return s, nil
}

// Verify перепроверяет текущую сессию на сервере перед привилегированным действием.
func (m *SessionManager) Verify(ctx context.Context) (*domain.SessionClaims, error) {
	s, err := m.Current()
	if err != nil {
		return nil, err
	}

	claims, err := m.api.Me(ctx, s.Token)
	if errors.Is(err, ErrUnauthorized) {
		if clearErr := m.store.Clear(); clearErr != nil {
			return nil, fmt.Errorf("clear rejected session: %w", clearErr)
		}
		return nil, ErrSessionRejected
	}
	if err != nil {
		return nil, fmt.Errorf("verify session: %w", err)
	}
	return claims, nil
}

// Logout удаляет оба ключа. Сам токен на сервере не отзывается: отзыва до exp нет.
func (m *SessionManager) Logout() error {
	return m.store.Clear()
}
