package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/xela07ax/webapi-auth-demo/internal/audit"
	"github.com/xela07ax/webapi-auth-demo/internal/domain"
	"github.com/xela07ax/webapi-auth-demo/internal/infra"
	"go.uber.org/zap"
)

const (
	MsgLoginSuccessful    = "Login successful."
	MsgMissingCredentials = "Username and password are required."
	MsgInvalidCredentials = "Invalid username or password."
)

// TokenIssuer превращает проверенную личность в подписанный токен.
type TokenIssuer interface {
	Issue(identity domain.UserIdentity) (string, error)
}

type AuthService struct {
	verifier CredentialVerifier
	issuer   TokenIssuer
	auditor  audit.Auditor
	metrics  *infra.Metrics
	logger   *zap.Logger
}

func NewAuthService(
	verifier CredentialVerifier,
	issuer TokenIssuer,
	auditor audit.Auditor,
	metrics *infra.Metrics,
	logger *zap.Logger,
) *AuthService {
	if metrics == nil {
		metrics = infra.NewMetrics(nil)
	}
	return &AuthService{
		verifier: verifier,
		issuer:   issuer,
		auditor:  auditor,
		metrics:  metrics,
		logger:   logger.Named("auth-service"),
	}
}

// Login проверяет учетные данные и, только при успехе, выпускает токен.
// Отказ по учетным данным является штатным ответом с IsValid=false, а не ошибка.
// Ошибка возвращается лишь при внутреннем сбое (верификатор, подпись).
func (s *AuthService) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResponse, error) {
	// 1. Аутентификация
	identity, err := s.verifier.Verify(ctx, creds)
	switch {
	case errors.Is(err, domain.ErrMissingCredentials):
		s.record(ctx, creds.Username, audit.OutcomeMissingCredentials, 0)
		return &domain.LoginResponse{IsValid: false, Message: MsgMissingCredentials}, nil
	case errors.Is(err, domain.ErrInvalidCredentials):
		// не уточняем, что именно неверно (логин или пароль)
		s.record(ctx, creds.Username, audit.OutcomeInvalidCredentials, 0)
		return &domain.LoginResponse{IsValid: false, Message: MsgInvalidCredentials}, nil
	case err != nil:
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	// 2. Выпуск токена
	token, err := s.issuer.Issue(*identity)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.record(ctx, identity.Username, audit.OutcomeAccepted, identity.ID)
	s.logger.Debug("user authenticated, token issued",
		zap.String("username", identity.Username),
		zap.Int("user_id", identity.ID))

	return &domain.LoginResponse{
		IsValid: true,
		Message: MsgLoginSuccessful,
		Token:   token,
		User:    identity,
	}, nil
}

func (s *AuthService) record(ctx context.Context, username string, outcome audit.Outcome, userID int) {
	s.metrics.LoginAttempts.WithLabelValues(string(outcome)).Inc()
	s.auditor.Log(audit.LoginEvent{
		RequestID:  middleware.GetReqID(ctx),
		Username:   username,
		Outcome:    outcome,
		UserID:     userID,
		RemoteAddr: remoteAddrFrom(ctx),
	})
}

type remoteAddrKey struct{}

// WithRemoteAddr прокидывает адрес клиента до аудита.
func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, remoteAddrKey{}, addr)
}

func remoteAddrFrom(ctx context.Context) string {
	addr, _ := ctx.Value(remoteAddrKey{}).(string)
	return addr
}
