package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xela07ax/webapi-auth-demo/internal/domain"
	"github.com/xela07ax/webapi-auth-demo/internal/infra"
	"go.uber.org/zap"
)

// Validator проверяет HS256 токены, выпущенные Issuer с тем же конфигом.
type Validator struct {
	secret  []byte
	parser  *jwt.Parser
	logger  *zap.Logger
	metrics *infra.Metrics
}

func NewValidator(cfg infra.JwtConfig, opts ...Option) (*Validator, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("%w: jwt.secret_key", domain.ErrConfigurationMissing)
	}
	cfg = cfg.WithDefaults()
	o := buildOptions(opts)

	// Все четыре проверки обязательны: подпись, iss, aud, exp. Leeway нулевой.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(o.now),
	)

	return &Validator{
		secret:  []byte(cfg.SecretKey),
		parser:  parser,
		logger:  o.logger.Named("token-validator"),
		metrics: o.metrics,
	}, nil
}

// VerifyToken реализует интерфейс TokenValidator.
// Любая неудача схлопывается в domain.ErrTokenInvalid, конкретная причина уходит только в лог.
func (v *Validator) VerifyToken(tokenStr string) (*domain.SessionClaims, error) {
	claims, err := v.verify(tokenStr)
	if err != nil {
		v.logger.Warn("token rejected", zap.Error(err))
		v.metrics.TokenValidations.WithLabelValues("invalid").Inc()
		return nil, domain.ErrTokenInvalid
	}
	v.metrics.TokenValidations.WithLabelValues("valid").Inc()
	return claims, nil
}

func (v *Validator) verify(tokenStr string) (*domain.SessionClaims, error) {
	tokenStr = strings.TrimPrefix(strings.TrimSpace(tokenStr), "Bearer ")
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, errors.New("token is empty")
	}

	claims := &domain.TokenClaims{}
	token, err := v.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("invalid subject %q", claims.Subject)
	}
	if claims.Name == "" {
		return nil, errors.New("name claim is missing")
	}
	roles, err := decodeRoles(claims.Roles)
	if err != nil {
		return nil, err
	}

	return &domain.SessionClaims{
		UserID:    userID,
		Username:  claims.Name,
		Issuer:    claims.Issuer,
		Roles:     roles,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
