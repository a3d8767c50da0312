package auth

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xela07ax/webapi-auth-demo/internal/domain"
	"github.com/xela07ax/webapi-auth-demo/internal/infra"
)

// Issuer подписывает сессионные токены симметричным ключом (HS256).
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
	metrics  *infra.Metrics
}

// NewIssuer падает сразу, если секрет не задан: вызывается при старте процесса.
func NewIssuer(cfg infra.JwtConfig, opts ...Option) (*Issuer, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("%w: jwt.secret_key", domain.ErrConfigurationMissing)
	}
	cfg = cfg.WithDefaults()
	o := buildOptions(opts)

	return &Issuer{
		secret:   []byte(cfg.SecretKey),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.Expiration(),
		now:      o.now,
		metrics:  o.metrics,
	}, nil
}

// Issue формирует токен для identity. Случайных клеймов нет: при одинаковых identity,
// времени выдачи и конфиге результат побайтно совпадает.
func (i *Issuer) Issue(identity domain.UserIdentity) (string, error) {
	if identity.ID <= 0 || strings.TrimSpace(identity.Username) == "" {
		return "", domain.ErrInvalidIdentity
	}

	roles, err := encodeRoles(identity.Roles)
	if err != nil {
		return "", err
	}

	now := i.now()
	claims := &domain.TokenClaims{
		Name:  identity.Username,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   strconv.Itoa(identity.ID),
			Audience:  jwt.ClaimStrings{i.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	i.metrics.TokensIssued.Inc()
	return signed, nil
}

// encodeRoles всегда отдает JSON-массив: nil превращается в "[]", а не в null.
func encodeRoles(roles []string) (string, error) {
	if roles == nil {
		roles = []string{}
	}
	data, err := json.Marshal(roles)
	if err != nil {
		return "", fmt.Errorf("encode roles: %w", err)
	}
	return string(data), nil
}

func decodeRoles(raw string) ([]string, error) {
	if raw == "" {
		return nil, fmt.Errorf("roles claim is missing")
	}
	var roles []string
	if err := json.Unmarshal([]byte(raw), &roles); err != nil {
		return nil, fmt.Errorf("roles claim is not a JSON array: %w", err)
	}
	if roles == nil {
		return nil, fmt.Errorf("roles claim is null")
	}
	return roles, nil
}
