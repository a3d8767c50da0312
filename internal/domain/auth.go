package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credentials — то, что присылает клиент на логин.
// Пароль никогда не логируем и нигде не сохраняем.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserIdentity выдается верификатором при успешной проверке и неизменна на всю жизнь токена.
type UserIdentity struct {
	ID       int      `json:"userId"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	FullName string   `json:"fullName"`
	Roles    []string `json:"roles"`
}

// TokenClaims — payload сессионного токена (HS256).
// Roles хранится как JSON-массив, сериализованный в строку: "[\"Admin\",\"Owner\"]".
type TokenClaims struct {
	Name  string `json:"name"`
	Roles string `json:"roles"`
	jwt.RegisteredClaims
}

// SessionClaims — проверенный набор клеймов, который видят вызывающие.
type SessionClaims struct {
	UserID    int       `json:"userId"`
	Username  string    `json:"username"`
	Issuer    string    `json:"issuer"`
	Roles     []string  `json:"roles"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LoginResponse — контракт эндпоинта верификации.
type LoginResponse struct {
	IsValid bool          `json:"isValid"`
	Message string        `json:"message"`
	Token   string        `json:"token,omitempty"`
	User    *UserIdentity `json:"user,omitempty"`
}
