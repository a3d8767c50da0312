package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xela07ax/webapi-auth-demo/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier решает, подлинна ли пара логин/пароль.
// Реальный identity-бэкенд подключается через этот интерфейс без изменений в издателе/валидаторе.
type CredentialVerifier interface {
	Verify(ctx context.Context, creds domain.Credentials) (*domain.UserIdentity, error)
}

var credentialsValidator = validator.New()

// DemoIdentity — пользователь, которого возвращает демо-верификатор.
func DemoIdentity() domain.UserIdentity {
	return domain.UserIdentity{
		ID:       1,
		Username: "admin",
		Email:    "admin@example.com",
		FullName: "Administrator",
		Roles:    []string{"Admin", "Owner"},
	}
}

// StaticVerifier принимает ровно одну пару учетных данных.
// Пароль держим только в виде bcrypt-хеша, сравнение идет за постоянное время.
type StaticVerifier struct {
	username     string
	passwordHash []byte
	identity     domain.UserIdentity
}

func NewStaticVerifier(username, password string, identity domain.UserIdentity, bcryptCost int) (*StaticVerifier, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("static verifier: %w", domain.ErrMissingCredentials)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("static verifier: hash password: %w", err)
	}
	return &StaticVerifier{
		username:     username,
		passwordHash: hash,
		identity:     identity,
	}, nil
}

// NewDemoVerifier — admin/password из демо.
func NewDemoVerifier(bcryptCost int) (*StaticVerifier, error) {
	return NewStaticVerifier("admin", "password", DemoIdentity(), bcryptCost)
}

func (v *StaticVerifier) Verify(_ context.Context, creds domain.Credentials) (*domain.UserIdentity, error) {
	// пробелы учитываем только при проверке на пустоту, сравниваем логин как есть
	required := domain.Credentials{Username: strings.TrimSpace(creds.Username), Password: creds.Password}
	if err := credentialsValidator.Struct(required); err != nil {
		return nil, domain.ErrMissingCredentials
	}

	// bcrypt считаем всегда, чтобы время ответа не выдавало существование логина
	userOK := subtle.ConstantTimeCompare([]byte(creds.Username), []byte(v.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(v.passwordHash, []byte(creds.Password))
	if !userOK || passErr != nil {
		return nil, domain.ErrInvalidCredentials
	}

	identity := v.identity
	identity.Roles = slices.Clone(v.identity.Roles)
	return &identity, nil
}
