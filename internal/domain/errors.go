package domain

import "errors"

var (
	// ErrMissingCredentials — одно из полей пустое, до сравнения дело не доходит.
	ErrMissingCredentials = errors.New("username and password are required")

	// ErrInvalidCredentials не уточняет, какое из полей неверно.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrConfigurationMissing фатальна: без секрета процесс не должен принимать запросы.
	ErrConfigurationMissing = errors.New("signing secret is not configured")

	// ErrTokenInvalid — единственный исход любой неудачной проверки токена.
	ErrTokenInvalid = errors.New("invalid token")

	ErrInvalidIdentity = errors.New("identity requires a positive id and a username")
)
