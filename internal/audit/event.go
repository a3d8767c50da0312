package audit

import "time"

// Outcome — исход попытки входа.
type Outcome string

const (
	OutcomeAccepted           Outcome = "accepted"
	OutcomeMissingCredentials Outcome = "missing_credentials"
	OutcomeInvalidCredentials Outcome = "invalid_credentials"
)

// LoginEvent — запись аудита о попытке входа. Пароля здесь нет и быть не должно.
type LoginEvent struct {
	ID         string    `json:"id"`         // UUID события
	RequestID  string    `json:"request_id"` // Сквозной ID запроса (chi RequestID)
	Username   string    `json:"username"`   // Кто пытался войти
	Outcome    Outcome   `json:"outcome"`
	UserID     int       `json:"user_id,omitempty"` // Только для accepted
	RemoteAddr string    `json:"remote_addr,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
