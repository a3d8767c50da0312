package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"github.com/xela07ax/webapi-auth-demo/internal/domain"
)

const maxResponseBody = 1 << 20

// ErrUnauthorized — сервис отверг токен (401).
var ErrUnauthorized = errors.New("unauthorized")

// StatusError — ответ с неожиданным HTTP статусом.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// API — HTTP клиент сервиса верификации.
// Сетевые сбои и 5xx повторяются с бэкоффом, всё это обернуто в Circuit Breaker.
type API struct {
	baseURL  string
	http     *http.Client
	cb       *gobreaker.CircuitBreaker
	attempts uint
	delay    time.Duration
}

type APIOption func(*API)

func WithHTTPClient(c *http.Client) APIOption {
	return func(a *API) { a.http = c }
}

// WithRetry задает число попыток и базовую задержку бэкоффа.
func WithRetry(attempts uint, delay time.Duration) APIOption {
	return func(a *API) {
		a.attempts = attempts
		a.delay = delay
	}
}

func NewAPI(baseURL string, opts ...APIOption) *API {
	a := &API{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 10 * time.Second},
		attempts: 3,
		delay:    200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(a)
	}

	// Настройка предохранителя
	a.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "auth-api",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 4xx и отказ по учетным данным не считаются поломкой сервиса
		IsSuccessful: func(err error) bool {
			return err == nil || !isTransient(err)
		},
	})
	return a
}

// ValidateUser — POST /api/Auth/ValidateUser.
// 400 тоже разбираем как LoginResponse: старые сервера отвечали так на пустые поля.
func (a *API) ValidateUser(ctx context.Context, username, password string) (*domain.LoginResponse, error) {
	var out domain.LoginResponse
	creds := domain.Credentials{Username: username, Password: password}
	if err := a.call(ctx, http.MethodPost, "/api/Auth/ValidateUser", "", creds, &out, http.StatusOK, http.StatusBadRequest); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me — GET /api/Auth/Me, серверная перепроверка токена.
func (a *API) Me(ctx context.Context, token string) (*domain.SessionClaims, error) {
	var out domain.SessionClaims
	err := a.call(ctx, http.MethodGet, "/api/Auth/Me", token, nil, &out, http.StatusOK)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) call(ctx context.Context, method, path, token string, in, out any, accept ...int) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	_, err := a.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(a.attempts),
			retry.Delay(a.delay),
			retry.DelayType(retry.BackOffDelay),
			retry.RetryIf(isTransient),
			retry.LastErrorOnly(true),
		)
		return nil, r.Do(func() error {
			return a.roundTrip(ctx, method, path, token, payload, out, accept)
		})
	})
	return err
}

func (a *API) roundTrip(ctx context.Context, method, path, token string, payload []byte, out any, accept []int) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if !slices.Contains(accept, resp.StatusCode) {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// isTransient: повторяем сетевые ошибки, 429 и 5xx. Отмену контекста не повторяем.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= http.StatusInternalServerError
	}
	var ue *url.Error
	return errors.As(err, &ue)
}
