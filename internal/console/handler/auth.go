package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/xela07ax/webapi-auth-demo/internal/console/service"
	"github.com/xela07ax/webapi-auth-demo/internal/domain"
	"github.com/xela07ax/webapi-auth-demo/internal/infra/auth"
	"go.uber.org/zap"
)

const maxLoginBody = 1 << 20

// LoginService описываем, что нам нужно от сервиса
type LoginService interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResponse, error)
}

type AuthHandler struct {
	service LoginService
	logger  *zap.Logger
}

func NewAuthHandler(s LoginService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: s, logger: logger.Named("auth-handler")}
}

// ValidateUser — POST /api/Auth/ValidateUser.
// Отказ по учетным данным (пустые поля или неверная пара) всегда 200 + isValid=false.
// 400 только для тела, которое не удалось разобрать как JSON.
func (h *AuthHandler) ValidateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.Credentials
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody))
	// после объекта допустимы только пробелы
	if err := dec.Decode(&req); err != nil || dec.More() {
		writeJSON(w, http.StatusBadRequest, domain.LoginResponse{
			IsValid: false,
			Message: "Malformed request body.",
		})
		return
	}

	ctx := service.WithRemoteAddr(r.Context(), r.RemoteAddr)
	resp, err := h.service.Login(ctx, req)
	if err != nil {
		h.logger.Error("login failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, domain.LoginResponse{
			IsValid: false,
			Message: "Internal server error.",
		})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Me — GET /api/Auth/Me, только за auth middleware.
// Клиент повторно проверяет сохраненный токен, прежде чем доверять локальной записи о пользователе.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, claims)
}

// Health — liveness для мониторинга.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
