package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/xela07ax/webapi-auth-demo/internal/domain"
	"go.uber.org/zap"
)

// TokenValidator — то, что нужно middleware от валидатора.
type TokenValidator interface {
	VerifyToken(tokenStr string) (*domain.SessionClaims, error)
}

type claimsKey struct{}

// WithClaims кладет проверенные клеймы в контекст.
func WithClaims(ctx context.Context, c *domain.SessionClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext достает клеймы, положенные middleware.
func ClaimsFromContext(ctx context.Context) (*domain.SessionClaims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*domain.SessionClaims)
	return c, ok && c != nil
}

// NewMiddleware требует заголовок "Authorization: Bearer <token>" и проверяет токен на каждом запросе.
func NewMiddleware(v TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeUnauthorized(w)
				return
			}

			claims, err := v.VerifyToken(token)
			if err != nil {
				logger.Warn("auth failure",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("path", r.URL.Path),
					zap.Error(err))
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error": "unauthorized"}`))
}
