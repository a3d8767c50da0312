package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/webapi-auth-demo/internal/domain"
	"go.uber.org/zap"
)

func TestMiddleware(t *testing.T) {
	cfg := testJwtConfig()
	tokenStr, err := newTestIssuer(t, cfg, issuedAt).Issue(adminIdentity())
	require.NoError(t, err)
	validator := newTestValidator(t, cfg, issuedAt)

	var seen *domain.SessionClaims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		seen = claims
		w.WriteHeader(http.StatusNoContent)
	})
	handler := NewMiddleware(validator, zap.NewNop())(next)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "valid", header: "Bearer " + tokenStr, status: http.StatusNoContent},
		{name: "lowercase scheme", header: "bearer " + tokenStr, status: http.StatusNoContent},
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "no scheme", header: tokenStr, status: http.StatusUnauthorized},
		{name: "basic scheme", header: "Basic YWRtaW46cGFzc3dvcmQ=", status: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", status: http.StatusUnauthorized},
		{name: "tampered", header: "Bearer " + tokenStr + "x", status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/Auth/Me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				assert.Nil(t, seen)
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
				assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
				return
			}
			require.NotNil(t, seen)
			assert.Equal(t, 1, seen.UserID)
			assert.Equal(t, "admin", seen.Username)
		})
	}
}

func TestClaimsFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	claims, ok := ClaimsFromContext(req.Context())
	assert.False(t, ok)
	assert.Nil(t, claims)
}
