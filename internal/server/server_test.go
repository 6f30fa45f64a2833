package server

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Paul-Karonji/Juba-Errands/internal/config"
	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/Paul-Karonji/Juba-Errands/internal/handler"
	"github.com/Paul-Karonji/Juba-Errands/internal/server/authctx"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func accessToken(t *testing.T, role domain.UserRole) string {
	return signToken(t, testSecret, jwt.MapClaims{
		"sub":        "42",
		"email":      "clerk@example.com",
		"role":       string(role),
		"token_type": "access",
		"exp":        time.Now().Add(time.Hour).Unix(),
	})
}

func TestAuthMiddleware(t *testing.T) {
	var seen *authctx.Caller
	h := AuthMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = authctx.From(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", jwt.MapClaims{"sub": "1", "token_type": "access"}), http.StatusUnauthorized},
		{"refresh token", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "1", "token_type": "refresh"}), http.StatusUnauthorized},
		{"no token type", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "1", "role": "admin", "exp": time.Now().Add(time.Hour).Unix()}), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "1", "token_type": "access", "exp": time.Now().Add(-time.Minute).Unix()}), http.StatusUnauthorized},
		{"no subject", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"role": "admin", "token_type": "access"}), http.StatusUnauthorized},
		{"valid", "Bearer " + accessToken(t, domain.RoleStaff), http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusNoContent {
				require.NotNil(t, seen)
				assert.Equal(t, "42", seen.Subject)
				assert.Equal(t, domain.RoleStaff, seen.Role)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(domain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for role, want := range map[domain.UserRole]int{
		domain.RoleAdmin: http.StatusNoContent,
		domain.RoleStaff: http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(authctx.With(req.Context(), authctx.Caller{Subject: "1", Role: role}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoggerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := middleware.RequestID(NewLoggerMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/pot", nil))

	line := buf.String()
	assert.Contains(t, line, "method=GET")
	assert.Contains(t, line, "path=/pot")
	assert.Contains(t, line, "status=418")
	assert.Contains(t, line, "bytes=15")
	assert.Contains(t, line, "request_id=")
}

type stubWriter struct{ deleted []int64 }

func (s *stubWriter) CreateShipment(context.Context, domain.CreateShipmentInput) (*domain.ShipmentView, error) {
	return nil, domain.ErrConflict
}

func (s *stubWriter) UpdateShipment(context.Context, int64, domain.ShipmentUpdate) (*domain.ShipmentView, error) {
	return nil, domain.ErrNotFound
}

func (s *stubWriter) DeleteShipment(_ context.Context, id int64) (bool, error) {
	s.deleted = append(s.deleted, id)
	return true, nil
}

type stubHealth struct{}

func (stubHealth) Health(context.Context) error { return nil }

func newTestRouter(secret string, w *stubWriter) http.Handler {
	cfg := config.Config{JWTSecret: secret, AllowedOrigins: []string{"*"}}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return NewRouter(cfg, logger,
		handler.HealthHandler{DB: stubHealth{}},
		handler.ShipmentHandler{Writer: w},
		handler.PartyHandler{Role: domain.RoleSender},
		handler.PartyHandler{Role: domain.RoleReceiver},
		handler.ChargeHandler{},
		handler.PaymentHandler{},
		handler.DashboardHandler{},
	)
}

func TestRouter_AuthEnforcedWhenSecretSet(t *testing.T) {
	w := &stubWriter{}
	router := newTestRouter(testSecret, w)

	call := func(method, path, token string) int {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/health", ""))
	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/api/health", ""))
	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/metrics", ""))
	assert.Equal(t, http.StatusUnauthorized, call(http.MethodDelete, "/api/shipments/5", ""))
	assert.Equal(t, http.StatusForbidden, call(http.MethodDelete, "/api/shipments/5", accessToken(t, domain.RoleStaff)))
	assert.Empty(t, w.deleted)
	assert.Equal(t, http.StatusOK, call(http.MethodDelete, "/api/shipments/5", accessToken(t, domain.RoleAdmin)))
	assert.Equal(t, []int64{5}, w.deleted)
	assert.Equal(t, http.StatusBadRequest, call(http.MethodPost, "/api/shipments", accessToken(t, domain.RoleStaff)), "empty body reaches the handler")
}

func TestRouter_OpenWithoutSecret(t *testing.T) {
	w := &stubWriter{}
	router := newTestRouter("", w)

	req := httptest.NewRequest(http.MethodDelete, "/api/shipments/9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{9}, w.deleted)
}
