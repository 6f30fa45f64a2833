package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/Paul-Karonji/Juba-Errands/internal/server/authctx"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware verifies an HMAC-signed access token and stores the caller in the
// request context. Tokens are issued elsewhere; this service only checks them.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims := jwt.MapClaims{}
			token, err := parser.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (any, error) {
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				writeAuthError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if tt, _ := claims["token_type"].(string); tt != "access" {
				writeAuthError(w, http.StatusUnauthorized, "invalid token type")
				return
			}
			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				writeAuthError(w, http.StatusUnauthorized, "invalid subject")
				return
			}
			email, _ := claims["email"].(string)
			role, _ := claims["role"].(string)
			ctx := authctx.With(r.Context(), authctx.Caller{
				Subject: sub,
				Email:   email,
				Role:    domain.UserRole(role),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers that hold none of roles.
func RequireRole(roles ...domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := authctx.From(r.Context())
			if c == nil || !c.HasRole(roles...) {
				writeAuthError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	kind := "unauthorized"
	if status == http.StatusForbidden {
		kind = "forbidden"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "error",
		"message": message,
		"data":    nil,
		"error": map[string]any{
			"code":   status,
			"status": http.StatusText(status),
			"kind":   kind,
		},
	})
}
