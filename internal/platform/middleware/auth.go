package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// TokenValidator defines the interface for validating admin JWT tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*AdminClaims, error)
}

// AdminClaims represents the claims we expect from the token validator.
type AdminClaims struct {
	Email string
	Role  string
}

type contextKeyAdminEmail struct{}

// ContextKeyAdminEmail is exported for use in handlers.
var ContextKeyAdminEmail = contextKeyAdminEmail{}

// GetAdminEmail retrieves the authenticated admin email from the context.
func GetAdminEmail(ctx context.Context) string {
	email, ok := ctx.Value(ContextKeyAdminEmail).(string)
	if !ok {
		return ""
	}
	return email
}

// RequireAuth guards admin routes behind a Bearer JWT.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				unauthorized(w, r, logger, "missing token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				unauthorized(w, r, logger, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyAdminEmail, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, logger *slog.Logger, reason string) {
	logger.WarnContext(r.Context(), "unauthorized access",
		"reason", reason,
		"request_id", GetRequestID(r.Context()),
		"path", r.URL.Path,
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"error":{"code":"UNAUTHORIZED","message":"Invalid or missing authentication token"}}`))
}
