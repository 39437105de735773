package middleware

import (
	"context"
	"net/http"
	"strings"

	"eventmigrate/backend/internal/auth"
)

type contextKey string

const operatorKey contextKey = "operator"

// OperatorFromContext returns the login of the authenticated operator.
func OperatorFromContext(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(operatorKey).(string)
	return val, ok && val != ""
}

func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing Authorization", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				http.Error(w, "invalid Authorization", http.StatusUnauthorized)
				return
			}
			claims, err := auth.ParseAccessToken(secret, parts[1])
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			setRequestOperator(r.Context(), claims.Login)
			ctx := context.WithValue(r.Context(), operatorKey, claims.Login)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
