package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shelfnotes/bookreview/pkg/httputil"
	"github.com/shelfnotes/bookreview/pkg/logger"
)

// Claims is the identity a validated bearer token carries.
type Claims struct {
	UserID string `json:"user_id"`
}

// TokenValidator validates a raw bearer token and returns its claims.
type TokenValidator func(token string) (*Claims, error)

// Auth rejects requests without a valid bearer token with 401 before the
// next handler runs. On success the user id is stored in the request context
// and added to the request-scoped logger.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, r, "missing authorization header")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				writeAuthError(w, r, "invalid authorization header format")
				return
			}

			claims, err := validate(token)
			if err != nil || claims == nil || claims.UserID == "" {
				writeAuthError(w, r, "invalid or expired token")
				return
			}

			ctx := logger.WithUserID(r.Context(), claims.UserID)
			ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("user_id", claims.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the authenticated user id, or "" outside Auth.
func UserIDFromContext(ctx context.Context) string {
	return logger.UserIDFromContext(ctx)
}

func writeAuthError(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="bookreview"`)
	httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorEnvelope{
		Error: &httputil.ErrorResponse{
			Code:      "UNAUTHORIZED",
			Message:   message,
			RequestID: logger.CorrelationIDFromContext(r.Context()),
		},
	})
}
