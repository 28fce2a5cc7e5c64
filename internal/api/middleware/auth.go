package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/velocart/storefront-backend/internal/errors"
	"github.com/velocart/storefront-backend/internal/identity"
	"github.com/velocart/storefront-backend/internal/utils/response"
)

type subjectContextKey string

// SubjectContextKey carries the verified subject id through the context.
const SubjectContextKey = subjectContextKey("subject")

type AuthMiddleware struct {
	provider identity.Provider
}

func NewAuthMiddleware(provider identity.Provider) *AuthMiddleware {
	return &AuthMiddleware{provider: provider}
}

// Authenticate verifies the bearer credential on every request before any
// state is touched. The subject id placed in the context is the only
// identity downstream code may use.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := LoggerFromContext(r.Context())

		authHeader := r.Header.Get("Authorization")

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			logger.Warn("Authorization header or ID token missing")
			response.Error(w, errors.UnauthorizedError("Authentication required."))

			return
		}

		subjectID, err := m.provider.VerifyToken(r.Context(), token)
		if err != nil {
			logger.Warn("Token verification failed", slog.String("error", err.Error()))
			response.Error(w, errors.UnauthorizedError("Authentication failed: Invalid token."))

			return
		}

		ctx := context.WithValue(r.Context(), SubjectContextKey, subjectID)

		requestScopedLogger := logger.With(slog.String("userId", subjectID))
		ctx = context.WithValue(ctx, LoggerKey, requestScopedLogger)

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// SubjectFromContext returns the verified subject id set by Authenticate.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subjectID, ok := ctx.Value(SubjectContextKey).(string)

	return subjectID, ok && subjectID != ""
}
