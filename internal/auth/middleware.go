package auth

import (
	"context"
	"net/http"
	"strings"

	httperrors "github.com/bavakarni05/quizapp/pkg/http/errors"
)

type contextKey struct{}

var claimsKey contextKey

// ClaimsFromContext returns the authenticated claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// RequireAuth validates the Bearer token and stores its claims in the
// request context.
func (s *Service) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Missing bearer token")
			return
		}

		claims, err := s.ValidateToken(token)
		if err != nil {
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid token")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	}
}

// RequireRole further restricts an authenticated endpoint to one role.
func (s *Service) RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return s.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		if claims == nil || claims.Role != role {
			httperrors.RespondError(w, http.StatusForbidden, httperrors.ErrCodeForbidden, "Insufficient role")
			return
		}
		next(w, r)
	})
}
