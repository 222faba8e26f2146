package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dkovalev/accountd/internal/server/models"
)

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// extractToken pulls the access token from the accessToken cookie or, as a
// fallback, from the Authorization: Bearer header. The cookie wins when both
// are present.
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// authenticate verifies the request's access token, resolves the account, and
// attaches it to the request context. Missing, invalid, or orphaned tokens
// are rejected with 403.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeError(w, http.StatusForbidden, "Unauthorized Request")
			return
		}

		user, err := s.users.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusForbidden, "Invalid Access Token")
			return
		}

		ctx := context.WithValue(r.Context(), currentUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin rejects requests whose authenticated identity is not an admin.
// It must run after authenticate.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r.Context())
		if user == nil || !user.IsAdmin {
			writeError(w, http.StatusUnauthorized, "Not authorized as Admin")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentUser returns the identity attached by the authenticate middleware,
// or nil when the request is unauthenticated.
func CurrentUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(currentUserKey).(*models.User)
	return user
}
