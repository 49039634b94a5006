package middleware

import (
	"net/http"
	"strings"

	"github.com/skillhunt/messaging-backend/internal/session"
)

// Auth verifies a Bearer session token when present and puts the viewer id
// on the request context. Requests without a token pass through; handlers
// that need an authenticated viewer enforce it themselves.
func Auth(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				viewerID, err := sessions.Verify(strings.TrimPrefix(header, "Bearer "))
				if err != nil {
					http.Error(w, "invalid session token", http.StatusUnauthorized)
					return
				}
				r = r.WithContext(session.WithViewer(r.Context(), viewerID))
			}
			next.ServeHTTP(w, r)
		})
	}
}
