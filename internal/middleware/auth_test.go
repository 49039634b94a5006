package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillhunt/messaging-backend/internal/session"
)

func TestAuthMiddleware(t *testing.T) {
	assert := assert.New(t)
	sessions := session.NewManager("test-secret", time.Hour)

	var gotViewer string
	var gotOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotViewer, gotOK = session.FromRequest{}.CurrentViewerID(r.Context())
	})
	handler := Auth(sessions)(next)

	t.Run("valid token sets viewer", func(t *testing.T) {
		token, err := sessions.Issue("user42")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.True(gotOK)
		assert.Equal("user42", gotViewer)
	})

	t.Run("no token passes through anonymously", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(http.StatusOK, rec.Code)
		assert.False(gotOK)
	})

	t.Run("bad token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(http.StatusUnauthorized, rec.Code)
	})
}
