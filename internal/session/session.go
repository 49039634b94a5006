// Package session supplies the identity of the currently logged-in viewer.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Context resolves the current viewer, if any. The reconciler uses it to
// attribute sends; the API layer populates it per request.
type Context interface {
	CurrentViewerID(ctx context.Context) (string, bool)
}

type viewerKey struct{}

// WithViewer returns a ctx carrying the authenticated viewer id.
func WithViewer(ctx context.Context, viewerID string) context.Context {
	return context.WithValue(ctx, viewerKey{}, viewerID)
}

// FromRequest reads the viewer id placed on the ctx by the auth middleware.
type FromRequest struct{}

func (FromRequest) CurrentViewerID(ctx context.Context) (string, bool) {
	viewerID, ok := ctx.Value(viewerKey{}).(string)
	return viewerID, ok && viewerID != ""
}

// Static always reports the same viewer. Used in tests and demo-only runs.
type Static struct {
	ViewerID string
}

func (s Static) CurrentViewerID(ctx context.Context) (string, bool) {
	return s.ViewerID, s.ViewerID != ""
}

// None reports that nobody is logged in.
type None struct{}

func (None) CurrentViewerID(ctx context.Context) (string, bool) {
	return "", false
}

// Manager issues and verifies JWT session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token for the user.
func (m *Manager) Issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses the token and returns the user id it was issued for.
func (m *Manager) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parsing session token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid session token")
	}
	return claims.Subject, nil
}
