package session

import (
	"context"
	"time"
)

// CookieName is the client-side token carrying the opaque session identity.
const CookieName = "session_id"

// TTL is the rolling session lifetime. It must stay equal to the store's key
// expiry so session tokens and persisted history age out together.
const TTL = 7 * 24 * time.Hour

type contextKey string

const sessionIDKey contextKey = "session_id"

// WithSessionID returns a context carrying the session identity.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// FromContext extracts the session identity injected by the middleware.
func FromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionIDKey).(string)
	if !ok || sessionID == "" {
		return "", false
	}
	return sessionID, true
}
