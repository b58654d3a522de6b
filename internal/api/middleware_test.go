package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"convohub-backend/internal/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionEcho(t *testing.T, captured *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := session.FromContext(r.Context())
		require.True(t, ok, "session ID must be on the request context")
		*captured = id
		w.WriteHeader(http.StatusOK)
	})
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatalf("response carries no %s cookie", session.CookieName)
	return nil
}

func TestSessionMiddleware_MintsIDWithoutCookie(t *testing.T) {
	var seen string
	handler := SessionMiddleware(sessionEcho(t, &seen))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/companion/ask", nil))

	_, err := uuid.Parse(seen)
	assert.NoError(t, err, "minted session ID should be a UUID")

	cookie := sessionCookie(t, rec.Result())
	assert.Equal(t, seen, cookie.Value)
	assert.Equal(t, int(session.TTL.Seconds()), cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)
}

func TestSessionMiddleware_ReusesValidCookie(t *testing.T) {
	existing := uuid.New().String()
	var seen string
	handler := SessionMiddleware(sessionEcho(t, &seen))

	req := httptest.NewRequest(http.MethodGet, "/v1/story/conversations", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: existing})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, existing, seen)
	// The cookie is re-issued to roll the expiry window forward.
	cookie := sessionCookie(t, rec.Result())
	assert.Equal(t, existing, cookie.Value)
}

func TestSessionMiddleware_ReplacesMalformedCookie(t *testing.T) {
	var seen string
	handler := SessionMiddleware(sessionEcho(t, &seen))

	req := httptest.NewRequest(http.MethodGet, "/v1/companion/recent", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "not-a-uuid"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.NotEqual(t, "not-a-uuid", seen)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
}
