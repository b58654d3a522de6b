package api

import (
	"net/http"

	"convohub-backend/internal/session"

	"github.com/google/uuid"
)

// SessionMiddleware translates the client-held session cookie into an
// explicit session identity on the request context. A request without a
// valid cookie gets a freshly minted UUID. The cookie is re-issued on every
// request, giving it the same rolling 7-day validity as the store's key
// expiry.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if cookie, err := r.Cookie(session.CookieName); err == nil {
			if _, parseErr := uuid.Parse(cookie.Value); parseErr == nil {
				sessionID = cookie.Value
			}
		}
		if sessionID == "" {
			sessionID = uuid.New().String()
		}

		http.SetCookie(w, &http.Cookie{
			Name:     session.CookieName,
			Value:    sessionID,
			Path:     "/",
			MaxAge:   int(session.TTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		next.ServeHTTP(w, r.WithContext(session.WithSessionID(r.Context(), sessionID)))
	})
}
