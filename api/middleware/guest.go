package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// GuestSessionCookieName carries the anonymous session token between requests.
const GuestSessionCookieName = "sf_guest_session"

// GuestSession guarantees every request carries an anonymous session token,
// issuing a cookie on first contact. The token keys the redis guest cart.
func GuestSession(ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := GuestSessionFromCookie(r)
			if token == "" {
				token = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     GuestSessionCookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(ttl.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(WithGuestSession(r.Context(), token)))
		})
	}
}

// GuestSessionFromCookie reads the anonymous session token off the request,
// for handlers outside the guest middleware chain (login cart merge).
func GuestSessionFromCookie(r *http.Request) string {
	if cookie, err := r.Cookie(GuestSessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
