package auth

import (
	"net/http"
	"time"
)

const (
	// TokenCookie carries the JWT.
	TokenCookie = "token"
	// StateCookie carries the OAuth CSRF state between login and callback.
	StateCookie = "oauth_state"

	stateTTL = 10 * time.Minute
)

// SetTokenCookie stores token in an HttpOnly cookie. JavaScript cannot read
// it, so an XSS bug cannot steal the session. SameSite=Lax keeps the cookie
// off cross-site POSTs.
func SetTokenCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookie tells the browser to delete the token cookie.
func ClearTokenCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetStateCookie stores the OAuth state for the callback to compare.
func SetStateCookie(w http.ResponseWriter, state string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearStateCookie removes the single-use OAuth state.
func ClearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   StateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
