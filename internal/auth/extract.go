package auth

import (
	"net/http"
	"strings"
)

// CookieName is the cookie carrying the credential.
const CookieName = "jwt"

// LogoutSentinel is the value the logout handler writes over the cookie.
const LogoutSentinel = "loggedout"

const bearerPrefix = "Bearer "

// TokenFromRequest extracts the credential string from the request. The
// cookie takes precedence; a `Authorization: Bearer <token>` header is the
// fallback. A malformed header or the logout sentinel counts as absent,
// never as an error.
func TokenFromRequest(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" && cookie.Value != LogoutSentinel {
		return cookie.Value, true
	}
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := header[len(bearerPrefix):]
	if token == "" {
		return "", false
	}
	return token, true
}
