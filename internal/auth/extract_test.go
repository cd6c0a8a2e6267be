package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenFromRequestCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "cookie-token"})

	token, ok := TokenFromRequest(r)
	assert.True(t, ok)
	assert.Equal(t, "cookie-token", token)
}

func TestTokenFromRequestCookieWinsOverHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "cookie-token"})
	r.Header.Set("Authorization", "Bearer header-token")

	token, ok := TokenFromRequest(r)
	assert.True(t, ok)
	assert.Equal(t, "cookie-token", token)
}

func TestTokenFromRequestBearerFallback(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer header-token")

	token, ok := TokenFromRequest(r)
	assert.True(t, ok)
	assert.Equal(t, "header-token", token)
}

func TestTokenFromRequestLogoutSentinelFallsThrough(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: LogoutSentinel})

	_, ok := TokenFromRequest(r)
	assert.False(t, ok)

	r.Header.Set("Authorization", "Bearer header-token")
	token, ok := TokenFromRequest(r)
	assert.True(t, ok)
	assert.Equal(t, "header-token", token)
}

func TestTokenFromRequestAbsent(t *testing.T) {
	cases := map[string]string{
		"no header":       "",
		"wrong scheme":    "Basic abc123",
		"missing token":   "Bearer ",
		"lowercase forms": "bearer token",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				r.Header.Set("Authorization", header)
			}
			_, ok := TokenFromRequest(r)
			assert.False(t, ok)
		})
	}
}
