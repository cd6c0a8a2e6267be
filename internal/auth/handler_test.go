package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestCredentialRoutesAreRateLimited(t *testing.T) {
	f := newPipelineFixture(t)
	handler := NewHandler(nil, f.service, HandlerConfig{CookieTTL: time.Hour})

	r := chi.NewRouter()
	handler.MountRoutes(r, f.middleware)

	login := func() int {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"ada@example.com","password":"wrong"}`))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < credentialRateLimit; i++ {
		assert.Equal(t, http.StatusUnauthorized, login(), "attempt %d must reach the handler", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, login(), "the bucket must close after the limit")

	// Logout sits outside the tight bucket and still goes through.
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
