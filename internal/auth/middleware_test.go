package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipelineFixture struct {
	middleware Middleware
	tokens     *TokenManager
	repo       *mockRepository
	service    *Service
	account    *Account
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	repo := newMockRepository()
	tokens := NewTokenManager("test-secret", time.Hour, "wayfarer")
	service := NewService(repo, tokens, &mockNotifier{}, nil, 10*time.Minute)
	account, _, err := service.SignUp(context.Background(), SignUpParams{
		Name:     "Ada Wayfarer",
		Email:    "ada@example.com",
		Password: "pass1234",
	})
	require.NoError(t, err)
	return &pipelineFixture{
		middleware: Middleware{Tokens: tokens, Service: service},
		tokens:     tokens,
		repo:       repo,
		service:    service,
		account:    account,
	}
}

func (f *pipelineFixture) mint(t *testing.T, issuedAt time.Time) string {
	t.Helper()
	token, err := f.tokens.Mint(f.account.ID, issuedAt)
	require.NoError(t, err)
	return token
}

func principalEcho(captured **Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAcceptsValidCookie(t *testing.T) {
	f := newPipelineFixture(t)

	var principal *Principal
	handler := f.middleware.Require(principalEcho(&principal))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: f.mint(t, time.Now())})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, principal)
	assert.Equal(t, f.account.ID, principal.ID)
	assert.Equal(t, RoleUser, principal.Role)
}

func TestRequireRejectsMissingCredential(t *testing.T) {
	f := newPipelineFixture(t)
	handler := f.middleware.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "not logged in")
}

func TestRequireRejectsBadToken(t *testing.T) {
	f := newPipelineFixture(t)
	handler := f.middleware.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRejectsStaleCredential(t *testing.T) {
	f := newPipelineFixture(t)

	token := f.mint(t, time.Now().Add(-time.Hour/2))
	changedAt := time.Now().Add(-time.Minute)
	f.repo.accounts[f.account.ID].PasswordChangedAt = &changedAt

	handler := f.middleware.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "password change")
}

func TestRequireRejectsDeactivatedAccount(t *testing.T) {
	f := newPipelineFixture(t)
	token := f.mint(t, time.Now())
	f.repo.accounts[f.account.ID].IsActive = false

	handler := f.middleware.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRolesDeniesOutsidePolicy(t *testing.T) {
	f := newPipelineFixture(t)
	token := f.mint(t, time.Now())

	handler := f.middleware.RequireRoles(RoleAdmin, RoleLeadGuide)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest(http.MethodDelete, "/tours/1", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRolesAllowsMember(t *testing.T) {
	f := newPipelineFixture(t)
	f.repo.accounts[f.account.ID].Role = RoleAdmin
	token := f.mint(t, time.Now())

	var principal *Principal
	handler := f.middleware.RequireRoles(RoleAdmin, RoleLeadGuide)(principalEcho(&principal))

	r := httptest.NewRequest(http.MethodDelete, "/tours/1", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, principal)
	assert.Equal(t, RoleAdmin, principal.Role)
}

func TestRequireRolesWithoutCredentialIs401Not403(t *testing.T) {
	f := newPipelineFixture(t)
	handler := f.middleware.RequireRoles(RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest(http.MethodDelete, "/tours/1", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProbeNeverFails(t *testing.T) {
	f := newPipelineFixture(t)

	var principal *Principal
	handler := f.middleware.Probe(principalEcho(&principal))

	// Anonymous request passes through.
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, principal)

	// Garbage cookie still passes through anonymously.
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, principal)

	// Valid cookie personalizes.
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: f.mint(t, time.Now())})
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, principal)
	assert.Equal(t, f.account.ID, principal.ID)
}

type countingFailures struct {
	reasons []string
}

func (c *countingFailures) AuthFailure(reason string) {
	c.reasons = append(c.reasons, reason)
}

func TestFailuresAreCounted(t *testing.T) {
	f := newPipelineFixture(t)
	counter := &countingFailures{}
	f.middleware.Failures = counter

	deny := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	f.middleware.Require(deny).ServeHTTP(httptest.NewRecorder(), r)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer garbage")
	f.middleware.Require(deny).ServeHTTP(httptest.NewRecorder(), r)

	r = httptest.NewRequest(http.MethodDelete, "/tours/1", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: f.mint(t, time.Now())})
	f.middleware.RequireRoles(RoleAdmin)(deny).ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, []string{"absent", "invalid", "forbidden"}, counter.reasons)
}

func TestPolicyAllows(t *testing.T) {
	policy := AllowRoles(RoleAdmin, RoleLeadGuide)
	assert.True(t, policy.Allows(RoleAdmin))
	assert.True(t, policy.Allows(RoleLeadGuide))
	assert.False(t, policy.Allows(RoleUser))
	assert.False(t, policy.Allows(RoleGuide))
	assert.False(t, policy.Allows(Role("superadmin")))
}
