package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/wayfarer-app/wayfarer/internal/platform/httpx"
	"github.com/wayfarer-app/wayfarer/internal/shared"
)

// FailureCounter records rejected credentials by reason.
type FailureCounter interface {
	AuthFailure(reason string)
}

// Middleware runs the access-control pipeline for HTTP handlers: extract
// the credential, verify it, resolve the principal and, where a policy is
// declared, authorize the role.
type Middleware struct {
	Tokens   *TokenManager
	Service  *Service
	Logger   *slog.Logger
	Failures FailureCounter
}

// Require rejects requests that do not carry a valid, fresh credential for
// an active account. The resolved principal is stored in the request
// context.
func (m Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.resolve(r)
		if err != nil {
			m.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}

// RequireRoles runs the full pipeline and then checks the resolved
// principal's role against the policy. The role check is never reached
// without a resolved principal.
func (m Middleware) RequireRoles(roles ...Role) func(http.Handler) http.Handler {
	policy := AllowRoles(roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := m.resolve(r)
			if err != nil {
				m.fail(w, r, err)
				return
			}
			if !policy.Allows(principal.Role) {
				m.fail(w, r, shared.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// Probe attempts the pipeline but treats every failure as an anonymous
// request. Used by rendered pages for personalization only; it must never
// gate a protected action.
func (m Middleware) Probe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principal, err := m.resolve(r); err == nil {
			r = r.WithContext(ContextWithPrincipal(r.Context(), principal))
		}
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) resolve(r *http.Request) (*Principal, error) {
	token, ok := TokenFromRequest(r)
	if !ok {
		return nil, shared.ErrCredentialAbsent
	}
	accountID, issuedAt, err := m.Tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	return m.Service.Resolve(r.Context(), accountID, issuedAt)
}

func (m Middleware) fail(w http.ResponseWriter, r *http.Request, err error) {
	if !shared.IsOperational(err) && m.Logger != nil {
		m.Logger.Error("access control pipeline", slog.Any("error", err), slog.String("path", r.URL.Path))
	}
	if m.Failures != nil {
		m.Failures.AuthFailure(failureReason(err))
	}
	httpx.RespondError(w, err)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, shared.ErrCredentialAbsent):
		return "absent"
	case errors.Is(err, shared.ErrExpiredCredential):
		return "expired"
	case errors.Is(err, shared.ErrStaleCredential):
		return "stale"
	case errors.Is(err, shared.ErrPrincipalNotFound):
		return "principal_not_found"
	case errors.Is(err, shared.ErrForbidden):
		return "forbidden"
	case errors.Is(err, shared.ErrInvalidCredential):
		return "invalid"
	default:
		return "error"
	}
}
