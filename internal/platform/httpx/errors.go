package httpx

import (
	"errors"
	"net/http"

	"github.com/wayfarer-app/wayfarer/internal/shared"
)

// RespondError maps domain errors to HTTP problem responses. Operational
// errors keep their message; anything unexpected is masked as an opaque
// internal error and left to the caller's logger.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrCredentialAbsent):
		Problem(w, http.StatusUnauthorized, "Not Logged In", err.Error())
	case errors.Is(err, shared.ErrInvalidCredential),
		errors.Is(err, shared.ErrExpiredCredential),
		errors.Is(err, shared.ErrStaleCredential),
		errors.Is(err, shared.ErrPrincipalNotFound),
		errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrResetTokenInvalid):
		Problem(w, http.StatusBadRequest, "Invalid Token", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
