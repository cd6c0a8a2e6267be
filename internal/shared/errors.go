package shared

import "errors"

// Operational errors surfaced to API callers with a 4xx status. Anything
// not in this list is treated as unexpected and masked before it reaches
// the client.
var (
	// ErrCredentialAbsent indicates no token was found in the request.
	ErrCredentialAbsent = errors.New("not logged in")
	// ErrInvalidCredential indicates a malformed or badly signed token.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrExpiredCredential indicates a token past its encoded expiry.
	ErrExpiredCredential = errors.New("credential expired")
	// ErrStaleCredential indicates a token issued before the last password change.
	ErrStaleCredential = errors.New("credential issued before password change")
	// ErrPrincipalNotFound indicates the token's account no longer exists or is inactive.
	ErrPrincipalNotFound = errors.New("account no longer exists")
	// ErrForbidden indicates the caller's role is not in the route policy.
	ErrForbidden = errors.New("permission denied")
	// ErrResetTokenInvalid indicates an unknown or expired password reset token.
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
	// ErrInvalidCredentials indicates an email/password login failure.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness violation.
	ErrDuplicate = errors.New("already exists")
	// ErrConflict indicates the resource's current state forbids the operation.
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates a rejected request payload.
	ErrValidation = errors.New("validation failed")
)

// IsOperational reports whether err belongs to the client-facing taxonomy.
func IsOperational(err error) bool {
	for _, target := range []error{
		ErrCredentialAbsent,
		ErrInvalidCredential,
		ErrExpiredCredential,
		ErrStaleCredential,
		ErrPrincipalNotFound,
		ErrForbidden,
		ErrResetTokenInvalid,
		ErrInvalidCredentials,
		ErrNotFound,
		ErrDuplicate,
		ErrConflict,
		ErrValidation,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// UserSafeMessage returns a message suitable for API responses. Unexpected
// errors are masked so internal detail never leaks to the caller.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	if IsOperational(err) {
		return err.Error()
	}
	return "something went wrong"
}
