package auth

import "time"

// Role classifies an account. The set is closed; anything else is denied.
type Role string

// Account roles.
const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// ParseRole validates a stored role tag.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// Principal is the authenticated actor bound to a single request. The role
// is read once at resolution time and never re-checked mid-request.
type Principal struct {
	ID    int64
	Name  string
	Email string
	Photo string
	Role  Role
}

// Account is the stored user record, including the credential metadata the
// pipeline validates against.
type Account struct {
	ID                int64
	Name              string
	Email             string
	Photo             string
	Role              Role
	PasswordHash      string
	PasswordChangedAt *time.Time
	ResetTokenHash    *string
	ResetTokenExpires *time.Time
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Principal projects the account onto its request-scoped identity.
func (a *Account) Principal() Principal {
	return Principal{ID: a.ID, Name: a.Name, Email: a.Email, Photo: a.Photo, Role: a.Role}
}

// Policy is the set of roles permitted to perform an operation. Absence
// from the set is a hard deny; there is no default-allow.
type Policy map[Role]struct{}

// AllowRoles builds a policy from an explicit role list.
func AllowRoles(roles ...Role) Policy {
	p := make(Policy, len(roles))
	for _, r := range roles {
		p[r] = struct{}{}
	}
	return p
}

// Allows reports whether the role is a member of the policy set.
func (p Policy) Allows(r Role) bool {
	_, ok := p[r]
	return ok
}
