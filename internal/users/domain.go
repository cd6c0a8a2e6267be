package users

import (
	"time"

	"github.com/wayfarer-app/wayfarer/internal/auth"
)

// User is the account projection exposed over the API. Credential material
// never leaves the repository layer.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Photo     string    `json:"photo,omitempty"`
	Role      auth.Role `json:"role"`
	IsActive  bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpdateProfileParams carries the self-service profile fields. Nil fields
// are untouched. Passwords move through the dedicated credential flow only.
type UpdateProfileParams struct {
	Name  *string
	Email *string
	Photo *string
}

// AdminUpdateParams extends the profile fields with administrative ones.
type AdminUpdateParams struct {
	Name     *string
	Email    *string
	Photo    *string
	Role     *auth.Role
	IsActive *bool
}
