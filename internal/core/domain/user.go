package domain

import "time"

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleUser   = "user"
)

// DefaultRole is assigned to users that sign up without requesting a role.
const DefaultRole = RoleUser

// ValidRole reports whether role is one of the enumerated user roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleEditor, RoleUser:
		return true
	}
	return false
}

// User models an account that can authenticate against the API.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email,omitempty"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserFilter narrows a user lookup. Empty fields are ignored.
type UserFilter struct {
	Username string
	Email    string
	Role     string
}

// UserPatch holds the fields of a partial user update. Nil fields are left untouched.
type UserPatch struct {
	PasswordHash *string
	Email        *string
	Role         *string
}
