package model

import "time"

// UserRole represents the role of a user in the system
type UserRole string

const (
	UserRoleUser      UserRole = "user"
	UserRoleSuperuser UserRole = "superuser"
)

// User represents a user account. Accounts are provisioned by the identity
// provider; this service only reads them.
type User struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email,omitempty"`
	Name       string    `json:"name,omitempty"`
	Role       UserRole  `json:"role"`
	IsActive   bool      `json:"is_active"`
	DateJoined time.Time `json:"date_joined"`
}

// IsSuperuser returns true if the user has the superuser role
func (u *User) IsSuperuser() bool {
	return u.Role == UserRoleSuperuser
}

// Principal is the authenticated caller of a request, built from token claims
type Principal struct {
	UserID   string
	Username string
	Role     UserRole
}

// IsSuperuser returns true if the principal has the superuser role
func (p *Principal) IsSuperuser() bool {
	return p != nil && p.Role == UserRoleSuperuser
}
