package domain

import "time"

// Role names granted to accounts.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// User is an account that owns, works on, and comments on tickets.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

// UserRef is the weak link tickets and comments keep to a user.
type UserRef struct {
	ID    string
	Email string
}

// Ref returns the reference stored on tickets and comments.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Email: u.Email}
}

// HasRole reports whether the user was granted role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
