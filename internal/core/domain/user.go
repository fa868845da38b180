package domain

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	default:
		return false
	}
}

func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", WrapError(ErrInvalidInput, "parse role", fmt.Errorf("unknown role %q", raw))
	}
	return role, nil
}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u User) Principal() Principal {
	return Principal{ID: u.ID, Email: u.Email, Role: u.Role}
}

type NewUser struct {
	Email    string
	Password string
	Role     Role
}

// UserPatch carries optional user fields; nil means unchanged.
type UserPatch struct {
	Email    *string
	Password *string
	Role     *Role
}

// SessionClaims is the identity payload carried by a session token.
type SessionClaims struct {
	Subject string
	Email   string
	Role    Role
}

type Session struct {
	AccessToken string    `json:"access_token"`
	User        Principal `json:"user"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
