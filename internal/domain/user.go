package domain

import (
	"net/mail"
	"strings"
	"time"
)

type Role string

const (
	RoleClient Role = "client"
	RoleWorker Role = "worker"
	RoleOwner  Role = "owner"
)

func (r Role) IsValid() bool {
	return r == RoleClient || r == RoleWorker || r == RoleOwner
}

// User is both the auth principal and the loyalty account. The tier is
// derived from points and never stored.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Points       int
	Orders       []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) Tier() Tier {
	return TierOf(u.Points)
}

func (u *User) IsStaff() bool {
	return u.Role == RoleWorker || u.Role == RoleOwner
}

func (u *User) IsOwner() bool {
	return u.Role == RoleOwner
}

// CanView reports whether u may read the profile of userID.
func (u *User) CanView(userID string) bool {
	return u.ID == userID || u.IsStaff()
}

// CanEdit reports whether u may modify the profile of userID.
func (u *User) CanEdit(userID string) bool {
	return u.ID == userID || u.IsOwner()
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return NewValidationError("email", "must be a valid email address")
	}
	return nil
}
