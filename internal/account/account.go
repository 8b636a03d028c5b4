// Package account stores users, their wizard profile and saved profile
// templates behind a get/put repository keyed by email.
package account

import (
	"context"
	"errors"

	"resumecraft/internal/types"
)

// Role is the access level of an account.
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleClient Role = "Client"
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrUnverified         = errors.New("account is not verified")
	ErrExists             = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("admin role required")
)

// TemplateEntry is a named snapshot of profile data.
type TemplateEntry struct {
	ID   string            `json:"id"`
	Name string            `json:"name"`
	Data types.ProfileData `json:"data"`
}

// Record is the persisted form of an account.
type Record struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	PasswordHash string            `json:"passwordHash"`
	Role         Role              `json:"role"`
	Profile      types.ProfileData `json:"profileData"`
	Templates    []TemplateEntry   `json:"templates"`
	Verified     bool              `json:"isVerified"`
}

// User is an account as shown to callers, without the password hash.
type User struct {
	ID        string            `json:"id"`
	Email     string            `json:"email"`
	Role      Role              `json:"role"`
	Profile   types.ProfileData `json:"profileData"`
	Templates []TemplateEntry   `json:"templates"`
	Verified  bool              `json:"isVerified"`
}

// Public strips credentials from r.
func (r Record) Public() User {
	templates := r.Templates
	if templates == nil {
		templates = []TemplateEntry{}
	}
	return User{
		ID:        r.ID,
		Email:     r.Email,
		Role:      r.Role,
		Profile:   r.Profile,
		Templates: templates,
		Verified:  r.Verified,
	}
}

// Repository persists account records. Get returns ErrNotFound for an
// unknown email. Emails lists every stored email in ascending order.
type Repository interface {
	Get(ctx context.Context, email string) (Record, error)
	Put(ctx context.Context, record Record) error
	Emails(ctx context.Context) ([]string, error)
}
