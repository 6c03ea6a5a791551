package auth

import (
	"time"

	"github.com/atrium-admin/atrium/internal/shared"
)

// User represents an account able to authenticate against the platform.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Kind         string
	IsSuperAdmin bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal projects the user into the identity the authorization
// engine decides over.
func (u *User) Principal() shared.Principal {
	return shared.Principal{
		ID:           u.ID,
		Email:        u.Email,
		Kind:         u.Kind,
		IsSuperAdmin: u.IsSuperAdmin,
	}
}
