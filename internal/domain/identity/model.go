package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/apperr"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

var validRoles = map[Role]bool{
	RoleAdmin: true, RoleDoctor: true, RolePatient: true,
}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !validRoles[r] {
		return "", fmt.Errorf("unknown role %q: %w", s, apperr.ErrInvalidInput)
	}
	return r, nil
}

func (r Role) Valid() bool {
	return validRoles[r]
}

// Identity is a registered principal. It is created once and never changes.
type Identity struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	Registered bool      `json:"registered"`
	CreatedAt  time.Time `json:"created_at"`
}

// DisplayName renders the identity the way audit views show it.
func (i *Identity) DisplayName() string {
	if i.Role == RoleDoctor {
		return "Dr. " + i.Name
	}
	return i.Name
}
