package model

import (
	"strings"

	"github.com/google/uuid"
)

// Role is the caller's role as carried in the access token's "role" claim.
// Tokens are issued by the external auth service; this service only reads
// them.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleHost     Role = "HOST"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole normalises a role claim.  Unknown roles return false.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleCustomer, RoleHost, RoleAdmin:
		return r, true
	}
	return "", false
}

// Actor identifies who is performing an operation.
//
// Fields:
//
//	UserID – subject of the access token.
//	Role   – role claim of the access token.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin reports whether the actor may use operator overrides.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
