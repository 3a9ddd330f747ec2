package domain

import (
	"fmt"
	"strings"
)

// Role is the capability level of a membership.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Roles lists every valid role, highest capability first.
var Roles = []Role{RoleOwner, RoleAdmin, RoleMember}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// IsManager reports whether the role may manage the vault.
func (r Role) IsManager() bool {
	return r == RoleOwner || r == RoleAdmin
}

func (r Role) String() string { return string(r) }

// ParseRole normalises and validates a role name.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if !role.Valid() {
		return "", fmt.Errorf("domain: unknown role %q", value)
	}
	return role, nil
}

// VaultStatus tracks soft deletion of a vault.
type VaultStatus string

const (
	VaultActive   VaultStatus = "active"
	VaultExcluded VaultStatus = "excluded"
)

// MembershipStatus tracks removal of a member from a vault.
type MembershipStatus string

const (
	MembershipActive   MembershipStatus = "active"
	MembershipExcluded MembershipStatus = "excluded"
)

// InviteStatus is derived from the accepted flag and the expiry window.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteExpired  InviteStatus = "expired"
)

// UserRef identifies a user owned by the hosting application.
type UserRef struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Locale string `json:"locale,omitempty"`
}

// DisplayName prefers the name, falling back to the email.
func (u UserRef) DisplayName() string {
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.Email
}

// Principal is an authenticated user able to confirm their login password.
// Passwords are supplied per request and never stored.
type Principal interface {
	Ref() UserRef
	CheckPassword(password string) bool
}
