package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the authorization role carried by an identity.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ErrUnknownRole is returned by ParseRole for values outside the closed role set.
var ErrUnknownRole = errors.New("unknown role")

// Roles lists every valid role, lowest privilege first.
var Roles = []Role{RoleUser, RoleAdmin}

// ParseRole converts a role claim into a Role. The Spring-style "ROLE_" prefix is
// accepted and stripped; matching is otherwise exact.
func ParseRole(s string) (Role, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "ROLE_")
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.Rank() >= 0
}

// Rank orders roles by privilege. Unknown roles rank below USER.
func (r Role) Rank() int {
	for i, known := range Roles {
		if known == r {
			return i
		}
	}
	return -1
}

func (r Role) String() string { return string(r) }

// Identity is the authenticated principal of a session.
type Identity struct {
	ID   string `json:"id"`
	CPF  string `json:"cpf"`
	Name string `json:"name,omitempty"`
	Role Role   `json:"role"`
}

// IsAdmin reports whether the identity carries the ADMIN role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// DisplayName returns the name, falling back to the masked CPF.
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return MaskCPF(i.CPF)
}
