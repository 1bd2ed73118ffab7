package user

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("user: authentication required")
	ErrInvalidRole     = errors.New("user: invalid role")
)

type ID string

type Role string

const (
	RoleTraveler Role = "traveler"
	RoleHost     Role = "host"
	RoleAdmin    Role = "admin"
)

func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case RoleTraveler, RoleHost, RoleAdmin:
		return role, nil
	case "guest", "":
		return RoleTraveler, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
}

// Actor is the caller identity resolved by the external identity provider.
// It travels explicitly on every command and query.
type Actor struct {
	ID   ID
	Role Role
}

func (a Actor) Authenticated() bool {
	return strings.TrimSpace(string(a.ID)) != ""
}

func (a Actor) Is(role Role) bool {
	return a.Authenticated() && a.Role == role
}

func (a Actor) IsAdmin() bool {
	return a.Is(RoleAdmin)
}

// HasAnyRole treats an empty list as "any authenticated actor".
func (a Actor) HasAnyRole(roles ...Role) bool {
	if !a.Authenticated() {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
