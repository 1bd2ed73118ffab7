package policies

import (
	"context"
	"errors"
	"fmt"

	"locadz/internal/app/apperr"
	"locadz/internal/domain/user"
)

var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrRoleNotAllowed         = errors.New("role not allowed for this operation")
)

// Restricted is implemented by commands and queries that carry an actor.
type Restricted interface {
	Principal() user.Actor
	// AllowedRoles lists roles that may run the message; empty means any authenticated actor.
	AllowedRoles() []user.Role
}

// RoleAuthorizer enforces AllowedRoles. Ownership rules stay in the handlers.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(_ context.Context, message any) error {
	r, ok := message.(Restricted)
	if !ok {
		return nil
	}
	actor := r.Principal()
	if !actor.Authenticated() {
		return apperr.Unauthorized(ErrAuthenticationRequired)
	}
	if !actor.HasAnyRole(r.AllowedRoles()...) {
		return apperr.Forbidden(fmt.Errorf("%w: %s", ErrRoleNotAllowed, actor.Role))
	}
	return nil
}
