package flows

import (
	"context"
	"errors"
)

// RoleFailureKind classifies role-change failures for root-level mapping.
type RoleFailureKind int

const (
	RoleFailureNone RoleFailureKind = iota
	RoleFailureUnknownRole
	RoleFailureNotFound
	RoleFailureUpdate
	RoleFailureInvalidate
)

// RoleDeps captures role-change dependencies.
type RoleDeps struct {
	ValidRole  func(role string) bool
	UpdateRole func(ctx context.Context, principalID, role string) error
	// NotFound is the error the updater returns for an unknown principal.
	NotFound error
	// RevokeSession clears the principal's session after the change. Nil
	// leaves the session alone; the next refresh carries the new role anyway.
	RevokeSession func(ctx context.Context, principalID string) error
}

// RunSetRole updates a principal's role.
func RunSetRole(ctx context.Context, principalID, role string, deps RoleDeps) (RoleFailureKind, error) {
	if !deps.ValidRole(role) {
		return RoleFailureUnknownRole, nil
	}
	if err := deps.UpdateRole(ctx, principalID, role); err != nil {
		if deps.NotFound != nil && errors.Is(err, deps.NotFound) {
			return RoleFailureNotFound, err
		}
		return RoleFailureUpdate, err
	}
	if deps.RevokeSession != nil {
		if err := deps.RevokeSession(ctx, principalID); err != nil {
			return RoleFailureInvalidate, err
		}
	}
	return RoleFailureNone, nil
}
