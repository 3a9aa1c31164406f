package acl

import "errors"

var (
	// ErrRoleNotFound is returned when a role id is not part of the role catalog.
	ErrRoleNotFound = errors.New("role not found")

	// ErrRoleExists is returned when creating a role whose id is already taken.
	ErrRoleExists = errors.New("role already exists")

	// ErrRoleIDEmpty is returned when creating a role without an id.
	ErrRoleIDEmpty = errors.New("role id can not be empty")

	// ErrSystemRole is returned when attempting to delete a built-in role.
	ErrSystemRole = errors.New("system roles can not be deleted")

	// ErrUnknownPermission is returned in strict mode when a role references a permission
	// that is not part of the catalog.
	ErrUnknownPermission = errors.New("unknown permission")

	// ErrAssignmentNotFound is returned when no assignment with the given id exists for the user.
	ErrAssignmentNotFound = errors.New("role assignment not found")

	// ErrAssignmentRevoked is returned when revoking an assignment that is no longer active.
	ErrAssignmentRevoked = errors.New("role assignment already revoked")

	// ErrUserIDEmpty is returned when a mutation is issued without a user id.
	ErrUserIDEmpty = errors.New("user id can not be empty")

	// ErrHierarchyCycle is returned when the role hierarchy contains a cycle.
	ErrHierarchyCycle = errors.New("role hierarchy contains a cycle")
)
