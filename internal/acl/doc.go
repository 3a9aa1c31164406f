// Package acl implements the permission resolution engine.
//
// A Store owns four pieces of state:
//   - the role catalog: built-in roles plus custom roles created at runtime
//   - the role hierarchy: an advisory map of which roles subsume which
//   - role assignments: per-user lists of assignments, revoked ones kept inactive
//   - two bounded trails: audit entries (1000) and permission checks (500), newest first
//
// The permission catalog itself is fixed at compile time, see the Perm* constants.
//
// # Resolution
//
// HasPermission and UserPermissions only look at a user's active, unexpired assignments and
// the permission sets of their roles. Matching is exact. The hierarchy is never expanded
// during resolution; InheritedRoles exposes it separately.
//
// # Failure policy
//
// Lookups fail closed: unknown users and roles resolve to "no permission". Mutators on unknown
// ids leave the state untouched and return a sentinel error (ErrRoleNotFound,
// ErrAssignmentNotFound) that callers may ignore. With Options.Strict, assigning an unknown
// role or creating a role with unknown permissions is rejected instead of accepted.
//
// Example usage:
//
//	store, err := acl.NewStore(acl.Options{})
//	a, _, err := store.AssignRole("u1", acl.RoleVendorManager, "admin")
//	ok := store.HasPermission("u1", acl.PermProductsCreate) // true
//	_, _, err = store.RevokeRole("u1", a.ID, "admin", "left the team")
package acl
