package acl

import (
	"fmt"
	"sort"
)

// Hierarchy maps a role to the roles it subsumes. The map is advisory: it is never
// consulted when resolving permissions.
type Hierarchy map[RoleID][]RoleID

// DefaultHierarchy returns the built-in role hierarchy.
func DefaultHierarchy() Hierarchy {
	return Hierarchy{
		RoleVendorManager: {RoleVendorAccountant},
		RoleVendorOwner:   {RoleVendorManager, RoleVendorAccountant},
		RoleAdmin:         {RoleSupportAgent, RoleContentManager, RoleAffiliateManager},
		RoleSuperAdmin:    {RoleAdmin, RoleVendorOwner},
	}
}

// Subordinates returns the roles directly listed under id.
func (h Hierarchy) Subordinates(id RoleID) []RoleID {
	return append([]RoleID(nil), h[id]...)
}

// Inheritors returns every role that transitively inherits from id, i.e. every role whose
// hierarchy entry lists id or lists a role that does. Each role is returned once, in
// depth-first discovery order with keys visited in sorted order.
func (h Hierarchy) Inheritors(id RoleID) ([]RoleID, error) {
	var (
		keys    = h.sortedKeys()
		out     []RoleID
		visited = map[RoleID]bool{}
		onPath  = map[RoleID]bool{id: true}
	)

	var walk func(role RoleID) error

	walk = func(role RoleID) error {
		for _, k := range keys {
			if !containsRole(h[k], role) {
				continue
			}

			if onPath[k] {
				return fmt.Errorf("%w: %s is reachable from itself via %s", ErrHierarchyCycle, k, role)
			}

			if visited[k] {
				continue
			}

			visited[k] = true
			out = append(out, k)

			onPath[k] = true
			if err := walk(k); err != nil {
				return err
			}

			delete(onPath, k)
		}

		return nil
	}

	if err := walk(id); err != nil {
		return nil, err
	}

	return out, nil
}

// Validate returns ErrHierarchyCycle if any role can reach itself.
func (h Hierarchy) Validate() error {
	for _, k := range h.sortedKeys() {
		if _, err := h.Inheritors(k); err != nil {
			return err
		}
	}

	return nil
}

func (h Hierarchy) clone() Hierarchy {
	out := make(Hierarchy, len(h))
	for k, v := range h {
		out[k] = append([]RoleID(nil), v...)
	}

	return out
}

func (h Hierarchy) sortedKeys() []RoleID {
	keys := make([]RoleID, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys
}

func containsRole(list []RoleID, id RoleID) bool {
	for _, r := range list {
		if r == id {
			return true
		}
	}

	return false
}
