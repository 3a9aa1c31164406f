package acl

// HasPermission reports whether any of the user's effective assignments grants perm.
// Unknown users, unknown roles and inactive or expired assignments grant nothing. The role
// hierarchy is not consulted.
func (s *Store) HasPermission(userID string, perm Permission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.hasPermission(userID, perm)
}

func (s *Store) hasPermission(userID string, perm Permission) bool {
	now := s.now()

	for i := range s.assignments[userID] {
		a := &s.assignments[userID][i]
		if !a.EffectiveAt(now) {
			continue
		}

		role, ok := s.roles[a.Role]
		if ok && role.Grants(perm) {
			return true
		}
	}

	return false
}

// HasAnyPermission reports whether the user holds at least one of perms.
func (s *Store) HasAnyPermission(userID string, perms ...Permission) bool {
	if len(perms) == 0 {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range perms {
		if s.hasPermission(userID, p) {
			return true
		}
	}

	return false
}

// HasAllPermissions reports whether the user holds every one of perms.
func (s *Store) HasAllPermissions(userID string, perms ...Permission) bool {
	if len(perms) == 0 {
		return true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range perms {
		if !s.hasPermission(userID, p) {
			return false
		}
	}

	return true
}

// UserPermissions returns the union of the permissions granted by the user's effective
// assignments, without duplicates, in assignment then role order.
func (s *Store) UserPermissions(userID string) []Permission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		now  = s.now()
		seen = make(map[Permission]struct{})
		out  = make([]Permission, 0)
	)

	for i := range s.assignments[userID] {
		a := &s.assignments[userID][i]
		if !a.EffectiveAt(now) {
			continue
		}

		role, ok := s.roles[a.Role]
		if !ok {
			continue
		}

		for _, p := range role.Permissions {
			if _, dup := seen[p]; dup {
				continue
			}

			seen[p] = struct{}{}
			out = append(out, p)
		}
	}

	return out
}

// CheckPermission evaluates perm for the user and records the outcome in the permission
// check trail. resourceID is recorded as given and does not affect the decision.
func (s *Store) CheckPermission(userID string, perm Permission, resourceID string) (PermissionCheck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	granted := s.hasPermission(userID, perm)

	c := PermissionCheck{
		ID:            s.newID(),
		UserID:        userID,
		Permission:    perm,
		ResourceID:    resourceID,
		HasPermission: granted,
		Result:        ResultDenied,
		Timestamp:     s.now(),
	}

	if granted {
		c.Result = ResultGranted
	}

	if err := s.addPermissionCheck(c); err != nil {
		return c, err
	}

	return c, nil
}
