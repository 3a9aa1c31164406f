package acl

import "time"

// Assignment records that a user holds a role.
// Revoked assignments stay in the store with IsActive set to false.
type Assignment struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	Role         RoleID     `json:"role"`
	IsActive     bool       `json:"isActive"`
	AssignedBy   string     `json:"assignedBy"`
	AssignedAt   time.Time  `json:"assignedAt"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	RevokedBy    string     `json:"revokedBy,omitempty"`
	RevokedAt    *time.Time `json:"revokedAt,omitempty"`
	RevokeReason string     `json:"revokeReason,omitempty"`
}

// EffectiveAt reports whether the assignment grants its role at t.
func (a *Assignment) EffectiveAt(t time.Time) bool {
	if !a.IsActive {
		return false
	}

	return a.ExpiresAt == nil || t.Before(*a.ExpiresAt)
}

// AssignmentUpdate lists the assignment fields that may be changed. Nil fields are left as they are.
type AssignmentUpdate struct {
	Role      *RoleID
	IsActive  *bool
	ExpiresAt *time.Time
	// ClearExpiry removes an existing expiry. It wins over ExpiresAt.
	ClearExpiry bool
}

func (u AssignmentUpdate) apply(a Assignment) Assignment {
	if u.Role != nil {
		a.Role = *u.Role
	}

	if u.IsActive != nil {
		a.IsActive = *u.IsActive
	}

	if u.ExpiresAt != nil {
		exp := *u.ExpiresAt
		a.ExpiresAt = &exp
	}

	if u.ClearExpiry {
		a.ExpiresAt = nil
	}

	return a
}

// AssignOption customises a new assignment.
type AssignOption func(*Assignment)

// WithExpiry makes the assignment stop granting its role at t.
func WithExpiry(t time.Time) AssignOption {
	return func(a *Assignment) {
		a.ExpiresAt = &t
	}
}
