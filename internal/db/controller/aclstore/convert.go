package aclstore

import (
	"github.com/marketplace-tools/permd/internal/acl"
	"github.com/marketplace-tools/permd/internal/db/models"
)

func roleToModel(r *acl.Role) models.Role {
	perms := make([]string, len(r.Permissions))
	for i, p := range r.Permissions {
		perms[i] = string(p)
	}

	inherits := make([]string, len(r.Inherits))
	for i, id := range r.Inherits {
		inherits[i] = string(id)
	}

	return models.Role{
		ID:          string(r.ID),
		Name:        r.Name,
		Description: r.Description,
		Permissions: perms,
		Inherits:    inherits,
		Level:       r.Level,
		IsSystem:    r.IsSystem,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func roleFromModel(m *models.Role) acl.Role {
	perms := make([]acl.Permission, len(m.Permissions))
	for i, p := range m.Permissions {
		perms[i] = acl.Permission(p)
	}

	var inherits []acl.RoleID
	for _, id := range m.Inherits {
		inherits = append(inherits, acl.RoleID(id))
	}

	return acl.Role{
		ID:          acl.RoleID(m.ID),
		Name:        m.Name,
		Description: m.Description,
		Permissions: perms,
		Inherits:    inherits,
		Level:       m.Level,
		IsSystem:    m.IsSystem,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func assignmentToModel(a *acl.Assignment) models.RoleAssignment {
	return models.RoleAssignment{
		ID:           a.ID,
		UserID:       a.UserID,
		Role:         string(a.Role),
		IsActive:     a.IsActive,
		AssignedBy:   a.AssignedBy,
		AssignedAt:   a.AssignedAt,
		ExpiresAt:    a.ExpiresAt,
		RevokedBy:    a.RevokedBy,
		RevokedAt:    a.RevokedAt,
		RevokeReason: a.RevokeReason,
	}
}

func assignmentFromModel(m *models.RoleAssignment) acl.Assignment {
	return acl.Assignment{
		ID:           m.ID,
		UserID:       m.UserID,
		Role:         acl.RoleID(m.Role),
		IsActive:     m.IsActive,
		AssignedBy:   m.AssignedBy,
		AssignedAt:   m.AssignedAt,
		ExpiresAt:    m.ExpiresAt,
		RevokedBy:    m.RevokedBy,
		RevokedAt:    m.RevokedAt,
		RevokeReason: m.RevokeReason,
	}
}

func auditFromModel(m *models.AuditLog) acl.AuditLogEntry {
	return acl.AuditLogEntry{
		ID:           m.ID,
		Action:       acl.AuditAction(m.Action),
		Actor:        m.Actor,
		TargetUserID: m.TargetUserID,
		Timestamp:    m.Timestamp,
		Details:      m.Details,
	}
}

func checkFromModel(m *models.PermissionCheck) acl.PermissionCheck {
	return acl.PermissionCheck{
		ID:            m.ID,
		UserID:        m.UserID,
		Permission:    acl.Permission(m.Permission),
		ResourceID:    m.ResourceID,
		HasPermission: m.HasPermission,
		Result:        m.Result,
		Timestamp:     m.Timestamp,
	}
}
