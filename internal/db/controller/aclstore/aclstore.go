// Package aclstore persists acl roles, assignments and audit trails with gorm.
package aclstore

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marketplace-tools/permd/internal/acl"
	"github.com/marketplace-tools/permd/internal/db/models"
)

// ErrDBNil is returned when the database connection is nil.
var ErrDBNil = errors.New("database connection is nil")

// Repository implements acl.Persister on top of gorm.
type Repository struct {
	db *gorm.DB
}

var _ acl.Persister = (*Repository)(nil)

// New creates a repository.
func New(db *gorm.DB) (*Repository, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	return &Repository{db: db}, nil
}

// Migrate creates or updates the acl tables.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(
		&models.Role{},
		&models.RoleAssignment{},
		&models.AuditLog{},
		&models.PermissionCheck{},
		&models.Setting{},
	)
}

// Load reads the persisted state. At most auditLimit audit entries and checkLimit permission
// checks are read, newest first; non-positive limits use the acl defaults.
func (r *Repository) Load(auditLimit, checkLimit int) (acl.Snapshot, error) {
	var snap acl.Snapshot

	if auditLimit <= 0 {
		auditLimit = acl.DefaultAuditLogSize
	}

	if checkLimit <= 0 {
		checkLimit = acl.DefaultPermissionCheckSize
	}

	var roles []models.Role
	if err := r.db.Order("created_at, id").Find(&roles).Error; err != nil {
		return snap, fmt.Errorf("failed to load roles: %w", err)
	}

	for i := range roles {
		snap.Roles = append(snap.Roles, roleFromModel(&roles[i]))
	}

	var assignments []models.RoleAssignment
	if err := r.db.Order("assigned_at, id").Find(&assignments).Error; err != nil {
		return snap, fmt.Errorf("failed to load role assignments: %w", err)
	}

	for i := range assignments {
		snap.Assignments = append(snap.Assignments, assignmentFromModel(&assignments[i]))
	}

	var logs []models.AuditLog
	if err := r.db.Order("seq DESC").Limit(auditLimit).Find(&logs).Error; err != nil {
		return snap, fmt.Errorf("failed to load audit logs: %w", err)
	}

	for i := range logs {
		snap.AuditLogs = append(snap.AuditLogs, auditFromModel(&logs[i]))
	}

	var checks []models.PermissionCheck
	if err := r.db.Order("seq DESC").Limit(checkLimit).Find(&checks).Error; err != nil {
		return snap, fmt.Errorf("failed to load permission checks: %w", err)
	}

	for i := range checks {
		snap.PermissionChecks = append(snap.PermissionChecks, checkFromModel(&checks[i]))
	}

	return snap, nil
}

// SaveRole upserts a role and writes entry in the same transaction.
func (r *Repository) SaveRole(role acl.Role, entry *acl.AuditLogEntry) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		m := roleToModel(&role)
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error; err != nil {
			return fmt.Errorf("failed to save role %s: %w", role.ID, err)
		}

		return appendAudit(tx, entry)
	})
}

// DeleteRole removes a role row and writes entry in the same transaction. Assignments referencing
// the role are left untouched.
func (r *Repository) DeleteRole(id acl.RoleID, entry *acl.AuditLogEntry) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Role{}, "id = ?", string(id)).Error; err != nil {
			return fmt.Errorf("failed to delete role %s: %w", id, err)
		}

		return appendAudit(tx, entry)
	})
}

// SaveAssignment upserts an assignment and writes entry in the same transaction.
func (r *Repository) SaveAssignment(a acl.Assignment, entry *acl.AuditLogEntry) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		m := assignmentToModel(&a)
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error; err != nil {
			return fmt.Errorf("failed to save role assignment %s: %w", a.ID, err)
		}

		return appendAudit(tx, entry)
	})
}

// AppendAuditLog writes a single audit entry.
func (r *Repository) AppendAuditLog(entry acl.AuditLogEntry) error {
	return appendAudit(r.db, &entry)
}

// AppendPermissionCheck writes a single permission check record.
func (r *Repository) AppendPermissionCheck(c acl.PermissionCheck) error {
	m := models.PermissionCheck{
		ID:            c.ID,
		UserID:        c.UserID,
		Permission:    string(c.Permission),
		ResourceID:    c.ResourceID,
		HasPermission: c.HasPermission,
		Result:        c.Result,
		Timestamp:     c.Timestamp,
	}

	if err := r.db.Create(&m).Error; err != nil {
		return fmt.Errorf("failed to save permission check: %w", err)
	}

	return nil
}

// Prune keeps the newest auditKeep audit rows and checkKeep permission check rows.
func (r *Repository) Prune(auditKeep, checkKeep int) error {
	if err := prune(r.db, &models.AuditLog{}, auditKeep); err != nil {
		return fmt.Errorf("failed to prune audit logs: %w", err)
	}

	if err := prune(r.db, &models.PermissionCheck{}, checkKeep); err != nil {
		return fmt.Errorf("failed to prune permission checks: %w", err)
	}

	return nil
}

func prune(db *gorm.DB, model any, keep int) error {
	if keep <= 0 {
		return nil
	}

	var cutoff []uint64
	if err := db.Model(model).Order("seq DESC").Offset(keep - 1).Limit(1).Pluck("seq", &cutoff).Error; err != nil {
		return err
	}

	if len(cutoff) == 0 {
		return nil
	}

	return db.Where("seq < ?", cutoff[0]).Delete(model).Error
}

func appendAudit(tx *gorm.DB, entry *acl.AuditLogEntry) error {
	if entry == nil {
		return nil
	}

	m := models.AuditLog{
		ID:           entry.ID,
		Action:       string(entry.Action),
		Actor:        entry.Actor,
		TargetUserID: entry.TargetUserID,
		Timestamp:    entry.Timestamp,
		Details:      entry.Details,
	}

	if err := tx.Create(&m).Error; err != nil {
		return fmt.Errorf("failed to save audit log: %w", err)
	}

	return nil
}
