package models

import "time"

// RoleAssignment records that a user holds a role. Revoked rows are kept with IsActive false.
type RoleAssignment struct {
	ID           string `gorm:"primaryKey;size:64"`
	UserID       string `gorm:"size:100;not null;index"`
	Role         string `gorm:"size:100;not null"`
	IsActive     bool
	AssignedBy   string `gorm:"size:100"`
	AssignedAt   time.Time
	ExpiresAt    *time.Time
	RevokedBy    string `gorm:"size:100"`
	RevokedAt    *time.Time
	RevokeReason string `gorm:"size:255"`
}

// TableName specifies the database table name for the RoleAssignment model.
func (RoleAssignment) TableName() string {
	return "role_assignments"
}
