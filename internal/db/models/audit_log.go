package models

import "time"

// AuditLog is an append-only audit trail row. Seq orders rows by insertion.
type AuditLog struct {
	Seq          uint64            `gorm:"primaryKey;autoIncrement"`
	ID           string            `gorm:"size:64;uniqueIndex"`
	Action       string            `gorm:"size:50;not null;index"`
	Actor        string            `gorm:"size:100;index"`
	TargetUserID string            `gorm:"size:100;index"`
	Timestamp    time.Time         `gorm:"index"`
	Details      map[string]string `gorm:"serializer:json;type:text"`
}

// TableName specifies the database table name for the AuditLog model.
func (AuditLog) TableName() string {
	return "audit_logs"
}

// PermissionCheck is a recorded permission evaluation, kept for analytics.
type PermissionCheck struct {
	Seq           uint64 `gorm:"primaryKey;autoIncrement"`
	ID            string `gorm:"size:64;uniqueIndex"`
	UserID        string `gorm:"size:100;index"`
	Permission    string `gorm:"size:100"`
	ResourceID    string `gorm:"size:255"`
	HasPermission bool
	Result        string `gorm:"size:20"`
	Timestamp     time.Time
}

// TableName specifies the database table name for the PermissionCheck model.
func (PermissionCheck) TableName() string {
	return "permission_checks"
}
