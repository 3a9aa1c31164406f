package models

import "time"

// Role is a persisted role: a custom role or a built-in role whose fields were changed.
type Role struct {
	// ID is the role identifier (e.g. "vendor_manager").
	ID string `gorm:"primaryKey;size:100"`
	// Name is the display label.
	Name string `gorm:"size:100"`
	// Description explains the role's purpose.
	Description string `gorm:"size:255"`
	// Permissions holds the permission keys as a JSON array.
	Permissions []string `gorm:"serializer:json;type:text"`
	// Inherits holds reserved direct parent role ids as a JSON array.
	Inherits []string `gorm:"serializer:json;type:text"`
	// Level is the coarse seniority of the role.
	Level int
	// IsSystem indicates a built-in role that cannot be deleted.
	IsSystem  bool `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}
