package acl

// Persister mirrors store mutations to durable storage. Each call carries the audit entry
// produced by the mutation (nil when the mutation is not audited) so both can be written in
// one transaction. A returned error aborts the mutation.
type Persister interface {
	SaveRole(role Role, entry *AuditLogEntry) error
	DeleteRole(id RoleID, entry *AuditLogEntry) error
	SaveAssignment(a Assignment, entry *AuditLogEntry) error
	AppendAuditLog(entry AuditLogEntry) error
	AppendPermissionCheck(c PermissionCheck) error
}

// Snapshot is persisted state loaded into a store at startup.
type Snapshot struct {
	// Roles holds custom roles and modified built-ins.
	Roles       []Role
	Assignments []Assignment
	// AuditLogs and PermissionChecks are newest first.
	AuditLogs        []AuditLogEntry
	PermissionChecks []PermissionCheck
}
