package acl

import "time"

// AuditAction names the kind of privileged operation an audit entry records.
type AuditAction string

// Audit actions.
const (
	ActionRoleAssigned      AuditAction = "role_assigned"
	ActionRoleRevoked       AuditAction = "role_revoked"
	ActionAssignmentUpdated AuditAction = "assignment_updated"
	ActionRoleCreated       AuditAction = "role_created"
	ActionRoleUpdated       AuditAction = "role_updated"
	ActionRoleDeleted       AuditAction = "role_deleted"
)

// Default trail capacities.
const (
	DefaultAuditLogSize        = 1000
	DefaultPermissionCheckSize = 500
)

// Check results.
const (
	ResultGranted = "granted"
	ResultDenied  = "denied"
)

// AuditLogEntry is an immutable record of a privileged action.
type AuditLogEntry struct {
	ID           string            `json:"id"`
	Action       AuditAction       `json:"action"`
	Actor        string            `json:"userId"`
	TargetUserID string            `json:"targetUserId,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
	Details      map[string]string `json:"details,omitempty"`
}

// PermissionCheck records a single permission evaluation. It is kept for analytics and is
// never used to make access decisions.
type PermissionCheck struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	Permission    Permission `json:"permission"`
	ResourceID    string     `json:"resourceId,omitempty"`
	HasPermission bool       `json:"hasPermission"`
	Result        string     `json:"result"`
	Timestamp     time.Time  `json:"timestamp"`
}

// AuditFilter selects audit entries. Empty fields match everything.
type AuditFilter struct {
	Action       AuditAction
	Actor        string
	TargetUserID string
}

func (f AuditFilter) match(e *AuditLogEntry) bool {
	if f.Action != "" && e.Action != f.Action {
		return false
	}

	if f.Actor != "" && e.Actor != f.Actor {
		return false
	}

	if f.TargetUserID != "" && e.TargetUserID != f.TargetUserID {
		return false
	}

	return true
}

// boundedLog keeps the most recent entries in a ring. Once full, each push evicts the oldest.
type boundedLog[T any] struct {
	buf  []T
	next int // index the next push writes to
	size int
}

func newBoundedLog[T any](capacity int) *boundedLog[T] {
	if capacity < 1 {
		capacity = 1
	}

	return &boundedLog[T]{buf: make([]T, capacity)}
}

func (l *boundedLog[T]) push(v T) {
	l.buf[l.next] = v
	l.next = (l.next + 1) % len(l.buf)

	if l.size < len(l.buf) {
		l.size++
	}
}

// items returns the entries newest first.
func (l *boundedLog[T]) items() []T {
	out := make([]T, l.size)
	for i := 0; i < l.size; i++ {
		out[i] = l.buf[(l.next-1-i+len(l.buf))%len(l.buf)]
	}

	return out
}

// replace drops every entry and loads entries given newest first.
func (l *boundedLog[T]) replace(newestFirst []T) {
	clear(l.buf)
	l.next, l.size = 0, 0

	if len(newestFirst) > len(l.buf) {
		newestFirst = newestFirst[:len(l.buf)]
	}

	for i := len(newestFirst) - 1; i >= 0; i-- {
		l.push(newestFirst[i])
	}
}

func (l *boundedLog[T]) len() int {
	return l.size
}
