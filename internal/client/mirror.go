package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/marketplace-tools/permd/internal/acl"
)

// Mirror applies the results of remote calls to a local store and tracks the state of the last
// call. A failed call leaves the store untouched and records the error message.
type Mirror struct {
	client *Client
	store  *acl.Store

	mu                     sync.RWMutex
	loading                bool
	err                    string
	currentUserPermissions []acl.Permission
}

// NewMirror creates a mirror writing into store.
func NewMirror(client *Client, store *acl.Store) *Mirror {
	return &Mirror{client: client, store: store}
}

// Loading reports whether a call is in flight.
func (m *Mirror) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.loading
}

// Err returns the message of the last failed call, or "".
func (m *Mirror) Err() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.err
}

// ClearError forgets the last error.
func (m *Mirror) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.err = ""
}

// SetCurrentUserPermissions records the permissions of the signed-in user.
func (m *Mirror) SetCurrentUserPermissions(perms []acl.Permission) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.currentUserPermissions = append([]acl.Permission(nil), perms...)
}

// CurrentUserPermissions returns the permissions set by SetCurrentUserPermissions.
func (m *Mirror) CurrentUserPermissions() []acl.Permission {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]acl.Permission(nil), m.currentUserPermissions...)
}

func (m *Mirror) begin(clearErr bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loading = true
	if clearErr {
		m.err = ""
	}
}

func (m *Mirror) end(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loading = false
	if err != nil {
		m.err = err.Error()
	}
}

// AssignRole assigns on the remote service, then appends the assignment and its audit entry locally.
func (m *Mirror) AssignRole(ctx context.Context, userID string, role acl.RoleID, assignedBy string, expiresAt *time.Time) (acl.Assignment, error) {
	m.begin(true)

	resp, err := m.client.AssignRole(ctx, userID, role, assignedBy, expiresAt)
	if err == nil {
		err = m.store.AddUserRole(resp.Assignment)
	}

	if err == nil {
		err = m.store.LogAuditEvent(resp.AuditLog)
	}

	m.end(err)

	return resp.Assignment, err
}

// RevokeRole revokes on the remote service, then replaces the local copy of the assignment with the
// revoked one and records the audit entry. An assignment unknown locally is only logged.
func (m *Mirror) RevokeRole(ctx context.Context, userID, assignmentID, revokedBy, reason string) error {
	m.begin(false)

	resp, err := m.client.RevokeRole(ctx, userID, assignmentID, revokedBy, reason)
	if err == nil {
		rerr := m.store.ReplaceAssignment(resp.Assignment)

		switch {
		case errors.Is(rerr, acl.ErrAssignmentNotFound):
			log.Debug().Str("assignment_id", assignmentID).Msg("revoked assignment is not mirrored locally")
		case rerr != nil:
			err = rerr
		}
	}

	if err == nil {
		err = m.store.LogAuditEvent(resp.AuditLog)
	}

	m.end(err)

	return err
}

// CheckPermission checks on the remote service and records the result locally.
func (m *Mirror) CheckPermission(ctx context.Context, userID string, perm acl.Permission, resourceID string) (acl.PermissionCheck, error) {
	m.begin(false)

	record, err := m.client.CheckPermission(ctx, userID, perm, resourceID)
	if err == nil {
		err = m.store.AddPermissionCheck(record)
	}

	m.end(err)

	return record, err
}

// AuditLogs fetches audit entries and replaces the local audit trail with them.
func (m *Mirror) AuditLogs(ctx context.Context, q AuditQuery) ([]acl.AuditLogEntry, error) {
	m.begin(false)

	resp, err := m.client.AuditLogs(ctx, q)
	if err == nil {
		m.store.ReplaceAuditLogs(resp.Logs)
	}

	m.end(err)

	return resp.Logs, err
}
