package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketplace-tools/permd/internal/acl"
)

func newMirror(t *testing.T, token string) (*Mirror, *acl.Store, *acl.Store) {
	t.Helper()

	srv, remote := newRemote(t)

	local, err := acl.NewStore(acl.Options{})
	require.NoError(t, err)

	return NewMirror(newClient(t, srv.URL, token), local), local, remote
}

func TestMirrorAssignRevoke(t *testing.T) {
	m, local, _ := newMirror(t, adminToken)
	ctx := context.Background()

	a, err := m.AssignRole(ctx, "user-1", acl.RoleVendorAccountant, "", nil)
	require.NoError(t, err)
	assert.False(t, m.Loading())
	assert.Empty(t, m.Err())

	require.Len(t, local.UserAssignments("user-1"), 1)
	assert.Equal(t, 1, local.AuditLogLen())

	logs, _, _ := local.AuditLogs(acl.AuditFilter{}, 0, 0)
	require.Len(t, logs, 1)
	assert.Equal(t, acl.ActionRoleAssigned, logs[0].Action)

	require.NoError(t, m.RevokeRole(ctx, "user-1", a.ID, "", "rotation"))

	held := local.UserAssignments("user-1")
	require.Len(t, held, 1)
	assert.False(t, held[0].IsActive)
	assert.Equal(t, 2, local.AuditLogLen())
}

func TestMirrorRevokeUnknownLocally(t *testing.T) {
	m, local, remote := newMirror(t, adminToken)
	ctx := context.Background()

	a, _, err := remote.AssignRole("user-3", acl.RoleSupportAgent, "admin-1")
	require.NoError(t, err)

	require.NoError(t, m.RevokeRole(ctx, "user-3", a.ID, "", ""))
	assert.Empty(t, local.UserAssignments("user-3"))
	assert.Equal(t, 1, local.AuditLogLen())
	assert.Empty(t, m.Err())
}

func TestMirrorErrorKeepsState(t *testing.T) {
	m, local, _ := newMirror(t, supportToken)
	ctx := context.Background()

	_, err := m.AssignRole(ctx, "user-1", acl.RoleSupportAgent, "", nil)
	require.Error(t, err)
	assert.NotEmpty(t, m.Err())
	assert.False(t, m.Loading())
	assert.Empty(t, local.UserAssignments("user-1"))
	assert.Zero(t, local.AuditLogLen())

	m.ClearError()
	assert.Empty(t, m.Err())
}

func TestMirrorCheck(t *testing.T) {
	m, local, _ := newMirror(t, adminToken)

	record, err := m.CheckPermission(context.Background(), "admin-1", acl.PermSystemSettings, "")
	require.NoError(t, err)
	assert.True(t, record.HasPermission)

	checks := local.PermissionChecks()
	require.Len(t, checks, 1)
	assert.Equal(t, record.ID, checks[0].ID)
}

func TestMirrorAuditReplacesTrail(t *testing.T) {
	m, local, _ := newMirror(t, adminToken)
	ctx := context.Background()

	require.NoError(t, local.LogAuditEvent(acl.AuditLogEntry{ID: "stale", Action: acl.ActionRoleRevoked}))

	_, err := m.AssignRole(ctx, "user-1", acl.RoleSupportAgent, "", nil)
	require.NoError(t, err)
	_, err = m.AssignRole(ctx, "user-2", acl.RoleSupportAgent, "", nil)
	require.NoError(t, err)

	logs, err := m.AuditLogs(ctx, AuditQuery{Filter: acl.AuditFilter{Action: acl.ActionRoleAssigned}})
	require.NoError(t, err)

	mirrored, total, _ := local.AuditLogs(acl.AuditFilter{}, 0, 0)
	assert.Equal(t, len(logs), total)
	for _, e := range mirrored {
		assert.NotEqual(t, "stale", e.ID)
		assert.Equal(t, acl.ActionRoleAssigned, e.Action)
	}
}

func TestMirrorCurrentUserPermissions(t *testing.T) {
	m, _, _ := newMirror(t, adminToken)

	perms := []acl.Permission{acl.PermUsersView, acl.PermAuditView}
	m.SetCurrentUserPermissions(perms)
	perms[0] = acl.PermUsersDelete

	assert.Equal(t, []acl.Permission{acl.PermUsersView, acl.PermAuditView}, m.CurrentUserPermissions())
}
