package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketplace-tools/permd/internal/acl"
	"github.com/marketplace-tools/permd/internal/config"
	"github.com/marketplace-tools/permd/internal/web/handler/assignment"
	"github.com/marketplace-tools/permd/internal/web/handler/audit"
	"github.com/marketplace-tools/permd/internal/web/handler/role"
	"github.com/marketplace-tools/permd/internal/web/session"
)

const (
	adminToken   = "admin-token"
	supportToken = "support-token"
)

func newTestService(t *testing.T) (*Service, *acl.Store) {
	t.Helper()

	reg := prometheus.NewRegistry()

	store, err := acl.NewStore(acl.Options{Metrics: acl.NewMetrics(reg)})
	require.NoError(t, err)

	_, _, err = store.AssignRole("admin-1", acl.RoleSuperAdmin, "bootstrap")
	require.NoError(t, err)
	_, _, err = store.AssignRole("support-1", acl.RoleSupportAgent, "bootstrap")
	require.NoError(t, err)

	sessions := session.New(nil, time.Hour)
	require.NoError(t, sessions.Write(adminToken, session.Data{UserID: "admin-1"}))
	require.NoError(t, sessions.Write(supportToken, session.Data{UserID: "support-1"}))

	cfg := &config.Config{Title: "permd-test", Webserver: config.Webserver{Port: 8080, URL: "http://localhost"}}

	return New(cfg, Options{Store: store, Sessions: sessions, Gatherer: reg, FastShutDown: true}), store
}

func call(t *testing.T, app *fiber.App, method, path, token string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}

	return resp.StatusCode
}

func TestCheckAliveAndMetrics(t *testing.T) {
	s, _ := newTestService(t)

	assert.Equal(t, fiber.StatusOK, call(t, s.App, fiber.MethodGet, CheckAlivePath, "", nil, nil))

	require.Equal(t, fiber.StatusOK, call(t, s.App, fiber.MethodPost, "/api/permissions/check", adminToken,
		map[string]string{"permission": "orders:refund"}, nil))

	resp, err := s.App.Test(httptest.NewRequest(fiber.MethodGet, MetricsPath, nil))
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `permd_permission_checks_total{result="granted"} 1`)

	s.alive.Store(false)
	assert.Equal(t, fiber.StatusServiceUnavailable, call(t, s.App, fiber.MethodGet, CheckAlivePath, "", nil, nil))
}

func TestUnauthenticated(t *testing.T) {
	s, _ := newTestService(t)

	var out map[string]string
	assert.Equal(t, fiber.StatusUnauthorized, call(t, s.App, fiber.MethodGet, "/api/permissions/catalog", "", nil, &out))
	assert.Equal(t, "unauthorized", out["error"])

	assert.Equal(t, fiber.StatusUnauthorized, call(t, s.App, fiber.MethodGet, "/api/permissions/catalog", "stale", nil, nil))
}

func TestAssignRevokeFlow(t *testing.T) {
	s, store := newTestService(t)

	var assigned assignment.AssignResponse
	status := call(t, s.App, fiber.MethodPost, "/api/permissions/assign", adminToken,
		map[string]string{"userId": "vendor-9", "role": "vendor_accountant"}, &assigned)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "admin-1", assigned.Assignment.AssignedBy, "assignedBy defaults to the caller")
	assert.True(t, assigned.Assignment.IsActive)
	assert.Equal(t, acl.ActionRoleAssigned, assigned.AuditLog.Action)
	assert.True(t, store.HasPermission("vendor-9", acl.PermOrdersRefund))

	var user assignment.UserResponse
	require.Equal(t, fiber.StatusOK, call(t, s.App, fiber.MethodGet, "/api/permissions/users/vendor-9", supportToken, nil, &user))
	assert.Len(t, user.Assignments, 1)
	assert.Contains(t, user.Permissions, acl.PermFinanceView)

	var revoked assignment.RevokeResponse
	status = call(t, s.App, fiber.MethodPost, "/api/permissions/revoke", adminToken, map[string]string{
		"userId": "vendor-9",
		"roleId": assigned.Assignment.ID,
		"reason": "contract ended",
	}, &revoked)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, assigned.Assignment.ID, revoked.RoleID)
	assert.False(t, revoked.Assignment.IsActive)
	assert.Equal(t, "contract ended", revoked.Assignment.RevokeReason)
	assert.False(t, store.HasPermission("vendor-9", acl.PermOrdersRefund))

	status = call(t, s.App, fiber.MethodPost, "/api/permissions/revoke", adminToken,
		map[string]string{"userId": "vendor-9", "roleId": assigned.Assignment.ID}, nil)
	assert.Equal(t, fiber.StatusConflict, status)

	status = call(t, s.App, fiber.MethodPost, "/api/permissions/revoke", adminToken,
		map[string]string{"userId": "vendor-9", "roleId": "missing"}, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestAssignRequests(t *testing.T) {
	s, _ := newTestService(t)

	testCases := []struct {
		name  string
		token string
		body  any
		want  int
	}{
		{
			name:  "support agent lacks users:update",
			token: supportToken,
			body:  map[string]string{"userId": "u1", "role": "user"},
			want:  fiber.StatusForbidden,
		},
		{
			name:  "missing user id",
			token: adminToken,
			body:  map[string]string{"role": "user"},
			want:  fiber.StatusBadRequest,
		},
		{
			name:  "malformed expiry",
			token: adminToken,
			body:  map[string]string{"userId": "u1", "role": "user", "expiresAt": "tomorrow"},
			want:  fiber.StatusBadRequest,
		},
		{
			name:  "unknown role is accepted in lenient mode",
			token: adminToken,
			body:  map[string]string{"userId": "u1", "role": "ghost"},
			want:  fiber.StatusOK,
		},
		{
			name:  "with expiry",
			token: adminToken,
			body:  map[string]string{"userId": "u1", "role": "user", "expiresAt": "2030-01-01T00:00:00Z"},
			want:  fiber.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, call(t, s.App, fiber.MethodPost, "/api/permissions/assign", tc.token, tc.body, nil))
		})
	}
}

func TestUpdateAssignment(t *testing.T) {
	s, store := newTestService(t)

	a, _, err := store.AssignRole("u1", acl.RoleUser, "admin-1")
	require.NoError(t, err)

	var out assignment.UpdateResponse
	status := call(t, s.App, fiber.MethodPatch, "/api/permissions/users/u1/assignments/"+a.ID, adminToken,
		map[string]any{"role": "content_manager"}, &out)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, acl.RoleContentManager, out.Assignment.Role)
	assert.Equal(t, acl.ActionAssignmentUpdated, out.AuditLog.Action)
	assert.True(t, store.HasPermission("u1", acl.PermContentBanners))

	status = call(t, s.App, fiber.MethodPatch, "/api/permissions/users/u1/assignments/nope", adminToken,
		map[string]any{"isActive": false}, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestCheck(t *testing.T) {
	s, store := newTestService(t)

	var record acl.PermissionCheck
	status := call(t, s.App, fiber.MethodPost, "/api/permissions/check", supportToken, map[string]string{
		"userId":     "support-1",
		"permission": "orders:refund",
		"resourceId": "order-77",
	}, &record)
	require.Equal(t, fiber.StatusOK, status)
	assert.False(t, record.HasPermission)
	assert.Equal(t, acl.ResultDenied, record.Result)
	assert.Equal(t, "order-77", record.ResourceID)

	status = call(t, s.App, fiber.MethodPost, "/api/permissions/check", supportToken,
		map[string]string{"permission": "support:chat"}, &record)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "support-1", record.UserID, "userId defaults to the caller")
	assert.True(t, record.HasPermission)

	assert.Len(t, store.PermissionChecks(), 2)

	assert.Equal(t, fiber.StatusBadRequest, call(t, s.App, fiber.MethodPost, "/api/permissions/check", supportToken,
		map[string]string{"userId": "support-1"}, nil))
}

func TestAuditQuery(t *testing.T) {
	s, store := newTestService(t)

	for _, u := range []string{"u1", "u2", "u1"} {
		_, _, err := store.AssignRole(u, acl.RoleUser, "admin-1")
		require.NoError(t, err)
	}

	var out audit.Response
	status := call(t, s.App, fiber.MethodGet, "/api/permissions/audit?targetUserId=u1&limit=1", adminToken, nil, &out)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 2, out.Total)
	assert.True(t, out.HasMore)
	require.Len(t, out.Logs, 1)
	assert.Equal(t, "u1", out.Logs[0].TargetUserID)

	status = call(t, s.App, fiber.MethodGet, "/api/permissions/audit?action=role_assigned&actor=bootstrap", adminToken, nil, &out)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 2, out.Total)
	assert.False(t, out.HasMore)

	assert.Equal(t, fiber.StatusForbidden, call(t, s.App, fiber.MethodGet, "/api/permissions/audit", supportToken, nil, nil))
}

func TestAuditPageSize(t *testing.T) {
	s, store := newTestService(t)

	for i := 0; i < audit.DefaultPageSize+10; i++ {
		_, _, err := store.AssignRole("u1", acl.RoleUser, "admin-1")
		require.NoError(t, err)
	}

	total := audit.DefaultPageSize + 12

	testCases := []struct {
		name  string
		query string
		want  int
	}{
		{name: "default", query: "", want: audit.DefaultPageSize},
		{name: "zero", query: "?limit=0", want: audit.DefaultPageSize},
		{name: "oversized is clamped", query: "?limit=100000", want: total},
		{name: "explicit", query: "?limit=5", want: 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out audit.Response
			require.Equal(t, fiber.StatusOK, call(t, s.App, fiber.MethodGet, "/api/permissions/audit"+tc.query, adminToken, nil, &out))
			assert.Equal(t, total, out.Total)
			assert.Len(t, out.Logs, tc.want)
		})
	}
}

func TestRoles(t *testing.T) {
	s, store := newTestService(t)

	var list role.ListResponse
	require.Equal(t, fiber.StatusOK, call(t, s.App, fiber.MethodGet, "/api/permissions/roles", supportToken, nil, &list))
	require.Len(t, list.Roles, 9)
	assert.Equal(t, acl.RoleSuperAdmin, list.Roles[0].ID)

	create := map[string]any{
		"id":          "seo_editor",
		"name":        "SEO Editor",
		"permissions": []string{"content:seo"},
		"level":       20,
	}

	assert.Equal(t, fiber.StatusForbidden, call(t, s.App, fiber.MethodPost, "/api/permissions/roles", supportToken, create, nil))

	var created role.Response
	require.Equal(t, fiber.StatusCreated, call(t, s.App, fiber.MethodPost, "/api/permissions/roles", adminToken, create, &created))
	assert.Equal(t, acl.RoleID("seo_editor"), created.Role.ID)
	assert.False(t, created.Role.IsSystem)

	assert.Equal(t, fiber.StatusConflict, call(t, s.App, fiber.MethodPost, "/api/permissions/roles", adminToken, create, nil))

	var updated role.Response
	require.Equal(t, fiber.StatusOK, call(t, s.App, fiber.MethodPatch, "/api/permissions/roles/seo_editor", adminToken,
		map[string]any{"name": "SEO Lead"}, &updated))
	assert.Equal(t, "SEO Lead", updated.Role.Name)
	assert.Equal(t, []acl.Permission{acl.PermContentSEO}, updated.Role.Permissions)

	assert.Equal(t, fiber.StatusNotFound, call(t, s.App, fiber.MethodPatch, "/api/permissions/roles/ghost", adminToken,
		map[string]any{"name": "x"}, nil))

	assert.Equal(t, fiber.StatusForbidden, call(t, s.App, fiber.MethodDelete, "/api/permissions/roles/admin", adminToken, nil, nil))
	assert.Equal(t, fiber.StatusNoContent, call(t, s.App, fiber.MethodDelete, "/api/permissions/roles/seo_editor", adminToken, nil, nil))

	_, ok := store.Role("seo_editor")
	assert.False(t, ok)
}

func TestInherited(t *testing.T) {
	s, _ := newTestService(t)

	var out role.InheritedResponse
	require.Equal(t, fiber.StatusOK, call(t, s.App, fiber.MethodGet, "/api/permissions/roles/vendor_accountant/inherited", supportToken, nil, &out))
	assert.Equal(t, []acl.RoleID{acl.RoleVendorManager, acl.RoleVendorOwner, acl.RoleSuperAdmin}, out.Inherited)
	assert.Empty(t, out.Subordinates)

	require.Equal(t, fiber.StatusOK, call(t, s.App, fiber.MethodGet, "/api/permissions/roles/super_admin/inherited", supportToken, nil, &out))
	assert.Empty(t, out.Inherited)
	assert.Equal(t, []acl.RoleID{acl.RoleAdmin, acl.RoleVendorOwner}, out.Subordinates)
}

// grantToken assigns a custom role holding perms to userID and returns a session token for it.
func grantToken(t *testing.T, s *Service, store *acl.Store, userID string, perms ...acl.Permission) string {
	t.Helper()

	id := acl.RoleID(userID + "_role")
	_, _, err := store.CreateRole("bootstrap", id, acl.RoleSpec{Name: userID, Permissions: perms, Level: 10})
	require.NoError(t, err)

	_, _, err = store.AssignRole(userID, id, "bootstrap")
	require.NoError(t, err)

	token := userID + "-token"
	require.NoError(t, s.sessions.Write(token, session.Data{UserID: userID}))

	return token
}

func TestUserRouteAcceptsAnyPermission(t *testing.T) {
	s, store := newTestService(t)

	auditor := grantToken(t, s, store, "auditor-1", acl.PermAuditView)
	seo := grantToken(t, s, store, "seo-1", acl.PermContentSEO)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "users view", token: supportToken, want: fiber.StatusOK},
		{name: "audit view only", token: auditor, want: fiber.StatusOK},
		{name: "neither", token: seo, want: fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, call(t, s.App, fiber.MethodGet, "/api/permissions/users/support-1", tt.token, nil, nil))
		})
	}
}

func TestDeleteRoleRequiresAllPermissions(t *testing.T) {
	s, store := newTestService(t)

	_, _, err := store.CreateRole("bootstrap", "seo_editor", acl.RoleSpec{Name: "SEO Editor", Permissions: []acl.Permission{acl.PermContentSEO}})
	require.NoError(t, err)

	settingsOnly := grantToken(t, s, store, "settings-1", acl.PermSystemSettings)
	both := grantToken(t, s, store, "ops-1", acl.PermSystemSettings, acl.PermUsersUpdate)

	assert.Equal(t, fiber.StatusForbidden, call(t, s.App, fiber.MethodDelete, "/api/permissions/roles/seo_editor", settingsOnly, nil, nil))

	_, ok := store.Role("seo_editor")
	require.True(t, ok)

	assert.Equal(t, fiber.StatusNoContent, call(t, s.App, fiber.MethodDelete, "/api/permissions/roles/seo_editor", both, nil, nil))

	_, ok = store.Role("seo_editor")
	assert.False(t, ok)
}

func TestCatalog(t *testing.T) {
	s, _ := newTestService(t)

	var out struct {
		Permissions []acl.PermissionInfo `json:"permissions"`
	}
	require.Equal(t, fiber.StatusOK, call(t, s.App, fiber.MethodGet, "/api/permissions/catalog", supportToken, nil, &out))
	assert.Len(t, out.Permissions, 52)
	assert.Equal(t, acl.PermUsersView, out.Permissions[0].Key)
}
