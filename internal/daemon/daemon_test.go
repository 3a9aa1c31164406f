package daemon

import (
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/marketplace-tools/permd/internal/acl"
	"github.com/marketplace-tools/permd/internal/config"
	"github.com/marketplace-tools/permd/internal/web/session"
	"github.com/marketplace-tools/permd/internal/web/session/redisstore"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		DB: config.DB{GormEngine: config.EngineSQLite, Path: filepath.Join(t.TempDir(), "permd.db")},
		ACL: config.ACL{
			AuditLogSize:        100,
			PermissionCheckSize: 100,
			Bootstrap:           []string{"root"},
		},
		API: config.API{Tokens: map[string]string{"static-token": "ops-1"}},
	}
}

func closeDB(t *testing.T, gdb *gorm.DB) {
	t.Helper()

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func TestOpenStoreRestoresState(t *testing.T) {
	cfg := testConfig(t)

	store, gdb, err := OpenStore(cfg, prometheus.NewRegistry())
	require.NoError(t, err)

	a, _, err := store.AssignRole("user-1", acl.RoleVendorManager, "root")
	require.NoError(t, err)
	_, _, err = store.CreateRole("root", "auditor", acl.RoleSpec{
		Name:        "Auditor",
		Permissions: []acl.Permission{acl.PermAuditView},
	})
	require.NoError(t, err)
	_, err = store.CheckPermission("user-1", acl.PermAuditView, "")
	require.NoError(t, err)
	closeDB(t, gdb)

	store, gdb, err = OpenStore(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { closeDB(t, gdb) })

	held := store.UserAssignments("user-1")
	require.Len(t, held, 1)
	assert.Equal(t, a.ID, held[0].ID)
	assert.False(t, store.HasPermission("user-1", acl.PermAuditView))

	role, ok := store.Role("auditor")
	require.True(t, ok)
	assert.Equal(t, "Auditor", role.Name)

	assert.Equal(t, 2, store.AuditLogLen())
	assert.Len(t, store.PermissionChecks(), 1)
}

func TestOpenStoreHierarchyOverride(t *testing.T) {
	cfg := testConfig(t)
	cfg.ACL.Hierarchy = map[string][]string{"admin": {"support_agent"}}

	store, gdb, err := OpenStore(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, acl.Hierarchy{acl.RoleAdmin: {acl.RoleSupportAgent}}, store.Hierarchy())
	closeDB(t, gdb)

	cfg.ACL.Hierarchy = nil

	store, gdb, err = OpenStore(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { closeDB(t, gdb) })
	assert.Equal(t, acl.Hierarchy{acl.RoleAdmin: {acl.RoleSupportAgent}}, store.Hierarchy())
}

func TestOpenStoreCyclicHierarchy(t *testing.T) {
	cfg := testConfig(t)
	cfg.ACL.Hierarchy = map[string][]string{"admin": {"user"}, "user": {"admin"}}

	_, _, err := OpenStore(cfg, nil)
	require.ErrorIs(t, err, acl.ErrHierarchyCycle)
}

func TestSeed(t *testing.T) {
	cfg := testConfig(t)
	cfg.ACL.Bootstrap = []string{"root", "held"}

	store, err := acl.NewStore(acl.Options{})
	require.NoError(t, err)

	_, _, err = store.AssignRole("held", acl.RoleSupportAgent, "admin-1")
	require.NoError(t, err)

	sessions := session.New(nil, time.Hour)
	require.NoError(t, seed(cfg, store, sessions))
	require.NoError(t, seed(cfg, store, sessions))

	root := store.UserAssignments("root")
	require.Len(t, root, 1)
	assert.Equal(t, acl.RoleSuperAdmin, root[0].Role)
	assert.Equal(t, bootstrapActor, root[0].AssignedBy)

	held := store.UserAssignments("held")
	require.Len(t, held, 1)
	assert.Equal(t, acl.RoleSupportAgent, held[0].Role)

	d, err := sessions.Read("static-token")
	require.NoError(t, err)
	assert.Equal(t, "ops-1", d.UserID)
}

func TestNewNilConfig(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestSessionStorage(t *testing.T) {
	mr := miniredis.RunT(t)

	testCases := []struct {
		name    string
		storage string
		nilWant bool
	}{
		{name: "memory", storage: config.SessionStorageMemory, nilWant: true},
		{name: "empty", storage: "", nilWant: true},
		{name: "redis", storage: config.SessionStorageRedis},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Webserver.SessionStorage = tc.storage
			cfg.Webserver.Redis = config.Redis{Addr: mr.Addr(), Prefix: "permd:"}

			got := sessionStorage(cfg)
			if tc.nilWant {
				assert.Nil(t, got)
				return
			}

			require.IsType(t, &redisstore.Storage{}, got)
			require.NoError(t, got.Set("k", []byte("v"), 0))
			assert.True(t, mr.Exists("permd:k"))
			require.NoError(t, got.Close())
		})
	}
}

func TestPruneScheduler(t *testing.T) {
	cfg := testConfig(t)

	_, gdb, err := OpenStore(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { closeDB(t, gdb) })

	c, err := pruneScheduler(cfg, gdb)
	require.NoError(t, err)
	assert.Nil(t, c)

	cfg.ACL.PruneSchedule = "@every 1h"
	c, err = pruneScheduler(cfg, gdb)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Len(t, c.Entries(), 1)

	cfg.ACL.PruneSchedule = "not a schedule"
	_, err = pruneScheduler(cfg, gdb)
	require.Error(t, err)
}

func TestTrailSizes(t *testing.T) {
	audit, checks := trailSizes(&config.Config{})
	assert.Equal(t, acl.DefaultAuditLogSize, audit)
	assert.Equal(t, acl.DefaultPermissionCheckSize, checks)

	audit, checks = trailSizes(&config.Config{ACL: config.ACL{AuditLogSize: 10, PermissionCheckSize: 5}})
	assert.Equal(t, 10, audit)
	assert.Equal(t, 5, checks)
}

func TestCloseReleasesPartialDaemon(t *testing.T) {
	cfg := testConfig(t)

	_, gdb, err := OpenStore(cfg, nil)
	require.NoError(t, err)

	d := &Daemon{db: gdb}
	d.Close()

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping(), "database is closed")

	(&Daemon{}).Close()
}

func TestCloseStopsSchedulerAndSessions(t *testing.T) {
	cfg := testConfig(t)
	cfg.ACL.PruneSchedule = "@every 1h"

	store, gdb, err := OpenStore(cfg, nil)
	require.NoError(t, err)

	scheduler, err := pruneScheduler(cfg, gdb)
	require.NoError(t, err)
	scheduler.Start()

	d := &Daemon{db: gdb, store: store, scheduler: scheduler, sessions: session.New(nil, time.Hour)}
	d.Close()

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping())
}
