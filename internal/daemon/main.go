// Package daemon wires configuration, storage and the web service together.
package daemon

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/marketplace-tools/permd/internal/acl"
	"github.com/marketplace-tools/permd/internal/config"
	"github.com/marketplace-tools/permd/internal/db"
	"github.com/marketplace-tools/permd/internal/db/controller/aclstore"
	"github.com/marketplace-tools/permd/internal/db/controller/hierarchy"
	"github.com/marketplace-tools/permd/internal/db/dsn"
	"github.com/marketplace-tools/permd/internal/logger"
	"github.com/marketplace-tools/permd/internal/web"
	"github.com/marketplace-tools/permd/internal/web/session"
	"github.com/marketplace-tools/permd/internal/web/session/redisstore"
)

const sessionTable = "sessions"

// Daemon represents the main application daemon.
type Daemon struct {
	webService *web.Service
	sessions   *session.Manager
	db         *gorm.DB
	store      *acl.Store
	scheduler  *cron.Cron
}

// Start starts the web service and blocks until it stops. SIGINT and SIGTERM shut it down.
func (d *Daemon) Start() error {
	defer d.Close()

	if d.scheduler != nil {
		d.scheduler.Start()
	}

	go d.webService.WaitShutdown()

	return d.webService.Start()
}

// Store returns the permission store.
func (d *Daemon) Store() *acl.Store {
	return d.store
}

// Sessions returns the token session manager.
func (d *Daemon) Sessions() *session.Manager {
	return d.sessions
}

// Close stops the prune job and releases the session storage and the database. It is safe on a
// partially built daemon.
func (d *Daemon) Close() {
	if d.scheduler != nil {
		<-d.scheduler.Stop().Done()
	}

	if d.sessions != nil {
		if err := d.sessions.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close session storage")
		}
	}

	if d.db == nil {
		return
	}

	if sqlDB, err := d.db.DB(); err == nil {
		if err = sqlDB.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	if err := logger.Init(cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	store, gdb, err := OpenStore(cfg, prometheus.DefaultRegisterer)
	if err != nil {
		return nil, err
	}

	d := &Daemon{db: gdb, store: store}

	if d.scheduler, err = pruneScheduler(cfg, gdb); err != nil {
		d.Close()
		return nil, err
	}

	d.sessions = session.New(sessionStorage(cfg), cfg.Webserver.Session.ExpiryTime)

	if err = seed(cfg, store, d.sessions); err != nil {
		d.Close()
		return nil, err
	}

	d.webService = web.New(cfg, web.Options{Store: store, Sessions: d.sessions})

	return d, nil
}

// pruneScheduler returns a cron running the trail pruning on cfg.ACL.PruneSchedule, or nil when
// no schedule is configured.
func pruneScheduler(cfg *config.Config, gdb *gorm.DB) (*cron.Cron, error) {
	if cfg.ACL.PruneSchedule == "" {
		return nil, nil
	}

	repo, err := aclstore.New(gdb)
	if err != nil {
		return nil, err
	}

	c := cron.New()

	_, err = c.AddFunc(cfg.ACL.PruneSchedule, func() {
		if err := repo.Prune(trailSizes(cfg)); err != nil {
			log.Error().Err(err).Msg("failed to prune audit trails")
			return
		}

		log.Debug().Msg("audit trails pruned")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule pruning: %w", err)
	}

	return c, nil
}

// trailSizes returns the configured trail sizes with the acl defaults applied.
func trailSizes(cfg *config.Config) (audit, checks int) {
	audit, checks = cfg.ACL.AuditLogSize, cfg.ACL.PermissionCheckSize
	if audit <= 0 {
		audit = acl.DefaultAuditLogSize
	}

	if checks <= 0 {
		checks = acl.DefaultPermissionCheckSize
	}

	return audit, checks
}

// OpenStore opens the database, migrates the acl tables and returns a store restored from it.
// reg receives the acl metrics and may be nil.
func OpenStore(cfg *config.Config, reg prometheus.Registerer) (*acl.Store, *gorm.DB, error) {
	gdb, err := db.Open(cfg)
	if err != nil {
		return nil, nil, err
	}

	repo, err := aclstore.New(gdb)
	if err != nil {
		return nil, nil, err
	}

	if err = repo.Migrate(); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	h, err := loadHierarchy(cfg, gdb)
	if err != nil {
		return nil, nil, err
	}

	var metrics *acl.Metrics
	if reg != nil {
		metrics = acl.NewMetrics(reg)
	}

	store, err := acl.NewStore(acl.Options{
		Strict:              cfg.ACL.Strict,
		AuditLogSize:        cfg.ACL.AuditLogSize,
		PermissionCheckSize: cfg.ACL.PermissionCheckSize,
		Hierarchy:           h,
		Persister:           repo,
		Metrics:             metrics,
	})
	if err != nil {
		return nil, nil, err
	}

	snap, err := repo.Load(cfg.ACL.AuditLogSize, cfg.ACL.PermissionCheckSize)
	if err != nil {
		return nil, nil, err
	}

	store.Restore(snap)

	if err = repo.Prune(trailSizes(cfg)); err != nil {
		log.Warn().Err(err).Msg("failed to prune audit trails")
	}

	log.Info().
		Int("roles", len(snap.Roles)).
		Int("assignments", len(snap.Assignments)).
		Int("audit_logs", len(snap.AuditLogs)).
		Msg("acl state restored")

	return store, gdb, nil
}

// loadHierarchy returns the configured hierarchy, stored so it survives restarts, or the stored
// one. A nil result means the default hierarchy.
func loadHierarchy(cfg *config.Config, gdb *gorm.DB) (acl.Hierarchy, error) {
	if len(cfg.ACL.Hierarchy) > 0 {
		h := make(acl.Hierarchy, len(cfg.ACL.Hierarchy))
		for parent, children := range cfg.ACL.Hierarchy {
			ids := make([]acl.RoleID, 0, len(children))
			for _, child := range children {
				ids = append(ids, acl.RoleID(child))
			}

			h[acl.RoleID(parent)] = ids
		}

		if err := hierarchy.Save(gdb, h); err != nil {
			return nil, fmt.Errorf("failed to store role hierarchy: %w", err)
		}

		return h, nil
	}

	h, ok, err := hierarchy.Load(gdb)
	if err != nil {
		return nil, fmt.Errorf("failed to load role hierarchy: %w", err)
	}

	if !ok {
		return nil, nil
	}

	return h, nil
}

// sessionStorage returns the fiber storage for tokens. Nil selects fiber's memory storage.
func sessionStorage(cfg *config.Config) fiber.Storage {
	switch cfg.Webserver.SessionStorage {
	case config.SessionStorageRedis:
		r := cfg.Webserver.Redis
		return redisstore.NewClient(r.Addr, r.Password, r.DB, r.Prefix)
	case config.SessionStorageDB:
	default:
		return nil
	}

	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.MySQL(&cfg.DB),
			Table:         sessionTable,
		})
	case config.EnginePostgres:
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.Postgres(&cfg.DB),
			Table:         sessionTable,
		})
	default:
		return nil
	}
}
