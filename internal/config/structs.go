package config

import (
	"time"

	"github.com/marketplace-tools/permd/internal/logger"
)

// Session storage backends.
const (
	SessionStorageMemory = "memory"
	SessionStorageDB     = "db"
	SessionStorageRedis  = "redis"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	ACL       ACL
	API       API
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool    // disable recover middleware
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown in seconds
	URL            string  // base url for the webserver
	SessionStorage string  // memory, db or redis
	Session        Session // token session settings
	Redis          Redis   // used by the redis session storage
}

// Redis connection settings.
type Redis struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // key prefix, defaults to "permd:"
}

// ACL configures the permission store.
type ACL struct {
	// Strict rejects assignments of unknown roles and roles referencing unknown permissions.
	Strict bool

	AuditLogSize        int
	PermissionCheckSize int

	// Bootstrap lists user ids that receive super_admin when they hold no assignment.
	Bootstrap []string

	// Hierarchy overrides the default role hierarchy, keyed by role id.
	Hierarchy map[string][]string

	// PruneSchedule is a cron expression for trimming the persisted trails to their sizes.
	// Empty disables the job, the trails are still trimmed at start.
	PruneSchedule string
}

// API configures the REST surface and the remote client.
type API struct {
	// Tokens maps bearer tokens to user ids. They are seeded into the session storage at start.
	Tokens map[string]string

	// Remote is the base url used by the remote commands.
	Remote string

	// Token is the bearer token used by the remote commands.
	Token string

	// Timeout for remote calls.
	Timeout time.Duration
}
