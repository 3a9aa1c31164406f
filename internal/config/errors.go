package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrUnknownGormEngine error if config db.gormengine is not supported.
	ErrUnknownGormEngine = errors.New("toml config db.gormengine must be sqlite, mysql or postgres")

	// ErrSQLitePathEmpty error if sqlite is selected without a database path.
	ErrSQLitePathEmpty = errors.New("toml config db.path can not be empty for sqlite")

	// ErrUnknownSessionStorage error if config webserver.sessionstorage is not supported.
	ErrUnknownSessionStorage = errors.New("toml config webserver.sessionstorage must be memory, db or redis")

	// ErrNegativeTrailSize error if an acl trail size is negative.
	ErrNegativeTrailSize = errors.New("toml config acl trail sizes can not be negative")
)

// ErrSessionStorageEngine error if db session storage is used with an engine it does not support.
var ErrSessionStorageEngine = errors.New("toml config webserver.sessionstorage db requires a mysql or postgres db")

// ErrRedisAddrEmpty error if redis session storage is selected without an address.
var ErrRedisAddrEmpty = errors.New("toml config webserver.redis.addr can not be empty for redis session storage")

// ErrInvalidPruneSchedule error if config acl.pruneschedule is not a cron expression.
var ErrInvalidPruneSchedule = errors.New("toml config acl.pruneschedule is not a valid cron expression")
