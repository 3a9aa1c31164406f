// Package db opens the gorm connection for the configured engine.
package db

import (
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/marketplace-tools/permd/internal/config"
	"github.com/marketplace-tools/permd/internal/db/dsn"
	gormadapter "github.com/marketplace-tools/permd/internal/logger/adapter/gorm"
)

// ErrUnknownEngine is returned for a gorm engine Open does not support.
var ErrUnknownEngine = errors.New("unknown gorm engine")

// Open connects to the database described by cfg.DB and routes gorm's log through zerolog.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := dialector(&cfg.DB)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormadapter.New(cfg.Log),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect %s database", cfg.DB.GormEngine)
	}

	// each connection to ":memory:" is its own database
	if cfg.DB.GormEngine == config.EngineSQLite && cfg.DB.Path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get sql handle")
		}

		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func dialector(dbCfg *config.DB) (gorm.Dialector, error) {
	switch dbCfg.GormEngine {
	case config.EngineSQLite, "":
		if dbCfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dbCfg.Path), 0o750); err != nil {
				return nil, errors.Wrap(err, "failed to create database directory")
			}
		}

		return sqlite.Open(dsn.Create(dbCfg)), nil
	case config.EngineMySQL:
		return mysql.Open(dsn.Create(dbCfg)), nil
	case config.EnginePostgres:
		return postgres.Open(dsn.Create(dbCfg)), nil
	default:
		return nil, errors.Wrap(ErrUnknownEngine, dbCfg.GormEngine)
	}
}
