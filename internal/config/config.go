// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// EnvConfigJSON names the environment variable holding a JSON config override.
const EnvConfigJSON = "PERMD_CONFIG_JSON"

const (
	defaultShutDownTime  = 5
	defaultSessionExpiry = 24 * time.Hour
	defaultAPITimeout    = 10 * time.Second
	defaultRedisPrefix   = "permd:"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	if _, err = toml.DecodeFile(path+"main.toml", &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to decode "+EnvConfigJSON)
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the daemon cannot start without and fills in defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Webserver.Session.ExpiryTime == 0 {
		c.Webserver.Session.ExpiryTime = defaultSessionExpiry
	}

	if c.API.Timeout == 0 {
		c.API.Timeout = defaultAPITimeout
	}

	if c.DB.GormEngine == "" {
		c.DB.GormEngine = EngineSQLite
	}

	switch c.DB.GormEngine {
	case EngineSQLite:
		if c.DB.Path == "" {
			return errors.Wrap(ErrSQLitePathEmpty, invalidErrMessage)
		}
	case EngineMySQL, EnginePostgres:
	default:
		return errors.Wrapf(ErrUnknownGormEngine, "%s: %q", invalidErrMessage, c.DB.GormEngine)
	}

	switch c.Webserver.SessionStorage {
	case "":
		c.Webserver.SessionStorage = SessionStorageMemory
	case SessionStorageMemory:
	case SessionStorageDB:
		if c.DB.GormEngine == EngineSQLite {
			return errors.Wrap(ErrSessionStorageEngine, invalidErrMessage)
		}
	case SessionStorageRedis:
		if c.Webserver.Redis.Addr == "" {
			return errors.Wrap(ErrRedisAddrEmpty, invalidErrMessage)
		}

		if c.Webserver.Redis.Prefix == "" {
			c.Webserver.Redis.Prefix = defaultRedisPrefix
		}
	default:
		return errors.Wrapf(ErrUnknownSessionStorage, "%s: %q", invalidErrMessage, c.Webserver.SessionStorage)
	}

	if c.ACL.AuditLogSize < 0 || c.ACL.PermissionCheckSize < 0 {
		return errors.Wrap(ErrNegativeTrailSize, invalidErrMessage)
	}

	if c.ACL.PruneSchedule != "" {
		if _, err := cron.ParseStandard(c.ACL.PruneSchedule); err != nil {
			return errors.Wrapf(ErrInvalidPruneSchedule, "%s: %v", invalidErrMessage, err)
		}
	}

	return nil
}
