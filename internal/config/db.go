package config

// Gorm engines understood by db.Open.
const (
	EngineSQLite   = "sqlite"
	EngineMySQL    = "mysql"
	EnginePostgres = "postgres"
)

// DB holds the database configuration settings.
type DB struct {
	GormEngine string // sqlite, mysql or postgres
	Path       string // database file for sqlite, ":memory:" for a throwaway database
	Extras     string // driver specific DSN parameters
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
}
