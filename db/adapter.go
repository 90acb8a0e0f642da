package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/kasuganosora/stalker/config"
	dbmysql "github.com/kasuganosora/stalker/db/mysql"
	dbsqlite "github.com/kasuganosora/stalker/db/sqlite"
)

const (
	ModeSQLite = "sqlite"
	ModeMySQL  = "mysql"
	// ModeNone disables persistence; Open returns (nil, nil).
	ModeNone = "none"
	// MemoryPath opens a private in-memory SQLite database.
	MemoryPath = "file::memory:"
)

// Open returns a *gorm.DB for the configured database mode.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeSQLite:
		return dbsqlite.Open(cfg.SQLitePath)
	case ModeMySQL:
		return dbmysql.Open(cfg.MySQLDSN, dbmysql.Pool{
			MaxOpen: cfg.MySQLMaxOpen,
			MaxIdle: cfg.MySQLMaxIdle,
			MaxLife: cfg.MySQLMaxLife,
		})
	case ModeNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}
