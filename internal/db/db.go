package db

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"chat-relay/internal/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Connect opens the database named by dsn and runs migrations. DSNs starting
// with "sqlite:" or "file:" select SQLite, anything else is handed to Postgres.
func Connect(dsn string, log logger.Logger) (*sqlx.DB, error) {
	driver, source := ParseDSN(dsn)
	db, err := sqlx.Connect(driver, source)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	log.Info("database migrations applied", logger.String("driver", driver))
	return db, nil
}

// ParseDSN returns the driver name and the driver specific source for dsn.
func ParseDSN(dsn string) (driver, source string) {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return DriverSQLite, strings.TrimPrefix(dsn, "sqlite://")
	case strings.HasPrefix(dsn, "sqlite:"):
		return DriverSQLite, strings.TrimPrefix(dsn, "sqlite:")
	case strings.HasPrefix(dsn, "file:"):
		return DriverSQLite, dsn
	default:
		return DriverPostgres, dsn
	}
}

// Migrate creates the relay tables for the dialect of db.
func Migrate(db *sqlx.DB) error {
	migrations := postgresMigrations
	if db.DriverName() == DriverSQLite {
		migrations = sqliteMigrations
	}
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS networks (
            uuid TEXT PRIMARY KEY,
            user_name TEXT NOT NULL,
            name TEXT NOT NULL DEFAULT '',
            host TEXT NOT NULL DEFAULT '',
            nick TEXT NOT NULL DEFAULT '',
            ignore_list TEXT NOT NULL DEFAULT '',
            updated_at TIMESTAMPTZ DEFAULT NOW()
        );`,
	`CREATE TABLE IF NOT EXISTS windows (
            network_uuid TEXT NOT NULL REFERENCES networks(uuid) ON DELETE CASCADE,
            name TEXT NOT NULL,
            type TEXT NOT NULL,
            muted BOOLEAN NOT NULL DEFAULT FALSE,
            position INT NOT NULL DEFAULT 0,
            PRIMARY KEY(network_uuid, name)
        );`,
	`CREATE TABLE IF NOT EXISTS messages (
            id BIGSERIAL PRIMARY KEY,
            user_name TEXT NOT NULL,
            network_uuid TEXT NOT NULL,
            window_name TEXT NOT NULL,
            type TEXT NOT NULL,
            time TIMESTAMPTZ NOT NULL,
            text TEXT NOT NULL,
            sender_nick TEXT NOT NULL DEFAULT '',
            sender_mode TEXT NOT NULL DEFAULT '',
            self BOOLEAN NOT NULL DEFAULT FALSE,
            highlight BOOLEAN NOT NULL DEFAULT FALSE,
            users TEXT NOT NULL DEFAULT '',
            statusmsg_group TEXT NOT NULL DEFAULT ''
        );`,
	`CREATE INDEX IF NOT EXISTS messages_window_idx ON messages (user_name, network_uuid, window_name, id);`,
}

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS networks (
            uuid TEXT PRIMARY KEY,
            user_name TEXT NOT NULL,
            name TEXT NOT NULL DEFAULT '',
            host TEXT NOT NULL DEFAULT '',
            nick TEXT NOT NULL DEFAULT '',
            ignore_list TEXT NOT NULL DEFAULT '',
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS windows (
            network_uuid TEXT NOT NULL REFERENCES networks(uuid) ON DELETE CASCADE,
            name TEXT NOT NULL,
            type TEXT NOT NULL,
            muted BOOLEAN NOT NULL DEFAULT 0,
            position INTEGER NOT NULL DEFAULT 0,
            PRIMARY KEY(network_uuid, name)
        );`,
	`CREATE TABLE IF NOT EXISTS messages (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_name TEXT NOT NULL,
            network_uuid TEXT NOT NULL,
            window_name TEXT NOT NULL,
            type TEXT NOT NULL,
            time DATETIME NOT NULL,
            text TEXT NOT NULL,
            sender_nick TEXT NOT NULL DEFAULT '',
            sender_mode TEXT NOT NULL DEFAULT '',
            self BOOLEAN NOT NULL DEFAULT 0,
            highlight BOOLEAN NOT NULL DEFAULT 0,
            users TEXT NOT NULL DEFAULT '',
            statusmsg_group TEXT NOT NULL DEFAULT ''
        );`,
	`CREATE INDEX IF NOT EXISTS messages_window_idx ON messages (user_name, network_uuid, window_name, id);`,
}
