package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/logger"
)

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn    string
		driver string
		source string
	}{
		{"postgres://u:p@localhost:5432/relay?sslmode=disable", DriverPostgres, "postgres://u:p@localhost:5432/relay?sslmode=disable"},
		{"sqlite:///var/lib/relay.db", DriverSQLite, "/var/lib/relay.db"},
		{"sqlite::memory:", DriverSQLite, ":memory:"},
		{"file:relay.db?cache=shared", DriverSQLite, "file:relay.db?cache=shared"},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			driver, source := ParseDSN(tt.dsn)
			assert.Equal(t, tt.driver, driver)
			assert.Equal(t, tt.source, source)
		})
	}
}

func TestConnectSQLiteMigrates(t *testing.T) {
	db, err := Connect("sqlite::memory:", logger.Nop())
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"networks", "windows", "messages"} {
		var n int
		require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table))
		assert.Equal(t, 1, n, table)
	}
	assert.NoError(t, Migrate(db))
}
