package testutil

import (
	"database/sql"
	"os"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/repomind/internal/config"
	"github.com/xxxsen/repomind/internal/db"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// OpenTestDB connects to the postgres named by TEST_DB_HOST (port, user,
// password and db name overridable via TEST_DB_*) and applies migrations.
// Skips when TEST_DB_HOST is unset.
func OpenTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	port, err := strconv.Atoi(envOr("TEST_DB_PORT", "5432"))
	require.NoError(t, err)
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     port,
		User:     envOr("TEST_DB_USER", "repomind"),
		Password: envOr("TEST_DB_PASSWORD", "repomind_pass"),
		DBName:   envOr("TEST_DB_NAME", "repomind_test"),
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	require.NoError(t, db.ApplyMigrations(conn))
	return conn, func() {
		_ = conn.Close()
	}
}

// NewID returns a fresh id so tests sharing one database never collide.
func NewID() string {
	return uuid.NewString()
}
