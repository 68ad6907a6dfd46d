package testutil

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/xxxsen/unmask/internal/config"
	"github.com/xxxsen/unmask/internal/db"
)

// OpenTestDB returns a migrated in-memory sqlite database.
func OpenTestDB(t *testing.T) (*sqlx.DB, func()) {
	t.Helper()
	conn, err := db.Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
	}
}

// OpenPostgresTestDB connects to the postgres instance named by TEST_DB_HOST
// and skips the test when it is unset.
func OpenPostgresTestDB(t *testing.T) (*sqlx.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Driver:   "postgres",
		Host:     host,
		Port:     5432,
		User:     "unmask",
		Password: "unmask_pass",
		DBName:   "unmask_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	for _, table := range []string{"message_tags", "messages", "chunks", "chunk_vectors", "chunk_embeddings", "embedding_cache"} {
		if _, err := conn.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("reset %s: %v", table, err)
		}
	}
	return conn, func() {
		_ = conn.Close()
	}
}
