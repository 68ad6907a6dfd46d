package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/unmask/internal/config"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, ApplyMigrations(db))
	require.NoError(t, ApplyMigrations(db))

	for _, table := range []string{"messages", "message_tags", "chunks", "chunk_vectors", "embedding_cache"} {
		var n int
		require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM "+table))
		require.Zero(t, n, table)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mysql"})
	require.Error(t, err)
}
