package dbutil

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalize(t *testing.T) {
	tests := []struct {
		name      string
		driver    string
		query     string
		args      []interface{}
		wantQuery string
		wantArgs  []interface{}
	}{
		{
			name:      "postgres limit offset",
			driver:    DriverPostgres,
			query:     "SELECT id FROM messages WHERE sender=? ORDER BY id LIMIT ?,?",
			args:      []interface{}{"A", 20, 10},
			wantQuery: "SELECT id FROM messages WHERE sender=$1 ORDER BY id LIMIT $2 OFFSET $3",
			wantArgs:  []interface{}{"A", 10, 20},
		},
		{
			name:      "sqlite keeps question marks",
			driver:    DriverSQLite,
			query:     "SELECT id FROM messages LIMIT ?,?",
			args:      []interface{}{0, 5},
			wantQuery: "SELECT id FROM messages LIMIT ? OFFSET ?",
			wantArgs:  []interface{}{5, 0},
		},
		{
			name:      "backtick identifiers",
			driver:    DriverPostgres,
			query:     "SELECT `id`,`ts` FROM `messages` WHERE (`id`=?)",
			args:      []interface{}{1},
			wantQuery: `SELECT "id","ts" FROM "messages" WHERE ("id"=$1)`,
			wantArgs:  []interface{}{1},
		},
		{
			name:      "no limit",
			driver:    DriverPostgres,
			query:     "DELETE FROM chunks WHERE id=?",
			args:      []interface{}{"chunk_1"},
			wantQuery: "DELETE FROM chunks WHERE id=$1",
			wantArgs:  []interface{}{"chunk_1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := Finalize(tt.driver, tt.query, tt.args)
			require.Equal(t, tt.wantQuery, q)
			require.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestIsConflict(t *testing.T) {
	require.True(t, IsConflict(&pq.Error{Code: "23505"}))
	require.False(t, IsConflict(&pq.Error{Code: "23503"}))
	require.False(t, IsConflict(errors.New("UNIQUE constraint failed")))
	require.False(t, IsConflict(nil))

	db, err := sql.Open(DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)
	_, err = db.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT UNIQUE)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO t (id, name) VALUES (1, 'a')")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO t (id, name) VALUES (2, 'a')")
	require.True(t, IsConflict(err))
	_, err = db.Exec("INSERT INTO t (id, name) VALUES (1, 'b')")
	require.True(t, IsConflict(err))
}
