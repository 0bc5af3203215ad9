package migrate

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpSqlite(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	require.NoError(t, UpSqlite(db))
	// second run is a no-op
	require.NoError(t, UpSqlite(db))

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'users'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "users", name)

	_, err = db.Exec(`INSERT INTO users (id, name, email, password_hash, created_at) VALUES ('a', 'a', 'a@example.com', 'h', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO users (id, name, email, password_hash, created_at) VALUES ('b', 'b', 'a@example.com', 'h', CURRENT_TIMESTAMP)`)
	assert.Error(t, err, "email must be unique")
}
