package migrate

import (
	"database/sql"
	"errors"
	"io/fs"

	embedded "github.com/njimyasmine/user-management-api"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

func UpSqlite(db *sql.DB) error {
	databaseDriver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return err
	}
	return up(embedded.SqliteMigrations, "migrations/sqlite", "sqlite3", databaseDriver)
}

func UpPostgres(db *sql.DB) error {
	databaseDriver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return err
	}
	return up(embedded.PostgresMigrations, "migrations/postgres", "pgx5", databaseDriver)
}

func up(source fs.FS, path string, databaseName string, databaseDriver database.Driver) error {
	sourceDriver, err := iofs.New(source, path)
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs",
		sourceDriver,
		databaseName, databaseDriver)
	if err != nil {
		return err
	}
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
