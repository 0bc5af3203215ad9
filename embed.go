package embedded

import "embed"

//go:embed "migrations/sqlite"
var SqliteMigrations embed.FS

//go:embed "migrations/postgres"
var PostgresMigrations embed.FS
