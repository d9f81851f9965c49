// Package migrations embeds the SQLite schema into the binary.
//
// Importing this package for side effects registers the files with the
// database package, so plantbridge needs no SQL files on disk at runtime.
package migrations

import (
	"embed"

	"github.com/nerrad567/plantbridge/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
