// Package migrations embeds SQL migration files into the binary.
//
// The relay cycle controller runs its migrations without needing the SQL
// files present on disk.
package migrations

import (
	"embed"

	"github.com/nerrad567/relaycycle/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
