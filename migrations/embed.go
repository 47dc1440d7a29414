// Package migrations embeds the SQL migration files into the binary so the
// schema can be applied at startup without shipping the files separately.
package migrations

import (
	"embed"

	"github.com/iliyamo/tenant-auth/internal/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
