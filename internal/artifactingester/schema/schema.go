package schema

import (
	"embed"
	"time"

	"github.com/jobartifacts/artifactingester/internal/common/artifactcontext"
	"github.com/jobartifacts/artifactingester/internal/common/database"
)

//go:embed migrations/*.sql
var fs embed.FS

func ArtifactMigrations() ([]database.Migration, error) {
	return database.ReadMigrations(fs, "migrations")
}

// Migrate updates the supplied database to the latest version.
// If the database is already at the latest version then this is a no-op.
func Migrate(ctx *artifactcontext.Context, db database.Querier) error {
	start := time.Now()
	migrations, err := ArtifactMigrations()
	if err != nil {
		return err
	}
	if err := database.UpdateDatabase(ctx, db, migrations); err != nil {
		return err
	}
	ctx.Log.Infof("Updated artifact database in %s", time.Since(start))
	return nil
}
