package database

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// TestPostgresEnvVar must be set for tests that need a real Postgres instance to run.
// Its value is used as the connection string of the admin database, e.g.
// "host=localhost port=5432 user=postgres password=psw sslmode=disable".
const TestPostgresEnvVar = "ARTIFACTS_TEST_POSTGRES"

// SkipIfNoPostgres skips the calling test unless a test database has been configured.
func SkipIfNoPostgres(t *testing.T) {
	t.Helper()
	if os.Getenv(TestPostgresEnvVar) == "" {
		t.Skipf("%s not set; skipping test requiring postgres", TestPostgresEnvVar)
	}
}

// WithTestDb creates a dedicated database, applies migrations and passes a pool connected to it to action.
// The database is dropped once action returns.
func WithTestDb(migrations []Migration, action func(db *pgxpool.Pool) error) error {
	ctx := context.Background()
	connectionString := os.Getenv(TestPostgresEnvVar)
	if connectionString == "" {
		return errors.Errorf("%s is not set", TestPostgresEnvVar)
	}

	dbName := "test_" + strings.ToLower(UniqueTableName("artifacts"))
	db, err := pgx.Connect(ctx, connectionString)
	if err != nil {
		return errors.WithStack(err)
	}
	defer db.Close(ctx)

	_, err = db.Exec(ctx, "CREATE DATABASE "+dbName)
	if err != nil {
		return errors.WithStack(err)
	}

	// Connect again: this time to the database we just created.
	testDbPool, err := pgxpool.New(ctx, connectionString+" dbname="+dbName)
	if err != nil {
		return errors.WithStack(err)
	}

	defer func() {
		testDbPool.Close()
		// disconnect all db users before cleanup
		_, err = db.Exec(ctx,
			`SELECT pg_terminate_backend(pg_stat_activity.pid)
			 FROM pg_stat_activity WHERE pg_stat_activity.datname = '`+dbName+`';`)
		if err != nil {
			log.WithError(err).Warn("Failed to disconnect users")
		}

		_, err = db.Exec(ctx, "DROP DATABASE "+dbName)
		if err != nil {
			log.WithError(err).Warnf("Failed to drop database %s", dbName)
		}
	}()

	err = UpdateDatabase(ctx, testDbPool, migrations)
	if err != nil {
		return errors.WithStack(err)
	}

	return action(testDbPool)
}
