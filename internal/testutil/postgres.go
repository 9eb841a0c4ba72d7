//go:build integration

package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"rollworks.io/erp/internal/infrastructure"
)

var (
	containerOnce sync.Once
	containerDSN  string
	containerErr  error
)

// postgresDSN returns TEST_DATABASE_URL or DATABASE_URL, else the DSN of a
// Postgres container shared by every test of the process. The container is
// removed by the testcontainers reaper when the process exits.
func postgresDSN(t *testing.T) string {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_DATABASE_URL"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn != "" {
		return dsn
	}

	containerOnce.Do(func() {
		ctx := context.Background()
		c, err := postgres.Run(ctx,
			"postgres:alpine",
			postgres.WithDatabase("erp_test"),
			postgres.WithUsername("erp"),
			postgres.WithPassword("erp"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		if err != nil {
			containerErr = fmt.Errorf("start postgres container: %w", err)
			return
		}
		containerDSN, containerErr = c.ConnectionString(ctx, "sslmode=disable")
	})
	if containerErr != nil {
		t.Fatalf("PostgreSQL test database unavailable (set TEST_DATABASE_URL or run Docker): %v", containerErr)
	}
	return containerDSN
}

// OpenPGXPool opens a pgxpool backed by PostgreSQL with an isolated schema per test.
func OpenPGXPool(t *testing.T, prefix string) *pgxpool.Pool {
	t.Helper()
	pool, _ := openSchema(t, prefix)
	return pool
}

// OpenMigratedPool is OpenPGXPool with every schema migration applied.
func OpenMigratedPool(t *testing.T, prefix string) *pgxpool.Pool {
	t.Helper()
	pool, dsn := openSchema(t, prefix)
	if err := infrastructure.MigrateSchema(dsn); err != nil {
		t.Fatalf("migrate test schema: %v", err)
	}
	return pool
}

func openSchema(t *testing.T, prefix string) (*pgxpool.Pool, string) {
	t.Helper()

	dsn := postgresDSN(t)
	schema := newSchemaName(prefix)
	ctx := context.Background()

	adminPool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres admin pool: %v", err)
	}
	t.Cleanup(adminPool.Close)

	if err := adminPool.Ping(ctx); err != nil {
		t.Fatalf("ping postgres: %v", err)
	}

	if _, err := adminPool.Exec(ctx, fmt.Sprintf(`CREATE SCHEMA "%s"`, schema)); err != nil {
		t.Fatalf("create test schema %q: %v", schema, err)
	}
	t.Cleanup(func() {
		_, _ = adminPool.Exec(ctx, fmt.Sprintf(`DROP SCHEMA IF EXISTS "%s" CASCADE`, schema))
	})

	schemaDSN, err := dsnWithSearchPath(dsn, schema)
	if err != nil {
		t.Fatalf("build postgres DSN with search_path: %v", err)
	}

	testPool, err := pgxpool.New(ctx, schemaDSN)
	if err != nil {
		t.Fatalf("open postgres test pool: %v", err)
	}
	t.Cleanup(testPool.Close)

	if err := testPool.Ping(ctx); err != nil {
		t.Fatalf("ping postgres test pool: %v", err)
	}

	return testPool, schemaDSN
}
