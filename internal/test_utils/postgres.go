package test_utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/famledger/famledger/internal/config"
	"github.com/famledger/famledger/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	dbName     = "famledger"
	dbUser     = "test_famledger"
	dbPassword = "test_famledger"
	dbSchema   = "famledger"
)

// TestDB is a migrated PostgreSQL container shared by the tests of a package.
type TestDB struct {
	container *postgres.PostgresContainer
	cfg       config.Database
}

// StartTestDB starts PostgreSQL, applies all migrations and snapshots the
// empty schema. It fails when no container runtime is available, callers
// skip their database tests in that case.
func StartTestDB() (*TestDB, error) {
	ctx := context.Background()

	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}

	container, err := startContainer(ctx, projectRoot)
	if err != nil {
		return nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, err
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return nil, err
	}
	log.Infof("Postgres container started at %s:%d", host, port.Int())

	testDB := &TestDB{
		container: container,
		cfg: config.Database{
			Host:   host,
			Port:   port.Int(),
			User:   dbUser,
			Pass:   dbPassword,
			Name:   dbName,
			Schema: dbSchema,
		},
	}

	if err := database.Migrate(testDB.cfg); err != nil {
		testDB.Terminate()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	if err := container.Snapshot(ctx, postgres.WithSnapshotName("famledger-test-snapshot")); err != nil {
		testDB.Terminate()
		return nil, fmt.Errorf("failed to snapshot postgres container: %w", err)
	}
	return testDB, nil
}

// startContainer turns the panic testcontainers raises without a docker
// host into an error.
func startContainer(ctx context.Context, projectRoot string) (container *postgres.PostgresContainer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("container runtime unavailable: %v", r)
		}
	}()
	container, err = postgres.Run(
		ctx, "postgres:18.1-alpine",
		postgres.WithInitScripts(filepath.Join(projectRoot, "dev", "init.sql")),
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}
	return container, nil
}

// Open returns a pool on the migrated schema. The schema is restored to its
// empty snapshot when the test ends.
func (d *TestDB) Open(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	pool, err := database.Open(ctx, d.cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Close()
		require.NoError(t, d.container.Restore(ctx))
	})
	return pool
}

func (d *TestDB) Terminate() {
	if err := testcontainers.TerminateContainer(d.container); err != nil {
		log.Errorf("failed to terminate container: %s", err)
	}
}

// RunWithDB runs the tests of a package with a shared database. db stays nil
// when PostgreSQL cannot be started, tests then skip through RequireDB.
func RunWithDB(m *testing.M, db **TestDB) int {
	testDB, err := StartTestDB()
	if err != nil {
		log.Warnf("database tests will be skipped: %v", err)
		return m.Run()
	}
	*db = testDB
	defer testDB.Terminate()
	return m.Run()
}

func RequireDB(t *testing.T, db *TestDB) {
	t.Helper()
	if db == nil {
		t.Skip("PostgreSQL test container is not available")
	}
}

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root")
		}
		dir = parent
	}
}
