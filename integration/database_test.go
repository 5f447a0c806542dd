//go:build database

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestFootholdWithMySQL tests the foothold CLI with a MySQL backend.
func TestFootholdWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "foothold",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	// Get connection details
	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/foothold?parseTime=true", host, port.Port())
	exerciseBackend(t, "mysql", connStr)
}

// TestFootholdWithPostgres tests the foothold CLI with a PostgreSQL backend.
func TestFootholdWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	// Get connection details
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	exerciseBackend(t, "postgresql", connStr)
}

// exerciseBackend runs the cache and run-history commands against one backend.
func exerciseBackend(t *testing.T, backend, connStr string) {
	t.Helper()
	source := writeCities(t)
	env := []string{
		"FOOTHOLD_CACHE_BACKEND=" + backend,
		"FOOTHOLD_CACHE_DB_CONNECT=" + connStr,
		"FOOTHOLD_RUN_BACKEND=" + backend,
		"FOOTHOLD_RUN_DB_CONNECT=" + connStr,
	}

	_, err := runFoothold(t, env, "cache", "clear")
	require.NoError(t, err)
	_, err = runFoothold(t, env, "runs", "clear")
	require.NoError(t, err)

	// Twice, so the second request reads the cached matrix
	for range 2 {
		_, err = runFoothold(t, env, "rank", source, "--variant", "2")
		require.NoError(t, err)
	}

	out, err := runFoothold(t, env, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Entries: 1")

	out, err = runFoothold(t, env, "runs", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs: 2")

	exportBase := filepath.Join(t.TempDir(), "history")
	_, err = runFoothold(t, env, "runs", "export", "--output-file", exportBase)
	require.NoError(t, err)
	for _, suffix := range []string{".runs.parquet", ".rankings.parquet"} {
		info, err := os.Stat(exportBase + suffix)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	_, err = runFoothold(t, env, "runs", "migrate", "--target-version", "0")
	require.NoError(t, err)
	_, err = runFoothold(t, env, "runs", "migrate")
	require.NoError(t, err)
}
