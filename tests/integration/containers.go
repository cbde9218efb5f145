// Package integration runs the storefront against real backing services.
// It uses testcontainers to start PostgreSQL and Redis; tests are skipped in
// -short mode and when no container runtime is available.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/trendstep/storefront/internal/infrastructure/config"
	"github.com/trendstep/storefront/internal/infrastructure/migration"
	"github.com/trendstep/storefront/migrations"
)

const (
	pgDatabase = "storefront_test"
	pgUser     = "postgres"
	pgPassword = "storefront123"
)

var (
	sharedPostgres   *Postgres
	sharedPostgresMu sync.Mutex
	sharedRedis      *Redis
	sharedRedisMu    sync.Mutex
)

// Postgres is a migrated PostgreSQL container
type Postgres struct {
	Container testcontainers.Container
	DSN       string
	Host      string
	Port      int
}

// Redis is a Redis container
type Redis struct {
	Container testcontainers.Container
	Host      string
	Port      int
}

func skipWithoutContainers(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// StartPostgres returns the package's PostgreSQL container, starting it and
// applying the bundled migrations on first use.
func StartPostgres(t *testing.T) *Postgres {
	t.Helper()
	skipWithoutContainers(t)

	sharedPostgresMu.Lock()
	defer sharedPostgresMu.Unlock()
	if sharedPostgres != nil {
		return sharedPostgres
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase(pgDatabase),
		tcpostgres.WithUsername(pgUser),
		tcpostgres.WithPassword(pgPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")
	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer sqlDB.Close()

	m, err := migration.New(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to run migrations")

	sharedPostgres = &Postgres{Container: container, DSN: dsn, Host: host, Port: port.Int()}
	return sharedPostgres
}

// Gorm opens a pooled gorm handle closed at test cleanup
func (p *Postgres) Gorm(t *testing.T) *gorm.DB {
	t.Helper()

	gormConfig := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}
	db, err := gorm.Open(gormpostgres.Open(p.DSN), gormConfig)
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// SQL opens a database/sql handle closed at test cleanup
func (p *Postgres) SQL(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres", p.DSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Truncate empties the cart table
func (p *Postgres) Truncate(t *testing.T) {
	t.Helper()
	_, err := p.SQL(t).Exec("TRUNCATE TABLE cart_entries")
	require.NoError(t, err)
}

// Config returns storefront settings pointing at this container
func (p *Postgres) Config(t *testing.T) *config.Config {
	t.Helper()
	cfg := baseConfig(t)
	cfg.Storage.Driver = config.DriverPostgres
	cfg.Database.Host = p.Host
	cfg.Database.Port = p.Port
	cfg.Database.User = pgUser
	cfg.Database.Password = pgPassword
	cfg.Database.DBName = pgDatabase
	cfg.Database.SSLMode = "disable"
	return cfg
}

// StartRedis returns the package's Redis container, starting it on first use
func StartRedis(t *testing.T) *Redis {
	t.Helper()
	skipWithoutContainers(t)

	sharedRedisMu.Lock()
	defer sharedRedisMu.Unlock()
	if sharedRedis != nil {
		return sharedRedis
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	sharedRedis = &Redis{Container: container, Host: host, Port: port.Int()}
	return sharedRedis
}

// Addr returns host:port
func (r *Redis) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Config returns storefront settings pointing at this container
func (r *Redis) Config(t *testing.T) *config.Config {
	t.Helper()
	cfg := baseConfig(t)
	cfg.Storage.Driver = config.DriverRedis
	cfg.Redis.Host = r.Host
	cfg.Redis.Port = r.Port
	return cfg
}

func baseConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Telemetry.Enabled = false
	cfg.Telemetry.ProfilingEnabled = false
	cfg.Storage.AllowFallback = false
	return cfg
}

// terminateContainers stops the shared containers; called from TestMain
func terminateContainers() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if sharedPostgres != nil {
		_ = sharedPostgres.Container.Terminate(ctx)
	}
	if sharedRedis != nil {
		_ = sharedRedis.Container.Terminate(ctx)
	}
}
