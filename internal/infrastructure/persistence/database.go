// Package persistence opens the SQL database behind the sql cart storage drivers.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/trendstep/storefront/internal/infrastructure/config"
	"github.com/trendstep/storefront/internal/infrastructure/logger"
)

// Database holds the gorm handle
type Database struct {
	DB *gorm.DB
}

// Options tunes Open
type Options struct {
	Logger        *zap.Logger
	LogLevel      string        // zap level name mapped to the gorm level
	SlowThreshold time.Duration // statements slower than this are logged at warn
	Tracing       bool          // register the otelgorm plugin
}

// Open connects to sqlite or postgres according to the storage driver
func Open(storage config.StorageConfig, db config.DatabaseConfig, opts Options) (*Database, error) {
	var dialector gorm.Dialector
	switch storage.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(storage.SQLitePath)
	case config.DriverPostgres:
		dialector = postgres.Open(db.DSN())
	default:
		return nil, fmt.Errorf("driver %q is not a SQL driver", storage.Driver)
	}
	return open(dialector, storage.Driver == config.DriverPostgres, db, opts)
}

// OpenDialector connects with an explicit dialector, e.g. sqlite in tests
func OpenDialector(dialector gorm.Dialector, opts Options) (*Database, error) {
	return open(dialector, false, config.DatabaseConfig{}, opts)
}

func open(dialector gorm.Dialector, pooled bool, cfg config.DatabaseConfig, opts Options) (*Database, error) {
	zl := opts.Logger
	if zl == nil {
		zl = zap.NewNop()
	}
	slow := opts.SlowThreshold
	if slow == 0 {
		slow = 200 * time.Millisecond
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.NewGormLogger(zl, logger.GormLevel(opts.LogLevel), slow),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if opts.Tracing {
		if err := gdb.Use(otelgorm.NewPlugin(otelgorm.WithoutQueryVariables())); err != nil {
			return nil, fmt.Errorf("failed to register tracing plugin: %w", err)
		}
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if pooled {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Database{DB: gdb}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
