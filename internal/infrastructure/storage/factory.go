package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/trendstep/storefront/internal/domain/cart"
	"github.com/trendstep/storefront/internal/infrastructure/config"
	"github.com/trendstep/storefront/internal/infrastructure/persistence"
)

// Backend is an opened cart storage together with its lifecycle hooks
type Backend struct {
	cart.Storage
	Driver string

	ping   func(ctx context.Context) error
	closer func() error
}

// Ping checks the backend; memory always succeeds
func (b *Backend) Ping(ctx context.Context) error {
	if b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

// Close releases connections
func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer()
}

// Factory opens the storage backend selected by configuration
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	allowFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory and the backends it opens
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithMemoryFallback controls whether an unreachable backend degrades to
// process memory instead of failing startup
func WithMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowFallback = allow
	}
}

// NewFactory creates a storage factory
func NewFactory(cfg *config.Config, opts ...FactoryOption) *Factory {
	f := &Factory{
		cfg:           cfg,
		logger:        zap.NewNop(),
		allowFallback: cfg.Storage.AllowFallback,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Open connects the configured driver
func (f *Factory) Open(ctx context.Context) (*Backend, error) {
	driver := f.cfg.Storage.Driver
	b, err := f.open(ctx, driver)
	if err == nil {
		f.logger.Info("cart storage ready", zap.String("driver", driver))
		return b, nil
	}
	if driver == config.DriverMemory || !f.allowFallback {
		return nil, err
	}

	f.logger.Warn("cart storage unavailable, falling back to process memory. "+
		"Carts will not survive restarts or be shared between instances.",
		zap.String("driver", driver),
		zap.Error(err),
	)
	return f.memory(), nil
}

func (f *Factory) open(ctx context.Context, driver string) (*Backend, error) {
	switch driver {
	case config.DriverMemory:
		return f.memory(), nil

	case config.DriverRedis:
		rc := f.cfg.Redis
		store, err := NewRedisStore(ctx, RedisOptions{
			Addr:        rc.Addr(),
			Password:    rc.Password,
			DB:          rc.DB,
			TTL:         rc.TTL,
			DialTimeout: f.cfg.Storage.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return &Backend{Storage: store, Driver: driver, ping: store.Ping, closer: store.Close}, nil

	case config.DriverSQLite, config.DriverPostgres:
		db, err := persistence.Open(f.cfg.Storage, f.cfg.Database, persistence.Options{
			Logger:   f.logger,
			LogLevel: f.cfg.Log.Level,
			Tracing:  f.cfg.Telemetry.Enabled && f.cfg.Telemetry.DBTraceEnabled,
		})
		if err != nil {
			return nil, err
		}
		store := NewSQLStore(db.DB)
		if driver == config.DriverSQLite {
			if err := store.AutoMigrate(); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("migrate sqlite cart table: %w", err)
			}
		}
		return &Backend{Storage: store, Driver: driver, ping: db.Ping, closer: db.Close}, nil

	case config.DriverS3:
		store, err := NewS3Store(ctx, f.cfg.S3, f.logger)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return &Backend{Storage: store, Driver: driver, ping: store.EnsureBucket}, nil

	default:
		return nil, errors.New("unsupported storage driver: " + driver)
	}
}

func (f *Factory) memory() *Backend {
	store := NewMemoryStore(f.cfg.Redis.TTL)
	return &Backend{Storage: store, Driver: config.DriverMemory, closer: store.Close}
}
