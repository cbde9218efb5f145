package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appcart "github.com/trendstep/storefront/internal/application/cart"
	"github.com/trendstep/storefront/internal/application/notice"
	"github.com/trendstep/storefront/internal/domain/cart"
	"github.com/trendstep/storefront/internal/domain/shared/valueobject"
	"github.com/trendstep/storefront/internal/infrastructure/catalogfile"
	"github.com/trendstep/storefront/internal/infrastructure/config"
	"github.com/trendstep/storefront/internal/infrastructure/event"
	"github.com/trendstep/storefront/internal/infrastructure/i18n"
	"github.com/trendstep/storefront/internal/infrastructure/logger"
	"github.com/trendstep/storefront/internal/infrastructure/printing"
	"github.com/trendstep/storefront/internal/infrastructure/scheduler"
	"github.com/trendstep/storefront/internal/infrastructure/storage"
	"github.com/trendstep/storefront/internal/infrastructure/telemetry"
	"github.com/trendstep/storefront/internal/interfaces/http/handler"
	"github.com/trendstep/storefront/internal/interfaces/http/middleware"
	"github.com/trendstep/storefront/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const (
	rateLimitSweepInterval = time.Minute
	cartPurgeInterval      = time.Hour
)

//go:generate swag init -g main.go -d ./,../../internal/interfaces/http/handler,../../internal/interfaces/http/dto -o ../../docs

//	@title			TrendStep Storefront API
//	@version		1.0
//	@description	Session cart for the TrendStep sneaker storefront.

//	@license.name	MIT

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	// re-create the logger so entries are also exported over OTLP
	level, _ := logger.ParseLevel(cfg.Log.Level)
	log, err := logger.New(logCfg,
		logger.WithCore(tel.ZapCore(level)),
		logger.WithFields(zap.String("service", cfg.App.Name)),
	)
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	if err := run(ctx, cfg, tel, log); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("Server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config, tel *telemetry.Telemetry, log *zap.Logger) error {
	log.Info("Starting storefront",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	backend, err := storage.NewFactory(cfg,
		storage.WithLogger(log),
		storage.WithMemoryFallback(cfg.Storage.AllowFallback),
	).Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Error("Error closing cart storage", zap.Error(err))
		}
	}()

	// notices and metrics react to cart events
	bus := event.NewInMemoryEventBus(log)
	board := notice.NewBoard()
	defer board.Close()
	notices := notice.NewEventHandler(board, notice.TTLs{
		Added:   cfg.Cart.NoticeTTL,
		Success: cfg.Cart.SuccessTTL,
		Warning: cfg.Cart.NoticeTTL,
	}, log)
	bus.Subscribe(notices)

	meter := otel.Meter("github.com/trendstep/storefront")
	cartMetrics, err := telemetry.NewCartMetrics(meter)
	if err != nil {
		return err
	}
	bus.Subscribe(cartMetrics)

	carts, err := newManager(cfg, backend, bus, log)
	if err != nil {
		return err
	}

	source, err := catalogfile.NewSource(cfg.Catalog.Path, log)
	if err != nil {
		return err
	}

	localizer := i18n.New(cfg.App.Language)
	views, err := handler.NewViews(localizer)
	if err != nil {
		return err
	}

	var cartOpts []handler.CartHandlerOption
	if cfg.Printing.Enabled {
		engine, err := printing.NewTemplateEngine(localizer)
		if err != nil {
			return err
		}
		renderer := printing.NewChromedpRenderer(printing.ChromedpConfig{
			Timeout:   cfg.Printing.Timeout,
			RemoteURL: cfg.Printing.ChromeURL,
			NoSandbox: cfg.Printing.NoSandbox,
			Logger:    log,
		})
		cartOpts = append(cartOpts, handler.WithReceiptPrinter(printing.NewReceiptPrinter(engine, renderer)))
		log.Info("PDF receipts enabled")
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRate, cfg.HTTP.RateLimitBurst)
	}

	engine, err := router.New(router.Deps{
		Config:      cfg,
		Logger:      log,
		Meter:       meter,
		Views:       views,
		Storefront:  handler.NewStorefrontHandler(carts, source, board, notices),
		Cart:        handler.NewCartHandler(carts, source, localizer, cartOpts...),
		System:      handler.NewSystemHandler(cfg.App.Name, version, backend.Driver, backend),
		RateLimiter: limiter,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr), zap.String("storage", backend.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Catalog.Watch && source.Path() != "" {
		watcher, err := catalogfile.NewWatcher(source, log)
		if err != nil {
			log.Warn("Catalog hot reload unavailable", zap.Error(err))
		} else {
			g.Go(func() error { return watcher.Run(gctx) })
		}
	}

	housekeeping, err := newHousekeeping(cfg, backend, limiter, log)
	if err != nil {
		return err
	}
	if housekeeping.Tasks() > 0 {
		g.Go(func() error { return housekeeping.Run(gctx, cfg.HTTP.ShutdownTimeout) })
	}

	return g.Wait()
}

func newManager(cfg *config.Config, backend *storage.Backend, bus *event.InMemoryEventBus, log *zap.Logger) (*appcart.Manager, error) {
	amount, err := cfg.Cart.Fee()
	if err != nil {
		return nil, err
	}
	fee, err := valueobject.NewMoney(amount)
	if err != nil {
		return nil, err
	}
	ids, err := cart.NewIDGenerator(cfg.Cart.IDStrategy)
	if err != nil {
		return nil, err
	}
	return appcart.NewManager(backend.Storage,
		appcart.WithShippingFee(fee),
		appcart.WithIDGenerator(ids),
		appcart.WithKeyPrefix(cfg.Cart.StorageKey),
		appcart.WithPublisher(bus),
		appcart.WithLogger(log),
	), nil
}

// newHousekeeping registers the periodic cleanup tasks that apply to this
// deployment: stale cart purging for sql drivers and rate limit bucket sweeps.
func newHousekeeping(cfg *config.Config, backend *storage.Backend, limiter *middleware.RateLimiter, log *zap.Logger) (*scheduler.Scheduler, error) {
	s, err := scheduler.New(scheduler.DefaultConfig(), log.Named("scheduler"))
	if err != nil {
		return nil, err
	}
	if purger, ok := backend.Storage.(scheduler.CartPurger); ok && cfg.Storage.Retention > 0 {
		if err := s.Register(scheduler.PurgeCartsTask(purger, cfg.Storage.Retention, cartPurgeInterval, log)); err != nil {
			return nil, err
		}
	}
	if limiter != nil {
		if err := s.Register(scheduler.SweepTask("rate-limit-sweep", limiter, rateLimitSweepInterval, log)); err != nil {
			return nil, err
		}
	}
	return s, nil
}
