// Command cartctl inspects and edits storefront carts from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appcart "github.com/trendstep/storefront/internal/application/cart"
	"github.com/trendstep/storefront/internal/domain/cart"
	"github.com/trendstep/storefront/internal/domain/shared/valueobject"
	"github.com/trendstep/storefront/internal/infrastructure/catalogfile"
	"github.com/trendstep/storefront/internal/infrastructure/config"
	"github.com/trendstep/storefront/internal/infrastructure/i18n"
	"github.com/trendstep/storefront/internal/infrastructure/logger"
	"github.com/trendstep/storefront/internal/infrastructure/storage"
)

var (
	// global flags
	configPath string
	sessionID  string
	logLevel   string

	// set up by PersistentPreRunE
	env *environment
)

// openStorage opens the configured cart storage. Tests replace it.
var openStorage = func(ctx context.Context, cfg *config.Config, log *zap.Logger) (cart.Storage, func() error, error) {
	backend, err := storage.NewFactory(cfg, storage.WithLogger(log)).Open(ctx)
	if err != nil {
		return nil, nil, err
	}
	return backend.Storage, backend.Close, nil
}

// environment holds what every subcommand needs
type environment struct {
	cfg       *config.Config
	log       *zap.Logger
	store     *appcart.Store
	catalog   *catalogfile.Source
	localizer *i18n.Localizer
	closeFn   func() error
}

func (e *environment) close() {
	if e == nil || e.closeFn == nil {
		return
	}
	if err := e.closeFn(); err != nil {
		e.log.Warn("closing cart storage", zap.Error(err))
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cartctl",
		Short: "Inspect and edit TrendStep storefront carts",
		Long: `cartctl works on the cart storage configured in config.toml
(or STOREFRONT_* variables), the same storage the web storefront uses.

Every command acts on one session's cart, selected with --session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			env, err = setup(cmd.Context())
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			env.close()
			_ = env.log.Sync()
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./config.toml)")
	root.PersistentFlags().StringVarP(&sessionID, "session", "s", "local", "session whose cart to use")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		listCmd(),
		summaryCmd(),
		addCmd(),
		setCmd(),
		incCmd(),
		decCmd(),
		removeCmd(),
		clearCmd(),
		checkoutCmd(),
		catalogCmd(),
		tuiCmd(),
	)
	return root
}

func setup(ctx context.Context) (*environment, error) {
	log := logger.NewCLI(logLevel)

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, err
	}

	st, closeFn, err := openStorage(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open cart storage: %w", err)
	}

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
	carts := appcart.NewManager(st,
		appcart.WithShippingFee(fee),
		appcart.WithIDGenerator(ids),
		appcart.WithKeyPrefix(cfg.Cart.StorageKey),
		appcart.WithLogger(log),
	)

	source, err := catalogfile.NewSource(cfg.Catalog.Path, log)
	if err != nil {
		return nil, err
	}

	return &environment{
		cfg:       cfg,
		log:       log,
		store:     carts.Open(ctx, sessionID),
		catalog:   source,
		localizer: i18n.New(cfg.App.Language),
		closeFn:   closeFn,
	}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
