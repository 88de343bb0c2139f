// internal/app.go
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	router "remitflow-wallet/internal/api"
	"remitflow-wallet/internal/api/handler"
	"remitflow-wallet/internal/cache"
	"remitflow-wallet/internal/config"
	"remitflow-wallet/internal/metrics"
	"remitflow-wallet/internal/notification"
	"remitflow-wallet/internal/repository"
	"remitflow-wallet/internal/repository/postgres"
	"remitflow-wallet/internal/service"
	"remitflow-wallet/internal/util"
	"remitflow-wallet/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *zap.Logger
	DB     *sqlx.DB

	// Repositories
	AccountRepository      repository.AccountRepository
	UserRepository         repository.UserRepository
	TransactionRepository  repository.TransactionRepository
	NotificationRepository repository.NotificationRepository

	// Services
	Cache           cache.IdempotencyCache
	Metrics         *metrics.Registry
	TransferService service.TransferService
	Dispatcher      *notification.Dispatcher

	// HTTP API
	HTTPHandler http.Handler

	// Registerer and Gatherer default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{
		Logger:     zap.NewNop(),
		Registerer: prometheus.DefaultRegisterer,
		Gatherer:   prometheus.DefaultGatherer,
	}
}

// Initialize loads the configuration and initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	return app.InitializeWithConfig(ctx, cfg)
}

// InitializeWithConfig initializes all application components from cfg.
func (app *Application) InitializeWithConfig(ctx context.Context, cfg *config.AppConfig) error {
	app.Config = cfg

	// 1. Logger
	app.Logger = util.NewLogger(cfg.Log)
	zap.ReplaceGlobals(app.Logger)
	app.Logger.Info("Application configuration loaded", zap.String("env", cfg.App.Env))
	if _, enabled := cfg.PinBypass(); enabled {
		app.Logger.Warn("PIN bypass is enabled; never run this configuration in production")
	}

	// 2. Database
	database, err := db.NewPostgresDB(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established")

	if cfg.DB.RunMigrations {
		if err := db.Migrate(app.DB.DB, app.Logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// 3. Idempotency cache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisIdempotencyCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.Cache = redisCache
		app.Logger.Info("Redis idempotency cache connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		app.Cache = cache.NewMemoryIdempotencyCache()
		app.Logger.Info("Using in-process idempotency cache")
	}

	app.Metrics = metrics.NewRegistry(app.Registerer)

	// 4. Repositories
	app.AccountRepository = postgres.NewAccountRepository()
	app.UserRepository = postgres.NewUserRepository()
	app.TransactionRepository = postgres.NewTransactionRepository()
	app.NotificationRepository = postgres.NewNotificationRepository()

	// 5. Notification dispatcher
	app.Dispatcher = notification.NewDispatcher(
		app.DB,
		app.NotificationRepository,
		app.UserRepository,
		postgres.NewPushTokenRepository(),
		notification.Channels{
			SMS:   notification.LogSmsSender{Logger: app.Logger.Named("sms")},
			Push:  notification.LogPushSender{Logger: app.Logger.Named("push")},
			Email: notification.LogEmailSender{Logger: app.Logger.Named("email")},
		},
		notification.DispatcherConfig{
			PollInterval:       cfg.Notification.PollInterval,
			BatchSize:          cfg.Notification.BatchSize,
			MaxAttempts:        cfg.Notification.MaxAttempts,
			BackoffBase:        cfg.Notification.BackoffBase,
			DefaultCountryCode: cfg.Notification.DefaultCountryCode,
		},
		app.Metrics,
		app.Logger.Named("dispatcher"),
	)

	// 6. Transfer engine
	// Pass the concrete db.BeginTx, db.CommitTx, db.RollbackTx functions from pkg/db
	bypass, bypassEnabled := cfg.PinBypass()
	app.TransferService = service.NewTransferService(service.TransferDeps{
		DBBeginner:   app.DB,
		DBExecutor:   app.DB,
		Accounts:     app.AccountRepository,
		Users:        app.UserRepository,
		Transactions: app.TransactionRepository,
		Recipients:   postgres.NewRecipientRepository(),
		Idempotency:  postgres.NewIdempotencyRepository(),
		Fees:         service.NewFeeCalculator(postgres.NewFeeRepository()),
		Limits:       service.NewLimitTracker(postgres.NewLimitRepository()),
		Audit:        service.NewAuditLogger(postgres.NewAuditRepository(), app.Logger.Named("audit")),
		Pins:         service.NewPinVerifier(bypass, bypassEnabled),
		Enqueuer:     notification.NewEnqueuer(app.NotificationRepository, cfg.Transfer.EmailReceipts),
		Delivery:     app.Dispatcher,
		Cache:        app.Cache,
		Currencies:   cfg.CurrencyTable(),
		Metrics:      app.Metrics,
		Logger:       app.Logger.Named("transfer"),
		Settings: service.TransferSettings{
			IdempotencyTTL:   cfg.Transfer.IdempotencyTTL,
			WalletFeeType:    cfg.Transfer.WalletFeeType,
			NonWalletFeeType: cfg.Transfer.NonWalletFeeType,
			OperatorIDs:      cfg.Security.OperatorIDs,
		},
		BeginTx:    db.BeginTx,
		CommitTx:   db.CommitTx,
		RollbackTx: db.RollbackTx,
	})
	app.Logger.Info("Services initialized")

	// 7. HTTP
	transferHandler := handler.NewTransferHandler(app.TransferService, app.Logger.Named("http"))
	app.HTTPHandler = router.NewRouter(transferHandler, app.Gatherer, app.Logger.Named("http"))

	return app.Dispatcher.Start(ctx)
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Dispatcher != nil {
		if err := app.Dispatcher.Stop(ctx); err != nil {
			app.Logger.Error("Notification dispatcher did not stop in time", zap.Error(err))
		}
	}
	if app.Cache != nil {
		if err := app.Cache.Close(); err != nil {
			app.Logger.Warn("Failed to close idempotency cache", zap.Error(err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", zap.Error(err))
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed")
	}
	app.Logger.Info("Application shut down gracefully")
	_ = app.Logger.Sync()
	return nil
}
