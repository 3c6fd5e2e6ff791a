package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bookshelf/internal/api"
	"bookshelf/internal/bot"
	"bookshelf/internal/config"
	"bookshelf/internal/scheduler"
	"bookshelf/internal/storage"
	"bookshelf/internal/storage/ch"
	"bookshelf/internal/storage/sqlite"
	"bookshelf/internal/storage/stubs"
	"bookshelf/internal/tracker"
	"bookshelf/internal/viewmodel"
)

// App represents the application
type App struct {
	config  *config.Config
	logger  *zap.Logger
	db      storage.Storage
	screens *viewmodel.Factory
	bot     *bot.Bot
	server  *http.Server
	digest  *scheduler.DigestScheduler
}

// New creates and initializes a new application instance
func New() (*App, error) {
	// Load .env file if it exists
	envErr := godotenv.Load()

	// Load configuration from environment variables
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if envErr != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	app := &App{config: cfg, logger: logger}

	logger.Info("Starting Bookshelf...")

	// Initialize database
	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.screens = viewmodel.NewFactory(tracker.New(
		storage.NewObservable(app.db, logger),
		tracker.Options{Bound: cfg.ProgressBound, Location: cfg.Location},
		logger,
	))

	// Initialize bot
	if err := app.initBot(); err != nil {
		return nil, err
	}

	app.initHTTPServer()
	app.initScheduler()

	return app, nil
}

// NewLogger builds the production logger, or the development one for LOG_LEVEL=debug
func NewLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Level = lvl
	}
	return cfg.Build()
}

// OpenStorage connects to the configured backend and initializes its schema
func OpenStorage(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (storage.Storage, error) {
	var db storage.Storage

	switch cfg.Backend {
	case config.BackendMock:
		logger.Info("Using mock database")
		db = stubs.NewMockDB()
	case config.BackendSQLite:
		logger.Info("Opening SQLite database", zap.String("path", cfg.SQLitePath))
		sqliteDB, err := sqlite.NewSQLiteDB(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite: %w", err)
		}
		db = sqliteDB
	case config.BackendClickHouse:
		logger.Info("Connecting to ClickHouse",
			zap.String("host", cfg.ClickHouseHost),
			zap.Int("port", cfg.ClickHousePort),
			zap.String("database", cfg.ClickHouseDatabase),
			zap.String("user", cfg.ClickHouseUser),
			zap.Bool("tls", cfg.ClickHouseUseTLS),
		)
		clickhouseDB, err := ch.NewClickHouseDB(
			cfg.ClickHouseHost,
			cfg.ClickHousePort,
			cfg.ClickHouseDatabase,
			cfg.ClickHouseUser,
			cfg.ClickHousePassword,
			cfg.ClickHouseUseTLS,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		db = clickhouseDB
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	// Initialize database schema and id counters
	if err := db.Initialize(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Info("Database initialized successfully", zap.String("backend", cfg.Backend))

	return db, nil
}

// initDatabase initializes the database connection
func (a *App) initDatabase() error {
	db, err := OpenStorage(context.Background(), a.config.StorageConfig, a.logger)
	if err != nil {
		return err
	}
	a.db = db
	return nil
}

// initBot initializes the Telegram bot
func (a *App) initBot() error {
	telegramBot, err := bot.NewBot(a.config.TelegramToken, a.screens, a.config.AllowedUserIDs, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	a.logger.Info("Bot created successfully", zap.Int64s("allowed_users", a.config.AllowedUserIDs))

	a.bot = telegramBot
	return nil
}

// initHTTPServer initializes the HTTP server for the API, health checks and webhook
func (a *App) initHTTPServer() {
	if a.config.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := api.NewServer(a.screens, a.bot, api.Options{
		WebhookMode:    a.config.WebhookMode,
		BotToken:       a.config.TelegramToken,
		AllowedUserIDs: a.config.AllowedUserIDs,
	}, a.logger)

	a.server = &http.Server{
		Addr:        ":" + a.config.Port,
		Handler:     server.Router(),
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: watch streams stay open
	}
}

// initScheduler prepares the reading digest when it is enabled
func (a *App) initScheduler() {
	if !a.config.DigestEnabled {
		a.logger.Info("Reading digest disabled")
		return
	}

	a.digest = scheduler.NewDigestScheduler(a.screens.Tracker(), a.bot, scheduler.Config{
		Schedule: a.config.DigestSchedule,
		ChatID:   a.config.NotificationChatID,
		Location: a.config.Location,
	}, a.logger)
}

// Run starts the application and blocks until shutdown
func (a *App) Run() error {
	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Requests (and open watch streams) end when shutdown starts
	a.server.BaseContext = func(net.Listener) context.Context { return ctx }

	// Start HTTP server in background
	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("port", a.config.Port))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if a.digest != nil {
		if err := a.digest.Start(ctx); err != nil {
			return fmt.Errorf("failed to start digest scheduler: %w", err)
		}
	}

	// Start bot in appropriate mode
	if a.config.WebhookMode {
		// Webhook mode: configure webhook and wait for HTTP requests
		if err := a.bot.StartWebhook(a.config.WebhookURL); err != nil {
			return fmt.Errorf("failed to setup webhook: %w", err)
		}
		a.logger.Info("Webhook configured. Bot will receive updates via HTTP endpoint /telegram-webhook")
	} else {
		// Polling mode: actively poll Telegram servers
		go func() {
			if err := a.bot.Start(ctx); err != nil {
				a.logger.Error("Bot stopped with error", zap.Error(err))
			}
		}()
	}

	// Wait for interrupt signal or a server failure
	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		runErr = fmt.Errorf("HTTP server error: %w", err)
	}

	a.logger.Info("Shutting down...")
	if err := a.Shutdown(); err != nil {
		return err
	}
	return runErr
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	if a.digest != nil {
		a.digest.Stop()
	}

	// Shutdown HTTP server gracefully
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	// Close database
	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database", zap.Error(err))
		return err
	}

	a.logger.Info("Shutdown complete")
	_ = a.logger.Sync()
	return nil
}
