package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cashbookhq/cashbook/internal"
	"github.com/cashbookhq/cashbook/internal/core/events"
	"github.com/cashbookhq/cashbook/internal/expense"
	expensePostgres "github.com/cashbookhq/cashbook/internal/expense/postgres"
	"github.com/cashbookhq/cashbook/internal/materializer"
	materializerPostgres "github.com/cashbookhq/cashbook/internal/materializer/postgres"
	"github.com/cashbookhq/cashbook/internal/recurring"
	recurringPostgres "github.com/cashbookhq/cashbook/internal/recurring/postgres"
	"github.com/cashbookhq/cashbook/internal/transport/rest"
	"github.com/cashbookhq/cashbook/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	GormDB *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) error {
	publicKey, err := deps.Config.Security.GetPublicKey()
	if err != nil {
		return fmt.Errorf("failed to load JWT public key: %w", err)
	}

	bus := events.NewEventBus(deps.Logger)
	materializer.NewEventHandler(deps.Logger).RegisterEventHandlers(bus)

	recurringRepo := recurringPostgres.NewRecurringRepository(deps.GormDB)
	recurringService := recurring.NewService(recurringRepo, deps.Logger)
	recurringHandler := recurring.NewHandler(recurringService)

	expenseRepo := expensePostgres.NewExpenseRepository(deps.GormDB)
	expenseService := expense.NewService(expenseRepo, deps.Logger)
	expenseHandler := expense.NewHandler(expenseService)

	store := materializerPostgres.NewStore(deps.GormDB)
	engine := materializer.NewEngine(store, bus, deps.Logger, deps.Config.Materializer.MaxPeriodsPerRun)
	materializeHandler := materializer.NewHandler(engine)

	rest.RegisterAllRoutes(deps.Router, rest.RouterConfig{
		DB:                 deps.DB.DB,
		JWTPublicKey:       publicKey,
		InternalAPIToken:   deps.Config.Security.InternalAPIToken,
		AllowedOrigins:     deps.Config.Server.AllowedOrigins,
		RecurringHandler:   recurringHandler,
		ExpenseHandler:     expenseHandler,
		MaterializeHandler: materializeHandler,
		Logger:             deps.Logger,
	})

	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Observability.Logging.Level)

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}

	return &Dependencies{
		Config: config,
		Logger: logger.LoggerWrapper(),
		DB:     db,
		GormDB: gormDB,
		Router: chi.NewRouter(),
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
