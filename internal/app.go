// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	router "peerpay/internal/api"
	"peerpay/internal/api/handler"
	"peerpay/internal/config"
	"peerpay/internal/domain"
	"peerpay/internal/processor"
	"peerpay/internal/repository"
	"peerpay/internal/repository/memory"
	"peerpay/internal/repository/postgres"
	"peerpay/internal/service"
	"peerpay/internal/util"
	"peerpay/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB // nil when the memory driver is active

	Store         repository.Store
	Charger       processor.Charger
	LedgerService service.LedgerService

	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Initialize Logger first so initialization failures are loggable
	util.InitLogger()
	app.Logger = util.GetLogger()

	// 2. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Initialize Storage
	switch cfg.StorageDriver {
	case config.StorageDriverPostgres:
		database, err := db.NewPostgresDB(cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		app.DB = database
		app.Store = postgres.NewStore(database)
		app.Logger.Info("Database connection established.")
	case config.StorageDriverMemory:
		app.Store = memory.NewStore()
		app.Logger.Info("In-memory store initialized.")
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	// 4. Initialize the card processor
	app.Charger = processor.NewStaticCharger(app.Logger)

	// 5. Initialize Services
	app.LedgerService = service.NewLedgerService(
		app.Store,
		app.Charger,
		domain.IsValidCreditCardNumber,
		app.Logger,
	)
	app.Logger.Info("Services initialized.")

	// 6. Initialize HTTP Handlers and Router
	ledgerHandler := handler.NewLedgerHandler(app.LedgerService, app.Logger)
	app.HTTPHandler = router.NewRouter(ledgerHandler, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
