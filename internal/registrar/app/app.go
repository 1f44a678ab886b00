package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/synapsekit/registrar/internal/registrar/http"
	"github.com/synapsekit/registrar/internal/registrar/provision"
	"github.com/synapsekit/registrar/internal/registrar/service"
	"github.com/synapsekit/registrar/internal/registrar/store"
	"github.com/synapsekit/registrar/internal/registrar/store/drivers/sqlite"
	"github.com/synapsekit/registrar/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the registrar with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db          store.Store
	provisioner provision.Provisioner

	tokenService        *service.TokenService
	adminService        *service.AdminService
	sessionService      *service.SessionService
	registrationService *service.RegistrationService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "registrar",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initProvisioner()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// NewCLI builds the application without the HTTP server or the provisioner,
// for management verbs that only touch the store. It skips Validate: the
// session secret and register command only matter to the server.
func NewCLI(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "registrar",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()
	return app, nil
}

// Store exposes the backing store for the CLI verbs.
func (app *Application) Store() store.Store { return app.db }

// AdminService exposes admin management for the CLI verbs.
func (app *Application) AdminService() *service.AdminService { return app.adminService }

// TokenService exposes token management for the CLI verbs.
func (app *Application) TokenService() *service.TokenService { return app.tokenService }

// Logger exposes the application logger.
func (app *Application) Logger() *slog.Logger { return app.logger }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("registrar starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"testing_mode", app.cfg.Testing,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down registrar...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("registrar stopped")
	return nil
}

// Close releases resources without the HTTP shutdown dance. Used by the CLI
// verbs, which never start the server.
func (app *Application) Close() error {
	return app.db.Close()
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(app.cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initProvisioner picks the account-creation backend. Testing mode swaps in
// the stub so the whole flow can run without a homeserver.
func (app *Application) initProvisioner() {
	if app.cfg.Testing {
		app.provisioner = &provision.StubProvisioner{}
		app.logger.Warn("testing mode: accounts will NOT be created")
		return
	}

	app.provisioner = &provision.ExecProvisioner{
		CommandTemplate: app.cfg.RegisterCommand,
		Timeout:         app.cfg.ProvisionTimeout,
	}
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Store:   app.db,
		BaseURL: app.cfg.BaseURL,
	}

	app.adminService = &service.AdminService{Store: app.db}

	app.sessionService = &service.SessionService{
		Secret: []byte(app.cfg.SessionSecret),
		TTL:    app.cfg.SessionTTL,
	}

	app.registrationService = &service.RegistrationService{
		Store:       app.db,
		Provisioner: app.provisioner,
		Policy: service.PasswordPolicy{
			MinLength:      app.cfg.PasswordMinLength,
			RequireDigit:   app.cfg.PasswordRequireDigit,
			RequireSpecial: app.cfg.PasswordRequireSpecial,
		},
	}
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.cfg.SiteName,
		BuildVersion,
		app.cfg.SecureCookie,
		app.db,
		app.sessionService,
		app.logger,
	)

	// Wire services to router
	router.TokenService = app.tokenService
	router.AdminService = app.adminService
	router.RegistrationService = app.registrationService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
