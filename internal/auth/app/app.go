package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/gatehouse/internal/auth/http"
	"github.com/aussiebroadwan/gatehouse/internal/auth/seed"
	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/aussiebroadwan/gatehouse/pkg/metricsx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
	"github.com/aussiebroadwan/gatehouse/pkg/tracex"
)

const serviceName = "gatehouse-auth"

// BuildVersion is overridden at build time via -ldflags "-X ...app.BuildVersion=".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db            store.Store
	issuer        *jwtx.HS256Issuer
	codec         *cryptox.TransportCodec
	metrics       *metricsx.Metrics
	traceShutdown func(context.Context) error

	// Services
	loginService        *service.LoginService
	tokenService        *service.TokenService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: serviceName,
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metricsx.New(),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initSecrets(); err != nil {
		return nil, err
	}

	ctx := slogx.WithContext(context.Background(), app.logger)
	shutdown, err := tracex.InitTraceProvider(ctx, cfg.OTLPEndpoint, serviceName, BuildVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	app.traceShutdown = shutdown

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if cfg.SeedFile != "" {
		if err := app.applySeed(ctx); err != nil {
			_ = app.db.Close()
			return nil, err
		}
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	if err := app.housekeepingService.Start(); err != nil {
		return fmt.Errorf("failed to start housekeeping: %w", err)
	}

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"driver", app.cfg.DatabaseDriver,
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
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	if err := app.traceShutdown(ctx); err != nil {
		app.logger.Error("error flushing traces", "error", err)
	}

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initSecrets fills missing secrets with ephemeral ones. Validate has
// already refused this outside dev.
func (app *Application) initSecrets() error {
	if app.cfg.TokenSecret == "" {
		secret, err := cryptox.GenerateSecret(cryptox.SecretSize256)
		if err != nil {
			return fmt.Errorf("failed to generate token secret: %w", err)
		}
		app.cfg.TokenSecret = secret
		app.logger.Warn("AUTH_TOKEN_SECRET not set, using an ephemeral secret; tokens will not survive a restart")
	}
	if app.cfg.TransportSecret == "" {
		secret, err := cryptox.GenerateSecret(cryptox.SecretSize256)
		if err != nil {
			return fmt.Errorf("failed to generate transport secret: %w", err)
		}
		app.cfg.TransportSecret = secret
		app.logger.Warn("AUTH_TRANSPORT_SECRET not set, using an ephemeral secret; clients cannot log in until it is configured",
			"fingerprint", cryptox.Fingerprint(secret))
	}

	issuer, err := jwtx.NewHS256Issuer(jwtx.IssuerConfig{
		Issuer:        app.cfg.Issuer,
		SessionSecret: []byte(app.cfg.TokenSecret),
		RefreshSecret: []byte(app.cfg.RefreshSecret),
		MaxSessionTTL: app.cfg.MaxSessionTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token issuer: %w", err)
	}
	app.issuer = issuer

	codec, err := cryptox.NewTransportCodec(app.cfg.TransportSecret, cryptox.TransportParamsV1)
	if err != nil {
		return fmt.Errorf("failed to initialize transport codec: %w", err)
	}
	app.codec = codec

	return nil
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase() error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.DatabaseDriver {
	case DriverPostgres:
		db, err = postgres.NewStore(app.cfg.DatabaseURL)
	default:
		dsn := fmt.Sprintf(
			"file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
			app.cfg.DatabaseFile,
		)
		db, err = sqlite.NewStore(dsn)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

func (app *Application) applySeed(ctx context.Context) error {
	f, err := seed.Load(app.cfg.SeedFile)
	if err != nil {
		return err
	}
	if _, err := seed.Apply(ctx, app.db, f); err != nil {
		return fmt.Errorf("failed to apply seed file: %w", err)
	}
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	perms := &service.PermissionResolver{Store: app.db}

	app.tokenService = &service.TokenService{
		Issuer:             app.issuer,
		Store:              app.db,
		Permissions:        perms,
		Metrics:            app.metrics,
		SessionTTL:         app.cfg.SessionTTL,
		RefreshTTL:         app.cfg.RefreshTTL,
		RememberRefreshTTL: app.cfg.RememberRefreshTTL,
	}

	app.loginService = &service.LoginService{
		Codec: app.codec,
		Store: app.db,
		Lockout: &service.LockoutService{
			Store:   app.db,
			Policy:  app.cfg.Lockout,
			Metrics: app.metrics,
		},
		Permissions: perms,
		Tokens:      app.tokenService,
		TwoFactor:   &service.TwoFactorVerifier{},
		Metrics:     app.metrics,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingSchedule,
		app.cfg.AttemptRetention,
	)
	app.housekeepingService.MinRetention = app.cfg.Lockout.Window
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	gate := httpx.NewGate(app.issuer, httpx.WithObserver(httpapi.GateObserver(app.metrics)))

	router := httpapi.NewRouter(
		gate,
		BuildVersion,
		app.db,
		app.metrics,
		app.logger,
	)

	// Wire services to router
	router.LoginService = app.loginService
	router.TokenService = app.tokenService
	router.Swagger = app.cfg.SwaggerEnabled
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
