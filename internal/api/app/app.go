package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpapi "github.com/nidohq/nido/internal/api/http"
	"github.com/nidohq/nido/internal/api/service"
	"github.com/nidohq/nido/internal/api/store"
	"github.com/nidohq/nido/internal/api/store/drivers/mem"
	"github.com/nidohq/nido/internal/api/store/drivers/mongo"
	"github.com/nidohq/nido/pkg/cryptox"
	"github.com/nidohq/nido/pkg/jwtx"
	"github.com/nidohq/nido/pkg/mailx"
	"github.com/nidohq/nido/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application wires the store, services and HTTP server together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	signer *jwtx.Signer
	mailer mailx.Mailer

	authService    *service.AuthService
	resetService   *service.ResetService
	listingService *service.ListingService
	userService    *service.UserService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "nido-api",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	signer, err := jwtx.NewSigner([]byte(cfg.JWTSecret), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token signer: %w", err)
	}
	app.signer = signer

	if err := app.initStore(); err != nil {
		return nil, err
	}
	app.initMailer()
	app.initServices()
	app.initHTTP()

	return app, nil
}

func (app *Application) initStore() error {
	switch app.cfg.StoreDriver {
	case "mem":
		app.db = mem.NewStore()
		app.logger.Warn("using in-memory store, data will not survive restarts")
		return nil

	case "mongo":
		db, err := mongo.NewStore(context.Background(), app.cfg.MongoURI, app.cfg.MongoDB)
		if err != nil {
			return fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		if err := db.EnsureIndexes(context.Background()); err != nil {
			_ = db.Close(context.Background())
			return fmt.Errorf("failed to ensure indexes: %w", err)
		}
		app.db = db
		app.logger.Info("connected to mongodb", "db", app.cfg.MongoDB)
		return nil

	default:
		return fmt.Errorf("unknown store driver %q", app.cfg.StoreDriver)
	}
}

func (app *Application) initMailer() {
	if app.cfg.SMTPHost == "" {
		app.mailer = &mailx.LogMailer{Logger: app.logger}
		app.logger.Warn("no SMTP host configured, mail will be logged instead of sent")
		return
	}
	app.mailer = &mailx.SMTPMailer{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUser,
		Password: app.cfg.SMTPPass,
	}
}

func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:      app.db,
		Signer:     app.signer,
		SessionTTL: app.cfg.SessionTTL,
	}
	app.resetService = &service.ResetService{
		Store:          app.db,
		Signer:         app.signer,
		Mailer:         app.mailer,
		FrontendOrigin: app.cfg.FrontendOrigin,
		MailFrom:       app.cfg.MailFrom,
	}
	app.listingService = &service.ListingService{Store: app.db}
	app.userService = &service.UserService{Store: app.db}
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.signer,
		BuildVersion,
		app.db,
		app.logger,
		app.cfg.SecureCookie(),
		app.cfg.SessionTTL,
	)
	router.AuthService = app.authService
	router.ResetService = app.resetService
	router.ListingService = app.listingService
	router.UserService = app.userService
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: router,
	}
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("nido api starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

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

// Shutdown drains in-flight requests and closes the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down nido api...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(ctx); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}

	app.logger.Info("nido api stopped")
	return nil
}
