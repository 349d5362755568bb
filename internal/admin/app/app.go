package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labourhub/adminauth/internal/admin/domain"
	httpapi "github.com/labourhub/adminauth/internal/admin/http"
	"github.com/labourhub/adminauth/internal/admin/service"
	"github.com/labourhub/adminauth/internal/admin/store"
	"github.com/labourhub/adminauth/internal/admin/store/drivers/sqlite"
	"github.com/labourhub/adminauth/pkg/cryptox"
	"github.com/labourhub/adminauth/pkg/jwtx"
	"github.com/labourhub/adminauth/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the admin auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	signer *jwtx.Signer

	authService         *service.AuthService
	sessionService      *service.SessionService
	otpService          *service.OTPService
	auditService        *service.AuditService
	notifyService       *service.NotifyService
	profileService      *service.ProfileService
	adminService        *service.AdminService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "adminauth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initSigner(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()

	if err := app.bootstrap(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()
	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("admin auth service starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down admin auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("admin auth service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
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

// initSigner loads the HS256 secret from the configured file, or generates
// an ephemeral one. An ephemeral secret invalidates every token on restart,
// acceptable for dev, logged loudly for everything else.
func (app *Application) initSigner() error {
	var secret []byte

	if app.cfg.JWTSecretFile != "" {
		data, err := os.ReadFile(app.cfg.JWTSecretFile)
		if err != nil {
			return fmt.Errorf("failed to read jwt secret file: %w", err)
		}
		secret = []byte(strings.TrimSpace(string(data)))
	} else {
		secret = make([]byte, 48)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("failed to generate ephemeral jwt secret: %w", err)
		}
		app.logger.Warn("no jwt secret file configured, using ephemeral secret; all tokens invalidate on restart")
	}

	signer, err := jwtx.NewSigner(secret, app.cfg.Issuer)
	if err != nil {
		return fmt.Errorf("failed to initialize token signer: %w", err)
	}
	app.signer = signer
	return nil
}

func (app *Application) initServices() {
	app.sessionService = &service.SessionService{
		Store:      app.db,
		Signer:     app.signer,
		AccessTTL:  app.cfg.AccessTokenTTL,
		RefreshTTL: app.cfg.RefreshTokenTTL,
	}

	app.otpService = &service.OTPService{
		Store: app.db,
		TTL:   app.cfg.OTPTTL,
	}

	app.auditService = &service.AuditService{Store: app.db}

	notifier := &logNotifier{logger: app.logger}

	app.notifyService = &service.NotifyService{
		Store:    app.db,
		Notifier: notifier,
		Audit:    app.auditService,
	}

	app.authService = &service.AuthService{
		Store:         app.db,
		Sessions:      app.sessionService,
		OTP:           app.otpService,
		Audit:         app.auditService,
		Notify:        app.notifyService,
		Notifier:      notifier,
		LockThreshold: app.cfg.LockThreshold,
		LockDuration:  app.cfg.LockDuration,
	}

	app.profileService = &service.ProfileService{
		Store:    app.db,
		OTP:      app.otpService,
		Audit:    app.auditService,
		Notify:   app.notifyService,
		Notifier: notifier,
	}

	app.adminService = &service.AdminService{
		Store: app.db,
		Audit: app.auditService,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// bootstrap seeds the first super admin when the table is empty and the
// bootstrap credentials are configured.
func (app *Application) bootstrap(ctx context.Context) error {
	if app.cfg.BootstrapEmail == "" || app.cfg.BootstrapPassword == "" {
		return nil
	}

	empty, err := app.db.Admins().IsEmpty(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap check failed: %w", err)
	}
	if !empty {
		return nil
	}

	admin, err := app.adminService.Provision(ctx, "", service.ProvisionInput{
		Name:     app.cfg.BootstrapName,
		Email:    app.cfg.BootstrapEmail,
		Password: app.cfg.BootstrapPassword,
		Role:     string(domain.RoleSuperAdmin),
	}, jwtx.ClientMeta{})
	if err != nil {
		return fmt.Errorf("bootstrap seed failed: %w", err)
	}

	app.logger.Info("bootstrap super admin seeded", "admin_id", admin.ID, "email", admin.Email)
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	router.AuthService = app.authService
	router.SessionService = app.sessionService
	router.ProfileService = app.profileService
	router.AdminService = app.adminService
	router.AuditService = app.auditService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
