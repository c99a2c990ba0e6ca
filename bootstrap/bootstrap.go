// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/wellgate/wellgate/adapters/clock"
	wghttp "github.com/wellgate/wellgate/adapters/http"
	"github.com/wellgate/wellgate/adapters/idgen"
	"github.com/wellgate/wellgate/adapters/metrics"
	"github.com/wellgate/wellgate/adapters/sqlite"
	"github.com/wellgate/wellgate/app"
	"github.com/wellgate/wellgate/config"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Holder
	DB         *sqlite.DB
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	// Services
	orgService     *app.OrgService
	checkinService *app.CheckinService
}

// New creates and initializes the application from a loaded configuration.
// Configuration stays fixed for the lifetime of the process.
func New(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)
	holder := config.NewStaticHolder(cfg)
	return build(holder, logger)
}

// NewWithHotReload creates the application with config file watching.
// The proxies resolve their targets through the holder on every request,
// so edits to the file (or a SIGHUP) take effect without a restart.
func NewWithHotReload(configPath string) (*App, error) {
	bootLogger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	holder, err := config.NewHolder(configPath, bootLogger)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := setupLogger(holder.Get().Logging)

	a, err := build(holder, logger)
	if err != nil {
		return nil, err
	}

	if a.Metrics != nil {
		holder.OnChange(func(*config.Config) {
			a.Metrics.ConfigReloads.Inc()
		})
		holder.OnReloadError(func(error) {
			a.Metrics.ConfigReloadErrors.Inc()
		})
	}

	if err := holder.WatchFile(); err != nil {
		logger.Warn().Err(err).Msg("config file watching disabled")
	}
	holder.WatchSignals()

	return a, nil
}

func build(holder *config.Holder, logger zerolog.Logger) (*App, error) {
	cfg := holder.Get()

	logger.Info().Msg("initializing wellgate")

	a := &App{
		Logger: logger,
		Config: holder,
	}

	if err := a.initDatabase(cfg.Database.DSN); err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		logger.Info().Msg("prometheus metrics enabled")
	}

	if err := a.initHTTPServer(cfg); err != nil {
		return nil, fmt.Errorf("init http server: %w", err)
	}

	return a, nil
}

func (a *App) initDatabase(dsn string) error {
	db, err := sqlite.Open(dsn)
	if err != nil {
		return err
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return fmt.Errorf("migrate: %w", err)
	}

	a.DB = db
	a.Logger.Info().Str("dsn", dsn).Msg("database initialized")
	return nil
}

func (a *App) initHTTPServer(cfg *config.Config) error {
	realClock := clock.Real{}
	ids := idgen.UUID{}

	orgStore := sqlite.NewOrgStore(a.DB)
	checkinStore := sqlite.NewCheckinStore(a.DB)

	a.orgService = app.NewOrgService(orgStore, realClock, ids, a.Logger)
	a.checkinService = app.NewCheckinService(checkinStore, a.orgService, realClock, ids, a.Logger)

	router := wghttp.NewRouter(wghttp.RouterConfig{
		Config:       a.Config,
		BackendProxy: wghttp.NewBackendProxy(a.Config, a.Logger, a.Metrics),
		AuthProxy:    wghttp.NewAuthProxy(a.Config, a.Logger, a.Metrics),
		Orgs:         wghttp.NewOrgHandler(a.orgService, a.Logger),
		Checkins:     wghttp.NewCheckinHandler(a.checkinService, a.Logger),
		Health:       wghttp.NewHealthHandler(a.DB.DB),
		Metrics:      a.Metrics,
	}, a.Logger)

	a.HTTPServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return nil
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.Config != nil {
		a.Config.Stop()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
