package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/partyline/internal/auth"
	"github.com/vovakirdan/partyline/internal/config"
	"github.com/vovakirdan/partyline/internal/core"
	"github.com/vovakirdan/partyline/internal/metrics"
	"github.com/vovakirdan/partyline/internal/store"
	"github.com/vovakirdan/partyline/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/partyline/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server *stdhttp.Server
	cfg    *config.Config
	hub    *core.Hub
	store  store.Store
	log    *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}
	authService := auth.NewService(st, jwtConfig,
		auth.WithMaxNameLength(cfg.MaxNameLength),
		auth.WithReservedNames(cfg.AdminName),
	)

	if cfg.AdminPassword != "" {
		if err := authService.EnsureAccount(context.Background(), cfg.AdminName, cfg.AdminPassword); err != nil {
			st.Close()
			return nil, fmt.Errorf("provision admin account: %w", err)
		}
		logger.Info().Str("admin", cfg.AdminName).Msg("admin account provisioned")
	} else if cfg.AuthRequired {
		logger.Warn().Str("admin", cfg.AdminName).Msg("auth is required but admin_password is empty; the admin cannot log in")
	}

	hubMetrics := metrics.New()
	hubLogger := logger.With().Str("component", "hub").Logger()

	hub := core.NewHub(
		core.WithPolicy(core.ReservedAdminPolicy(cfg.AdminName, cfg.AdminDisplayName)),
		core.WithTokenVerifier(authService, cfg.AuthRequired),
		core.WithMessageFactory(core.NewMessageFactory(loc, cfg.TimestampLayout)),
		core.WithMaxNameLength(cfg.MaxNameLength),
		core.WithMetrics(hubMetrics),
		core.WithLogger(&hubLogger),
	)
	server := transporthttp.NewServer(hub, authService, hubMetrics.Handler(), cfg, logger)

	return &App{
		server: server,
		cfg:    cfg,
		hub:    hub,
		store:  st,
		log:    logger,
	}, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go a.hub.Run(hubCtx)

	go func() {
		a.log.Info().Str("addr", a.cfg.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		// Websocket handlers are hijacked and not tracked by Shutdown; the hub
		// closes them once its context ends.
		stopHub()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
