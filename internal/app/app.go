package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/havenchat/haven-server/internal/auth"
	"github.com/havenchat/haven-server/internal/config"
	"github.com/havenchat/haven-server/internal/realtime"
	"github.com/havenchat/haven-server/internal/service/friends"
	"github.com/havenchat/haven-server/internal/store"
	"github.com/havenchat/haven-server/internal/store/sqlite"
	transporthttp "github.com/havenchat/haven-server/internal/transport/http"
)

// App wires together store, realtime engine and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      24 * time.Hour,
	}

	seeds := make([]realtime.SeedRoom, 0, len(cfg.SeedRooms))
	for _, s := range cfg.SeedRooms {
		seeds = append(seeds, realtime.SeedRoom{ID: s.ID, Name: s.Name})
	}

	deps := transporthttp.Deps{
		Store:       st,
		AuthService: auth.NewService(st, jwtConfig),
		Friends:     friends.New(st),
		Engine:      realtime.NewEngine(st, seeds, cfg.HistoryLimit, logger),
	}

	return &App{
		server:          transporthttp.NewServer(deps, cfg, logger),
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
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
