package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli"

	"github.com/llehouerou/roomdj/internal/config"
	"github.com/llehouerou/roomdj/internal/room"
	"github.com/llehouerou/roomdj/internal/server"
	"github.com/llehouerou/roomdj/internal/state"
	"github.com/llehouerou/roomdj/internal/youtube"
)

const shutdownTimeout = 10 * time.Second

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	logger, err := newLogger(cfg.GetLogConfig())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(ctx, cfg.GetStorageConfig())
	if err != nil {
		return errors.Wrap(err, "open storage")
	}
	defer repo.Close()

	yt := cfg.GetYouTubeConfig()
	if !cfg.HasYouTubeConfig() {
		logger.Warn().Msg("no YouTube API key configured, song requests will fail")
	}
	if cfg.GetServerConfig().ModeratorToken == "" {
		logger.Warn().Msg("no moderator token configured, moderator commands are disabled")
	}

	manager := room.NewManager(
		repo,
		youtube.New(yt.APIKey, yt.BaseURL, yt.Timeout()),
		room.Options{VotesToSkip: cfg.GetRoomConfig().VotesToSkip},
		logger,
	)

	srv := &http.Server{
		Addr:              cfg.GetServerConfig().Addr,
		Handler:           server.New(manager, server.Options{ModeratorToken: cfg.GetServerConfig().ModeratorToken}, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		_ = manager.Close()
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	// Waits for pending song lookups and disconnects websockets.
	return manager.Close()
}

// loadConfig reads the config files and applies command-line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}
	if c.IsSet("moderator-token") {
		cfg.Server.ModeratorToken = c.String("moderator-token")
	}
	if c.IsSet("youtube-api-key") {
		cfg.YouTube.APIKey = c.String("youtube-api-key")
	}
	if c.IsSet("votes-to-skip") {
		cfg.Room.VotesToSkip = c.Int("votes-to-skip")
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), errors.Wrapf(err, "log level %q", cfg.Level)
	}

	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger(), nil
}

func openRepository(ctx context.Context, cfg config.StorageConfig) (state.Repository, error) {
	if cfg.Driver == config.DriverMemory {
		return state.NewMemory(), nil
	}
	store, err := state.Open(ctx, cfg.Path)
	if err != nil {
		return nil, err
	}
	return store, nil
}
