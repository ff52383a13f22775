// Command textvault runs the vault HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/textvault/tvault/config"
	"github.com/ZanzyTHEbar/textvault/tvault/index"
	"github.com/ZanzyTHEbar/textvault/tvault/server"
	"github.com/ZanzyTHEbar/textvault/tvault/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults to the standard search paths)")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if cfg.Server.AuthToken == "" {
		logger.Warn().Msg("server.auth_token is not set — all /api requests will be rejected with 500")
	}

	store, err := openStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("open store")
	}
	defer store.Close()

	ctx := context.Background()
	ix, err := index.New(ctx, store, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build key index")
	}

	if local, ok := store.(*storage.Local); ok && cfg.Store.Watch {
		w, err := index.Watch(local.Root(), ix, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("filesystem watcher disabled")
		} else {
			defer w.Close()
		}
	}

	handler, err := server.New(store, ix, server.SharedSecret(cfg.Server.AuthToken), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build server")
	}

	srv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info().
			Str("addr", cfg.Server.ListenAddr).
			Str("backend", cfg.Store.Backend).
			Msg("textvault starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutdown signal received — draining connections")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("textvault stopped")
}

func openStore(cfg *config.Config) (storage.ObjectStore, error) {
	switch cfg.Store.Backend {
	case "local":
		return storage.NewLocal(cfg.Store.Root)
	case "libsql":
		return storage.NewLibSQL(cfg.Store.DBPath)
	case "memory":
		return storage.NewMemory(), nil
	default:
		return nil, errors.New("unknown store backend: " + cfg.Store.Backend)
	}
}
