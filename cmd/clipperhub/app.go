package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fgeck/clipperhub/internal/config"
	"github.com/fgeck/clipperhub/internal/models"
	"github.com/fgeck/clipperhub/internal/services/dispatch"
	"github.com/fgeck/clipperhub/internal/services/settings"
	"github.com/fgeck/clipperhub/internal/store"
	"github.com/fgeck/clipperhub/internal/telemetry"
	"github.com/rs/zerolog/log"
)

// app holds the wired services for one command invocation.
type app struct {
	cfg        *models.AppConfig
	store      store.Store
	settings   *settings.Impl
	dispatcher *dispatch.Impl
	shutdown   telemetry.ShutdownFunc
}

// loadAppConfig reads the config file when one is given, else the built-in defaults.
func loadAppConfig() (*models.AppConfig, error) {
	cfg := config.Default()
	if configFile != "" {
		parser := config.NewParser()
		loaded, err := parser.LoadFile(configFile)
		if err != nil {
			log.Error().Err(err).Str("file", configFile).Msg("failed to load config")
			return nil, err
		}
		cfg = loaded
	}

	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return nil, err
	}
	return cfg, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadAppConfig()
	if err != nil {
		return nil, err
	}

	shutdown, err := telemetry.Setup(ctx, cfg.Tracing, Version)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}

	log.Debug().
		Str("backend", cfg.Store.Backend).
		Str("path", cfg.Store.Path).
		Msg("settings store opened")

	settingsSvc := settings.New(log.Logger, st, config.DefaultsFunc(cfg.Defaults))
	dispatcher := dispatch.New(log.Logger, settingsSvc, dispatch.Adapters(log.Logger, cfg.HTTP.Timeout))

	return &app{
		cfg:        cfg,
		store:      st,
		settings:   settingsSvc,
		dispatcher: dispatcher,
		shutdown:   shutdown,
	}, nil
}

// Close releases the store and flushes telemetry.
func (a *app) Close(ctx context.Context) error {
	return errors.Join(a.store.Close(), a.shutdown(ctx))
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Warn().Str("signal", sig.String()).Msg("received signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
