// Package server exposes the clip relay over a local JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fgeck/clipperhub/internal/services/dispatch"
	"github.com/fgeck/clipperhub/internal/services/extract"
	"github.com/fgeck/clipperhub/internal/services/settings"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const (
	apiBasePath  = "/api"
	paramID      = "id"
	requestLimit = 2 * time.Minute

	shutdownTimeout = 10 * time.Second
)

// Server serves the HTTP API.
type Server struct {
	settings   settings.Service
	dispatcher dispatch.Service
	extractor  *extract.Extractor
	logger     zerolog.Logger
}

// New creates a new API server.
func New(logger zerolog.Logger, cfgStore settings.Service, dispatcher dispatch.Service) *Server {
	return &Server{
		settings:   cfgStore,
		dispatcher: dispatcher,
		extractor:  extract.New(),
		logger:     logger,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestLimit))

	r.Route(apiBasePath, func(r chi.Router) {
		r.Route("/configs", func(r chi.Router) {
			r.Get("/", s.handle(s.handleGetConfigs))
			r.Put("/", s.handle(s.handlePutConfigs))
			r.Get("/{"+paramID+"}", s.handle(s.handleGetConfig))
			r.Put("/{"+paramID+"}", s.handle(s.handlePutConfig))
		})

		r.Get("/platforms", s.handle(s.handleGetPlatforms))
		r.Get("/platforms/enabled", s.handle(s.handleGetEnabledPlatforms))
		r.Get("/configured", s.handle(s.handleGetConfigured))

		r.Post("/send", s.handle(s.handleSend))
		r.Post("/send/{"+paramID+"}", s.handle(s.handleSendOne))
		r.Post("/bookmark", s.handle(s.handleBookmark))
		r.Post("/test/{"+paramID+"}", s.handle(s.handleTest))
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("API server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving API: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info().Msg("shutting down API server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
