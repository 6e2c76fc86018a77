package main

import (
	"context"

	"github.com/fgeck/clipperhub/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP API",
	Long: `Run the local JSON HTTP API used by browser extensions and scripts:
  GET  /api/configs, PUT /api/configs
  GET  /api/configs/{id}, PUT /api/configs/{id}
  GET  /api/platforms, /api/platforms/enabled, /api/configured
  POST /api/send, /api/send/{id}, /api/bookmark, /api/test/{id}`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("failed to close resources")
		}
	}()

	addr := a.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := server.New(log.Logger, a.settings, a.dispatcher)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		log.Error().Err(err).Msg("server failed")
		return err
	}

	log.Info().Msg("server stopped")
	return nil
}
