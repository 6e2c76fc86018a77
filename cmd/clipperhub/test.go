package main

import (
	"context"
	"fmt"

	"github.com/fgeck/clipperhub/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:       "test <platform>",
	Short:     "Send a test message with the saved configuration",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(models.Telegram), string(models.Discord), string(models.Notion)},
	RunE:      runTest,
}

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List destinations and whether they are enabled",
	RunE:  runPlatforms,
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.Background()) }()

	id := models.DestinationID(args[0])
	cfg, err := a.settings.LoadOne(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("unknown platform")
		return err
	}

	result := a.dispatcher.TestConnection(ctx, id, cfg)
	if !result.Success {
		fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: %s\n", id, result.Error)
		return fmt.Errorf("connection test failed")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %s\n", id, result.Message)
	return nil
}

func runPlatforms(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.Background()) }()

	cfgs := a.settings.Load(ctx)
	out := cmd.OutOrStdout()
	for _, meta := range a.dispatcher.Platforms() {
		cfg, ok := cfgs.Get(meta.ID)
		if !ok {
			continue
		}
		adapter, _ := a.dispatcher.Platform(meta.ID)

		state := "disabled"
		switch {
		case cfg.IsEnabled() && adapter.ValidateConfig(cfg):
			state = "ready"
		case cfg.IsEnabled():
			state = "incomplete"
		}
		fmt.Fprintf(out, "%s %-9s %-10s %s\n", meta.Icon, meta.ID, state, meta.Description)
	}
	return nil
}
