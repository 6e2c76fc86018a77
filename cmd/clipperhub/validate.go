package main

import (
	"fmt"
	"os"

	"github.com/fgeck/clipperhub/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file without sending anything or opening the settings store.`,
	RunE:  validateConfig,
}

func validateConfig(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		log.Error().Msg("config file is required")
		return cmd.Help()
	}

	// Check if file exists
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		log.Error().Str("file", configFile).Msg("config file not found")
		return fmt.Errorf("config file not found: %s", configFile)
	}

	// Load configuration
	parser := config.NewParser()
	cfg, err := parser.LoadFile(configFile)
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to parse config")
		return err
	}

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("configuration validation failed")
		return err
	}

	defaults := config.DefaultsFunc(cfg.Defaults)()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration is valid!")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Store:")
	fmt.Fprintf(out, "  Backend: %s\n", cfg.Store.Backend)
	if cfg.Store.Redis != nil {
		fmt.Fprintf(out, "  Redis: %s (db %d, prefix %q)\n", cfg.Store.Redis.Addr, cfg.Store.Redis.DB, cfg.Store.Redis.KeyPrefix)
	} else {
		fmt.Fprintf(out, "  Path: %s\n", cfg.Store.Path)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "HTTP timeout: %s\n", cfg.HTTP.Timeout)
	fmt.Fprintf(out, "API address: %s\n", cfg.Server.Addr)
	if cfg.Tracing.Endpoint != "" {
		fmt.Fprintf(out, "Tracing endpoint: %s\n", cfg.Tracing.Endpoint)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Destination defaults:")
	fmt.Fprintf(out, "  Telegram: enabled=%v, bot token: %v, channel: %q\n",
		defaults.Telegram.Enabled, defaults.Telegram.BotToken != "", defaults.Telegram.ChannelID)
	fmt.Fprintf(out, "  Discord: enabled=%v, webhook: %v\n",
		defaults.Discord.Enabled, defaults.Discord.WebhookURL != "")
	fmt.Fprintf(out, "  Notion: enabled=%v, token: %v, database: %q\n",
		defaults.Notion.Enabled, defaults.Notion.IntegrationToken != "", defaults.Notion.DatabaseID)
	fmt.Fprintf(out, "  Notion properties: %s / %s / %s\n",
		defaults.Notion.TitleProperty, defaults.Notion.ContentProperty, defaults.Notion.SourceProperty)

	return nil
}
