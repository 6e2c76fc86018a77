package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fgeck/clipperhub/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var showSecrets bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change destination settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective destination settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <platform> <key> <value>",
	Short: "Change one destination setting",
	Long: `Change one destination setting. Keys:
  telegram: bot_token, channel_id
  discord:  webhook_url, username, avatar_url
  notion:   integration_token, database_id, title_property, content_property, source_property`,
	Args: cobra.ExactArgs(3),
	RunE: runConfigSet,
}

var configEnableCmd = &cobra.Command{
	Use:   "enable <platform>",
	Short: "Enable a destination",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(args[0], true)
	},
}

var configDisableCmd = &cobra.Command{
	Use:   "disable <platform>",
	Short: "Disable a destination",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(args[0], false)
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print tokens and webhook URLs unmasked")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configEnableCmd)
	configCmd.AddCommand(configDisableCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(ctx) }()

	cfgs := a.settings.Load(ctx)
	if !showSecrets {
		cfgs = maskSecrets(cfgs)
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(cfgs); err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	return enc.Close()
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	id, err := models.ParseDestinationID(args[0])
	if err != nil {
		return err
	}

	return updateConfigs(func(cfgs *models.ConfigSet) error {
		return setField(cfgs, id, args[1], args[2])
	})
}

func setEnabled(platform string, enabled bool) error {
	id, err := models.ParseDestinationID(platform)
	if err != nil {
		return err
	}

	return updateConfigs(func(cfgs *models.ConfigSet) error {
		switch id {
		case models.Telegram:
			cfgs.Telegram.Enabled = enabled
		case models.Discord:
			cfgs.Discord.Enabled = enabled
		case models.Notion:
			cfgs.Notion.Enabled = enabled
		}
		return nil
	})
}

func updateConfigs(mutate func(cfgs *models.ConfigSet) error) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(ctx) }()

	cfgs := a.settings.Load(ctx)
	if err := mutate(&cfgs); err != nil {
		return err
	}
	if err := a.settings.Save(ctx, cfgs); err != nil {
		log.Error().Err(err).Msg("failed to save settings")
		return err
	}

	log.Info().Msg("settings saved")
	return nil
}

func setField(cfgs *models.ConfigSet, id models.DestinationID, key, value string) error {
	fields := map[models.DestinationID]map[string]*string{
		models.Telegram: {
			"bot_token":  &cfgs.Telegram.BotToken,
			"channel_id": &cfgs.Telegram.ChannelID,
		},
		models.Discord: {
			"webhook_url": &cfgs.Discord.WebhookURL,
			"username":    &cfgs.Discord.Username,
			"avatar_url":  &cfgs.Discord.AvatarURL,
		},
		models.Notion: {
			"integration_token": &cfgs.Notion.IntegrationToken,
			"database_id":       &cfgs.Notion.DatabaseID,
			"title_property":    &cfgs.Notion.TitleProperty,
			"content_property":  &cfgs.Notion.ContentProperty,
			"source_property":   &cfgs.Notion.SourceProperty,
		},
	}

	field, ok := fields[id][strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("unknown %s setting %q", id, key)
	}
	*field = strings.TrimSpace(value)
	return nil
}

func maskSecrets(cfgs models.ConfigSet) models.ConfigSet {
	cfgs.Telegram.BotToken = mask(cfgs.Telegram.BotToken)
	cfgs.Discord.WebhookURL = mask(cfgs.Discord.WebhookURL)
	cfgs.Notion.IntegrationToken = mask(cfgs.Notion.IntegrationToken)
	return cfgs
}

func mask(secret string) string {
	const visible = 4
	if secret == "" {
		return ""
	}
	runes := []rune(secret)
	if len(runes) <= visible*2 {
		return "****"
	}
	return string(runes[:visible]) + "****" + string(runes[len(runes)-visible:])
}
