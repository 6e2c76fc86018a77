package config

import (
	"os"
	"strings"

	"github.com/fgeck/clipperhub/internal/models"
)

// Build-time destination defaults, set with
//
//	-ldflags "-X github.com/fgeck/clipperhub/internal/config.TelegramBotToken=..."
var (
	TelegramBotToken       string
	TelegramChannelID      string
	DiscordWebhookURL      string
	NotionIntegrationToken string
	NotionDatabaseID       string
	EnabledPlatforms       string // comma separated destination ids enabled by default
)

// Environment variables overriding the build-time defaults.
const (
	EnvTelegramBotToken       = "CLIPPERHUB_TELEGRAM_BOT_TOKEN"
	EnvTelegramChannelID      = "CLIPPERHUB_TELEGRAM_CHANNEL_ID"
	EnvDiscordWebhookURL      = "CLIPPERHUB_DISCORD_WEBHOOK_URL"
	EnvDiscordUsername        = "CLIPPERHUB_DISCORD_USERNAME"
	EnvDiscordAvatarURL       = "CLIPPERHUB_DISCORD_AVATAR_URL"
	EnvNotionIntegrationToken = "CLIPPERHUB_NOTION_INTEGRATION_TOKEN"
	EnvNotionDatabaseID       = "CLIPPERHUB_NOTION_DATABASE_ID"
	EnvEnabledPlatforms       = "CLIPPERHUB_ENABLED"
)

// BuildDefaults returns the destination defaults from build-time variables,
// overridden by CLIPPERHUB_* environment variables.
func BuildDefaults() models.ConfigSet {
	cfg := models.ConfigSet{
		Telegram: models.TelegramConfig{
			BotToken:  env(EnvTelegramBotToken, TelegramBotToken),
			ChannelID: env(EnvTelegramChannelID, TelegramChannelID),
		},
		Discord: models.DiscordConfig{
			WebhookURL: env(EnvDiscordWebhookURL, DiscordWebhookURL),
			Username:   os.Getenv(EnvDiscordUsername),
			AvatarURL:  os.Getenv(EnvDiscordAvatarURL),
		},
		Notion: models.NotionConfig{
			IntegrationToken: env(EnvNotionIntegrationToken, NotionIntegrationToken),
			DatabaseID:       env(EnvNotionDatabaseID, NotionDatabaseID),
			TitleProperty:    models.DefaultNotionTitleProperty,
			ContentProperty:  models.DefaultNotionContentProperty,
			SourceProperty:   models.DefaultNotionSourceProperty,
		},
	}

	for _, raw := range strings.Split(env(EnvEnabledPlatforms, EnabledPlatforms), ",") {
		id, err := models.ParseDestinationID(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		switch id {
		case models.Telegram:
			cfg.Telegram.Enabled = true
		case models.Discord:
			cfg.Discord.Enabled = true
		case models.Notion:
			cfg.Notion.Enabled = true
		}
	}

	return cfg
}

// DefaultsFunc layers the configuration file's defaults over BuildDefaults.
// The result is recomputed on every call so environment changes take effect.
func DefaultsFunc(file models.ConfigSet) func() models.ConfigSet {
	return func() models.ConfigSet {
		return Overlay(BuildDefaults(), file)
	}
}

// Overlay returns base with every non-empty field of top applied. Enabled
// flags are OR-ed.
func Overlay(base, top models.ConfigSet) models.ConfigSet {
	out := base

	out.Telegram.Enabled = base.Telegram.Enabled || top.Telegram.Enabled
	out.Telegram.BotToken = first(top.Telegram.BotToken, base.Telegram.BotToken)
	out.Telegram.ChannelID = first(top.Telegram.ChannelID, base.Telegram.ChannelID)

	out.Discord.Enabled = base.Discord.Enabled || top.Discord.Enabled
	out.Discord.WebhookURL = first(top.Discord.WebhookURL, base.Discord.WebhookURL)
	out.Discord.Username = first(top.Discord.Username, base.Discord.Username)
	out.Discord.AvatarURL = first(top.Discord.AvatarURL, base.Discord.AvatarURL)

	out.Notion.Enabled = base.Notion.Enabled || top.Notion.Enabled
	out.Notion.IntegrationToken = first(top.Notion.IntegrationToken, base.Notion.IntegrationToken)
	out.Notion.DatabaseID = first(top.Notion.DatabaseID, base.Notion.DatabaseID)
	out.Notion.TitleProperty = first(top.Notion.TitleProperty, base.Notion.TitleProperty)
	out.Notion.ContentProperty = first(top.Notion.ContentProperty, base.Notion.ContentProperty)
	out.Notion.SourceProperty = first(top.Notion.SourceProperty, base.Notion.SourceProperty)

	return out
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
