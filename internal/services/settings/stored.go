package settings

import (
	"encoding/json"
	"fmt"

	"github.com/fgeck/clipperhub/internal/models"
)

// Persisted shapes. A nil field was never stored and falls back to the default.

type storedTelegram struct {
	Enabled   *bool   `json:"enabled,omitempty"`
	BotToken  *string `json:"botToken,omitempty"`
	ChannelID *string `json:"channelId,omitempty"`
}

type storedDiscord struct {
	Enabled    *bool   `json:"enabled,omitempty"`
	WebhookURL *string `json:"webhookUrl,omitempty"`
	Username   *string `json:"username,omitempty"`
	AvatarURL  *string `json:"avatarUrl,omitempty"`
}

type storedNotion struct {
	Enabled          *bool   `json:"enabled,omitempty"`
	IntegrationToken *string `json:"integrationToken,omitempty"`
	DatabaseID       *string `json:"databaseId,omitempty"`
	TitleProperty    *string `json:"titleProperty,omitempty"`
	ContentProperty  *string `json:"contentProperty,omitempty"`
	SourceProperty   *string `json:"sourceProperty,omitempty"`
}

type storedDocument struct {
	Telegram *storedTelegram `json:"telegram,omitempty"`
	Discord  *storedDiscord  `json:"discord,omitempty"`
	Notion   *storedNotion   `json:"notion,omitempty"`
}

// decodeDocument parses each destination independently. Entries that fail to
// decode are dropped and reported so the caller can fall back to defaults.
func decodeDocument(data []byte) (storedDocument, map[models.DestinationID]error, error) {
	var doc storedDocument

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return doc, nil, fmt.Errorf("decoding platform configs: %w", err)
	}

	bad := make(map[models.DestinationID]error)
	if v, ok := raw[string(models.Telegram)]; ok {
		var t storedTelegram
		if err := json.Unmarshal(v, &t); err != nil {
			bad[models.Telegram] = err
		} else {
			doc.Telegram = &t
		}
	}
	if v, ok := raw[string(models.Discord)]; ok {
		var d storedDiscord
		if err := json.Unmarshal(v, &d); err != nil {
			bad[models.Discord] = err
		} else {
			doc.Discord = &d
		}
	}
	if v, ok := raw[string(models.Notion)]; ok {
		var n storedNotion
		if err := json.Unmarshal(v, &n); err != nil {
			bad[models.Notion] = err
		} else {
			doc.Notion = &n
		}
	}
	return doc, bad, nil
}

// merge overlays stored values on defaults. A stored string only wins when non-empty.
func merge(defaults models.ConfigSet, doc storedDocument) models.ConfigSet {
	cfg := defaults

	if t := doc.Telegram; t != nil {
		cfg.Telegram.Enabled = pickBool(cfg.Telegram.Enabled, t.Enabled)
		cfg.Telegram.BotToken = pickString(cfg.Telegram.BotToken, t.BotToken)
		cfg.Telegram.ChannelID = pickString(cfg.Telegram.ChannelID, t.ChannelID)
	}
	if d := doc.Discord; d != nil {
		cfg.Discord.Enabled = pickBool(cfg.Discord.Enabled, d.Enabled)
		cfg.Discord.WebhookURL = pickString(cfg.Discord.WebhookURL, d.WebhookURL)
		cfg.Discord.Username = pickString(cfg.Discord.Username, d.Username)
		cfg.Discord.AvatarURL = pickString(cfg.Discord.AvatarURL, d.AvatarURL)
	}
	if n := doc.Notion; n != nil {
		cfg.Notion.Enabled = pickBool(cfg.Notion.Enabled, n.Enabled)
		cfg.Notion.IntegrationToken = pickString(cfg.Notion.IntegrationToken, n.IntegrationToken)
		cfg.Notion.DatabaseID = pickString(cfg.Notion.DatabaseID, n.DatabaseID)
		cfg.Notion.TitleProperty = pickString(cfg.Notion.TitleProperty, n.TitleProperty)
		cfg.Notion.ContentProperty = pickString(cfg.Notion.ContentProperty, n.ContentProperty)
		cfg.Notion.SourceProperty = pickString(cfg.Notion.SourceProperty, n.SourceProperty)
	}
	return cfg
}

// filter keeps enabled unconditionally and every other field only when it
// differs from the default.
func filter(cfg, defaults models.ConfigSet) storedDocument {
	t, dt := cfg.Telegram, defaults.Telegram
	d, dd := cfg.Discord, defaults.Discord
	n, dn := cfg.Notion, defaults.Notion

	return storedDocument{
		Telegram: &storedTelegram{
			Enabled:   &t.Enabled,
			BotToken:  diff(t.BotToken, dt.BotToken),
			ChannelID: diff(t.ChannelID, dt.ChannelID),
		},
		Discord: &storedDiscord{
			Enabled:    &d.Enabled,
			WebhookURL: diff(d.WebhookURL, dd.WebhookURL),
			Username:   diff(d.Username, dd.Username),
			AvatarURL:  diff(d.AvatarURL, dd.AvatarURL),
		},
		Notion: &storedNotion{
			Enabled:          &n.Enabled,
			IntegrationToken: diff(n.IntegrationToken, dn.IntegrationToken),
			DatabaseID:       diff(n.DatabaseID, dn.DatabaseID),
			TitleProperty:    diff(n.TitleProperty, dn.TitleProperty),
			ContentProperty:  diff(n.ContentProperty, dn.ContentProperty),
			SourceProperty:   diff(n.SourceProperty, dn.SourceProperty),
		},
	}
}

func pickString(def string, v *string) string {
	if v != nil && *v != "" {
		return *v
	}
	return def
}

func pickBool(def bool, v *bool) bool {
	if v != nil {
		return *v
	}
	return def
}

func diff(v, def string) *string {
	if v == def {
		return nil
	}
	return &v
}
