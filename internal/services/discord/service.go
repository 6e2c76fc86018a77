// Package discord relays clips through Discord channel webhooks.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/fgeck/clipperhub/internal/models"
	"github.com/fgeck/clipperhub/internal/services/platform"
	"github.com/rs/zerolog"
)

const maxResponseBytes = 1 << 20

// webhookPattern matches https://discord.com/api/webhooks/{id}/{token} and the
// legacy discordapp.com host.
var webhookPattern = regexp.MustCompile(`^https://(discord\.com|discordapp\.com)/api/webhooks/\d+/[\w-]+$`)

var meta = models.PlatformMeta{
	ID:          models.Discord,
	Name:        "Discord",
	Icon:        "💬",
	Description: "通过 Webhook 发送消息到 Discord 频道",
}

// Impl implements platform.Adapter for Discord webhooks.
type Impl struct {
	httpClient platform.HTTPClient
	logger     zerolog.Logger
}

// New creates a new Discord adapter.
func New(logger zerolog.Logger, timeout time.Duration) *Impl {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Impl{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// NewWithClient creates a new Discord adapter with a custom HTTP client (for testing).
func NewWithClient(logger zerolog.Logger, httpClient platform.HTTPClient) *Impl {
	return &Impl{
		httpClient: httpClient,
		logger:     logger,
	}
}

// executeWebhookRequest is the request body for the Execute Webhook endpoint.
type executeWebhookRequest struct {
	Content   string `json:"content"`
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// IsValidWebhookURL reports whether url is a Discord webhook URL.
func IsValidWebhookURL(url string) bool {
	return webhookPattern.MatchString(url)
}

// Meta implements platform.Adapter.
func (s *Impl) Meta() models.PlatformMeta {
	return meta
}

// ValidateConfig implements platform.Adapter.
func (s *Impl) ValidateConfig(cfg models.DestinationConfig) bool {
	c, ok := asConfig(cfg)
	if !ok {
		return false
	}
	return c.WebhookURL != "" && IsValidWebhookURL(c.WebhookURL)
}

// SendMessage implements platform.Adapter.
func (s *Impl) SendMessage(ctx context.Context, text string, cfg models.DestinationConfig) models.SendResult {
	if !s.ValidateConfig(cfg) {
		return models.Failed("请先配置有效的 Discord Webhook URL")
	}
	c, _ := asConfig(cfg)

	s.logger.Debug().Int("length", len(text)).Msg("executing Discord webhook")

	jsonBody, err := json.Marshal(executeWebhookRequest{
		Content:   text,
		Username:  c.Username,
		AvatarURL: c.AvatarURL,
	})
	if err != nil {
		return models.Failed(fmt.Sprintf("failed to marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.WebhookURL, bytes.NewReader(jsonBody))
	if err != nil {
		return models.Failed(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Discord request failed")
		return models.Failed(platform.TransportError("Discord", err))
	}
	defer func() { _ = resp.Body.Close() }()

	// Discord answers 204 No Content unless ?wait=true is set.
	if resp.StatusCode == http.StatusNoContent || (resp.StatusCode >= 200 && resp.StatusCode < 300) {
		s.logger.Info().Int("status", resp.StatusCode).Msg("Discord message sent")
		return models.Succeeded("消息已发送到 Discord")
	}

	errMsg := decodeError(resp)
	s.logger.Warn().
		Int("status", resp.StatusCode).
		Str("error", errMsg).
		Msg("Discord rejected message")
	return models.Failed(errMsg)
}

// TestConnection implements platform.Adapter.
func (s *Impl) TestConnection(ctx context.Context, cfg models.DestinationConfig) models.SendResult {
	if !s.ValidateConfig(cfg) {
		return models.Failed("请先填写有效的 Discord Webhook URL")
	}
	return s.SendMessage(ctx, platform.TestMessage, cfg)
}

func decodeError(resp *http.Response) string {
	fallback := fmt.Sprintf("HTTP %d", resp.StatusCode)

	var apiErr discordgo.APIErrorMessage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&apiErr); err != nil {
		return fallback
	}
	if apiErr.Message == "" {
		return fallback
	}
	return apiErr.Message
}

func asConfig(cfg models.DestinationConfig) (models.DiscordConfig, bool) {
	switch c := cfg.(type) {
	case models.DiscordConfig:
		return c, true
	case *models.DiscordConfig:
		if c == nil {
			return models.DiscordConfig{}, false
		}
		return *c, true
	default:
		return models.DiscordConfig{}, false
	}
}
