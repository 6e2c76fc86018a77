// Package telegram relays clips through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fgeck/clipperhub/internal/models"
	"github.com/fgeck/clipperhub/internal/services/platform"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public Bot API host.
const DefaultBaseURL = "https://api.telegram.org"

const maxResponseBytes = 1 << 20

var meta = models.PlatformMeta{
	ID:          models.Telegram,
	Name:        "Telegram",
	Icon:        "📨",
	Description: "通过 Bot API 发送消息到 Telegram 频道或群组",
}

// Impl implements platform.Adapter for Telegram.
type Impl struct {
	httpClient platform.HTTPClient
	logger     zerolog.Logger
	baseURL    string
}

// New creates a new Telegram adapter.
func New(logger zerolog.Logger, timeout time.Duration) *Impl {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Impl{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		baseURL: DefaultBaseURL,
	}
}

// NewWithClient creates a new Telegram adapter with a custom HTTP client (for testing).
func NewWithClient(logger zerolog.Logger, httpClient platform.HTTPClient, baseURL string) *Impl {
	return &Impl{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// sendMessageRequest is the request body for Telegram sendMessage API.
type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// sendMessageResponse is the subset of the Bot API envelope we inspect.
type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
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
	return strings.TrimSpace(c.BotToken) != "" && strings.TrimSpace(c.ChannelID) != ""
}

// SendMessage implements platform.Adapter.
func (s *Impl) SendMessage(ctx context.Context, text string, cfg models.DestinationConfig) models.SendResult {
	if !s.ValidateConfig(cfg) {
		return models.Failed("请先配置 Bot Token 和 Channel ID")
	}
	c, _ := asConfig(cfg)

	s.logger.Debug().
		Str("chat_id", c.ChannelID).
		Int("length", len(text)).
		Msg("sending Telegram message")

	jsonBody, err := json.Marshal(sendMessageRequest{
		ChatID: c.ChannelID,
		Text:   text,
	})
	if err != nil {
		return models.Failed(fmt.Sprintf("failed to marshal request: %v", err))
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, c.BotToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return models.Failed(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Telegram request failed")
		return models.Failed(platform.TransportError("Telegram API", err))
	}
	defer func() { _ = resp.Body.Close() }()

	var result sendMessageResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&result); err != nil {
		return models.Failed(fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	if !result.OK {
		errMsg := "未知错误"
		switch {
		case result.Description != "":
			errMsg = result.Description
		case result.ErrorCode != 0:
			errMsg = fmt.Sprintf("错误代码: %d", result.ErrorCode)
		}
		s.logger.Warn().
			Int("status", resp.StatusCode).
			Str("error", errMsg).
			Msg("Telegram rejected message")
		return models.Failed(errMsg)
	}

	s.logger.Info().Str("chat_id", c.ChannelID).Msg("Telegram message sent")
	return models.Succeeded("消息已发送到 Telegram")
}

// TestConnection implements platform.Adapter.
func (s *Impl) TestConnection(ctx context.Context, cfg models.DestinationConfig) models.SendResult {
	if !s.ValidateConfig(cfg) {
		return models.Failed("请先填写 Bot Token 和 Channel ID")
	}
	return s.SendMessage(ctx, platform.TestMessage, cfg)
}

func asConfig(cfg models.DestinationConfig) (models.TelegramConfig, bool) {
	switch c := cfg.(type) {
	case models.TelegramConfig:
		return c, true
	case *models.TelegramConfig:
		if c == nil {
			return models.TelegramConfig{}, false
		}
		return *c, true
	default:
		return models.TelegramConfig{}, false
	}
}
