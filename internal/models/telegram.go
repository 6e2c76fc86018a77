package models

// TelegramConfig holds Telegram Bot API destination configuration.
type TelegramConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	BotToken  string `json:"botToken" yaml:"bot_token"`
	ChannelID string `json:"channelId" yaml:"channel_id"`
}

// Destination implements DestinationConfig.
func (c TelegramConfig) Destination() DestinationID { return Telegram }

// IsEnabled implements DestinationConfig.
func (c TelegramConfig) IsEnabled() bool { return c.Enabled }
