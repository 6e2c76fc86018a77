package models

// DiscordConfig holds Discord webhook destination configuration.
type DiscordConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	WebhookURL string `json:"webhookUrl" yaml:"webhook_url"`
	Username   string `json:"username,omitempty" yaml:"username,omitempty"`   // optional display name
	AvatarURL  string `json:"avatarUrl,omitempty" yaml:"avatar_url,omitempty"` // optional avatar override
}

// Destination implements DestinationConfig.
func (c DiscordConfig) Destination() DestinationID { return Discord }

// IsEnabled implements DestinationConfig.
func (c DiscordConfig) IsEnabled() bool { return c.Enabled }
