// Package config provides configuration file parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fgeck/clipperhub/internal/models"
	"github.com/fgeck/clipperhub/internal/services/discord"
	"github.com/fgeck/clipperhub/internal/services/notion"
	"github.com/fgeck/clipperhub/internal/store"
	"github.com/spf13/viper"
)

// Default values applied when the configuration leaves them unset.
const (
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultServerAddr     = "127.0.0.1:8787"
	DefaultRedisKeyPrefix = "clipperhub:"
)

// Parser handles configuration file parsing.
type Parser struct {
	v *viper.Viper
}

// NewParser creates a new configuration parser.
func NewParser() *Parser {
	v := viper.New()
	v.SetConfigType("yaml")
	return &Parser{v: v}
}

// LoadFile loads configuration from a file path.
func (p *Parser) LoadFile(path string) (*models.AppConfig, error) {
	p.v.SetConfigFile(path)

	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return p.parse()
}

// LoadReader loads configuration from a reader (useful for testing).
func (p *Parser) LoadReader(content string) (*models.AppConfig, error) {
	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return p.parse()
}

// Default returns the configuration used when no file is given.
func Default() *models.AppConfig {
	cfg := &models.AppConfig{
		Store: models.StoreConfig{
			Backend: models.StoreBackendFile,
			Path:    store.DefaultPath("storage.json"),
		},
		HTTP:   models.HTTPSettings{Timeout: DefaultHTTPTimeout},
		Server: models.ServerSettings{Addr: DefaultServerAddr},
	}
	return cfg
}

//nolint:gocyclo // parsing config requires checking many fields
func (p *Parser) parse() (*models.AppConfig, error) {
	cfg := Default()

	// Parse store settings.
	if backend := p.v.GetString("store.backend"); backend != "" {
		cfg.Store.Backend = strings.ToLower(backend)
	}
	switch cfg.Store.Backend {
	case models.StoreBackendFile, models.StoreBackendSQLite, models.StoreBackendRedis:
	default:
		return nil, fmt.Errorf("store.backend must be one of: file, sqlite, redis")
	}

	if path := p.expandEnv(p.v.GetString("store.path")); path != "" {
		cfg.Store.Path = expandHome(path)
	} else if cfg.Store.Backend == models.StoreBackendSQLite {
		cfg.Store.Path = store.DefaultPath("storage.db")
	}

	if cfg.Store.Backend == models.StoreBackendRedis {
		cfg.Store.Redis = &models.RedisConfig{
			Addr:      p.expandEnv(p.v.GetString("store.redis.addr")),
			Password:  p.expandEnv(p.v.GetString("store.redis.password")),
			DB:        p.v.GetInt("store.redis.db"),
			KeyPrefix: p.v.GetString("store.redis.key_prefix"),
		}
		if cfg.Store.Redis.Addr == "" {
			return nil, fmt.Errorf("store.redis.addr is required when store.backend is redis")
		}
		if cfg.Store.Redis.KeyPrefix == "" {
			cfg.Store.Redis.KeyPrefix = DefaultRedisKeyPrefix
		}
	}

	// Parse outbound HTTP settings.
	if p.v.IsSet("http.timeout") {
		cfg.HTTP.Timeout = p.v.GetDuration("http.timeout")
		if cfg.HTTP.Timeout <= 0 {
			return nil, fmt.Errorf("http.timeout must be positive")
		}
	}

	// Parse local API settings.
	if addr := p.v.GetString("server.addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	// Parse optional tracing settings.
	cfg.Tracing = models.TracingSettings{
		Endpoint: p.expandEnv(p.v.GetString("tracing.endpoint")),
		Insecure: p.v.GetBool("tracing.insecure"),
	}

	// Parse deployment defaults for each destination.
	cfg.Defaults = models.ConfigSet{
		Telegram: models.TelegramConfig{
			Enabled:   p.v.GetBool("defaults.telegram.enabled"),
			BotToken:  p.expandEnv(p.v.GetString("defaults.telegram.bot_token")),
			ChannelID: p.expandEnv(p.v.GetString("defaults.telegram.channel_id")),
		},
		Discord: models.DiscordConfig{
			Enabled:    p.v.GetBool("defaults.discord.enabled"),
			WebhookURL: p.expandEnv(p.v.GetString("defaults.discord.webhook_url")),
			Username:   p.v.GetString("defaults.discord.username"),
			AvatarURL:  p.v.GetString("defaults.discord.avatar_url"),
		},
		Notion: models.NotionConfig{
			Enabled:          p.v.GetBool("defaults.notion.enabled"),
			IntegrationToken: p.expandEnv(p.v.GetString("defaults.notion.integration_token")),
			DatabaseID:       p.expandEnv(p.v.GetString("defaults.notion.database_id")),
			TitleProperty:    p.v.GetString("defaults.notion.title_property"),
			ContentProperty:  p.v.GetString("defaults.notion.content_property"),
			SourceProperty:   p.v.GetString("defaults.notion.source_property"),
		},
	}

	return cfg, nil
}

// expandEnv expands environment variables in the format ${VAR} or $VAR.
func (p *Parser) expandEnv(s string) string {
	return os.ExpandEnv(s)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Validate performs validation on the loaded configuration.
func Validate(cfg *models.AppConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if cfg.Store.Backend != models.StoreBackendRedis && cfg.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}

	if cfg.Store.Backend == models.StoreBackendRedis && (cfg.Store.Redis == nil || cfg.Store.Redis.Addr == "") {
		return fmt.Errorf("store.redis.addr is required when store.backend is redis")
	}

	if cfg.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive")
	}

	if url := cfg.Defaults.Discord.WebhookURL; url != "" && !discord.IsValidWebhookURL(url) {
		return fmt.Errorf("defaults.discord.webhook_url is not a Discord webhook URL")
	}

	if id := cfg.Defaults.Notion.DatabaseID; id != "" && !notion.IsValidDatabaseID(id) {
		return fmt.Errorf("defaults.notion.database_id must be a UUID or 32 hex characters")
	}

	return nil
}
