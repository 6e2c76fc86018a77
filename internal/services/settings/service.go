// Package settings loads and persists destination configuration.
//
// The persisted form only carries values that differ from the compiled-in
// defaults (plus enabled), so secrets injected at build or deploy time never
// end up in user-visible storage. Nothing is cached between calls.
package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fgeck/clipperhub/internal/models"
	"github.com/fgeck/clipperhub/internal/store"
	"github.com/rs/zerolog"
)

// Storage keys.
const (
	StorageKey         = "platformConfigs"
	LegacyBotTokenKey  = "telegramBotToken"
	LegacyChannelIDKey = "telegramChannelId"
)

// Service defines the interface for configuration persistence.
type Service interface {
	Load(ctx context.Context) models.ConfigSet
	Save(ctx context.Context, cfg models.ConfigSet) error
	LoadOne(ctx context.Context, id models.DestinationID) (models.DestinationConfig, error)
	SaveOne(ctx context.Context, cfg models.DestinationConfig) error
}

// DefaultsFunc computes the compiled-in defaults. It is called on every load and save.
type DefaultsFunc func() models.ConfigSet

// Impl implements the settings Service interface.
type Impl struct {
	store    store.Store
	defaults DefaultsFunc
	logger   zerolog.Logger
}

// New creates a new settings service.
func New(logger zerolog.Logger, st store.Store, defaults DefaultsFunc) *Impl {
	if defaults == nil {
		defaults = EmptyDefaults
	}
	return &Impl{
		store:    st,
		defaults: defaults,
		logger:   logger,
	}
}

// EmptyDefaults returns destination defaults without any injected values.
func EmptyDefaults() models.ConfigSet {
	return models.ConfigSet{
		Notion: models.NotionConfig{
			TitleProperty:   models.DefaultNotionTitleProperty,
			ContentProperty: models.DefaultNotionContentProperty,
			SourceProperty:  models.DefaultNotionSourceProperty,
		},
	}
}

// Load returns the merged configuration. Read failures are logged and yield
// the defaults.
func (s *Impl) Load(ctx context.Context) models.ConfigSet {
	defaults := s.defaults()

	doc, found, err := s.readDocument(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load platform configs, using defaults")
		return defaults
	}

	cfg := merge(defaults, doc)

	legacyToken, legacyChannel, err := s.readLegacy(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read legacy settings, using defaults")
		return defaults
	}

	if needsMigration(doc, cfg, legacyToken, legacyChannel) {
		cfg.Telegram.BotToken = legacyToken
		cfg.Telegram.ChannelID = legacyChannel
		cfg.Telegram.Enabled = true

		if err := s.Save(ctx, cfg); err != nil {
			s.logger.Warn().Err(err).Msg("failed to persist migrated legacy settings")
		} else {
			s.logger.Info().Msg("migrated legacy Telegram settings")
		}
	}

	s.logger.Debug().Bool("stored", found).Msg("platform configs loaded")
	return cfg
}

// Save persists cfg, dropping values equal to the defaults. Write failures are
// returned to the caller.
func (s *Impl) Save(ctx context.Context, cfg models.ConfigSet) error {
	data, err := json.Marshal(filter(cfg, s.defaults()))
	if err != nil {
		return fmt.Errorf("encoding platform configs: %w", err)
	}

	if current, err := s.store.Get(ctx, StorageKey); err == nil && bytes.Equal(current, data) {
		s.logger.Debug().Msg("platform configs unchanged, skipping write")
		return nil
	}

	if err := s.store.Set(ctx, StorageKey, data); err != nil {
		s.logger.Error().Err(err).Msg("failed to save platform configs")
		return fmt.Errorf("saving platform configs: %w", err)
	}

	s.logger.Debug().Msg("platform configs saved")
	return nil
}

// LoadOne returns the configuration of a single destination.
func (s *Impl) LoadOne(ctx context.Context, id models.DestinationID) (models.DestinationConfig, error) {
	cfg, ok := s.Load(ctx).Get(id)
	if !ok {
		return nil, fmt.Errorf("unknown destination %q", id)
	}
	return cfg, nil
}

// SaveOne replaces a single destination's configuration.
//
// This is a plain load-modify-save: two concurrent callers can overwrite each
// other's change.
func (s *Impl) SaveOne(ctx context.Context, cfg models.DestinationConfig) error {
	all := s.Load(ctx)
	if err := all.Set(cfg); err != nil {
		return err
	}
	return s.Save(ctx, all)
}

func (s *Impl) readDocument(ctx context.Context) (storedDocument, bool, error) {
	data, err := s.store.Get(ctx, StorageKey)
	if errors.Is(err, store.ErrNotFound) {
		return storedDocument{}, false, nil
	}
	if err != nil {
		return storedDocument{}, false, err
	}

	doc, bad, err := decodeDocument(data)
	if err != nil {
		// Unparseable storage is treated like an empty one.
		s.logger.Warn().Err(err).Msg("ignoring malformed platform configs")
		return storedDocument{}, true, nil
	}
	for id, decodeErr := range bad {
		s.logger.Warn().
			Err(decodeErr).
			Str("platform", string(id)).
			Msg("ignoring malformed platform config")
	}
	return doc, true, nil
}

func (s *Impl) readLegacy(ctx context.Context) (string, string, error) {
	token, err := s.readLegacyString(ctx, LegacyBotTokenKey)
	if err != nil {
		return "", "", err
	}
	if token == "" {
		return "", "", nil
	}
	channel, err := s.readLegacyString(ctx, LegacyChannelIDKey)
	if err != nil {
		return "", "", err
	}
	return token, channel, nil
}

func (s *Impl) readLegacyString(ctx context.Context, key string) (string, error) {
	data, err := s.store.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("ignoring malformed legacy value")
		return "", nil
	}
	return v, nil
}

// needsMigration reports whether the legacy token should be copied into the
// new format. It stays false once the migrated values are in effect, so the
// migration is written at most once.
func needsMigration(doc storedDocument, cfg models.ConfigSet, legacyToken, legacyChannel string) bool {
	if legacyToken == "" {
		return false
	}
	if doc.Telegram != nil && doc.Telegram.BotToken != nil && *doc.Telegram.BotToken != "" {
		return false
	}
	t := cfg.Telegram
	return !(t.Enabled && t.BotToken == legacyToken && t.ChannelID == legacyChannel)
}
