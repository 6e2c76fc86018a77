package settings

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/fgeck/clipperhub/internal/models"
	"github.com/fgeck/clipperhub/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore wraps a MemoryStore and records writes.
type countingStore struct {
	*store.MemoryStore
	writes  int
	getErr  error
	setErr  error
	getKeys []string
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: store.NewMemoryStore()}
}

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.getKeys = append(s.getKeys, key)
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *countingStore) Set(ctx context.Context, key string, value []byte) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.writes++
	return s.MemoryStore.Set(ctx, key, value)
}

func (s *countingStore) seed(t *testing.T, key, value string) {
	t.Helper()
	require.NoError(t, s.MemoryStore.Set(context.Background(), key, []byte(value)))
}

func (s *countingStore) raw(t *testing.T, key string) string {
	t.Helper()
	v, err := s.MemoryStore.Get(context.Background(), key)
	require.NoError(t, err)
	return string(v)
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func buildDefaults() models.ConfigSet {
	d := EmptyDefaults()
	d.Telegram.BotToken = "BUILD_TOKEN"
	d.Telegram.ChannelID = "@build"
	return d
}

func TestLoad_EmptyStoreReturnsDefaults(t *testing.T) {
	st := newCountingStore()
	svc := New(testLogger(), st, buildDefaults)

	cfg := svc.Load(context.Background())

	assert.Equal(t, buildDefaults(), cfg)
	assert.Zero(t, st.writes)
}

func TestLoad_NilDefaultsUsesEmptyDefaults(t *testing.T) {
	svc := New(testLogger(), store.NewMemoryStore(), nil)

	cfg := svc.Load(context.Background())

	assert.Equal(t, EmptyDefaults(), cfg)
	assert.Equal(t, "标题", cfg.Notion.TitleProperty)
}

func TestLoad_StoredValuesOverrideDefaults(t *testing.T) {
	st := newCountingStore()
	st.seed(t, StorageKey, `{
		"telegram": {"enabled": true, "botToken": "USER_TOKEN", "channelId": ""},
		"discord": {"enabled": false, "webhookUrl": "https://discord.com/api/webhooks/1/x"},
		"notion": {"enabled": true, "titleProperty": "Name"}
	}`)
	svc := New(testLogger(), st, buildDefaults)

	cfg := svc.Load(context.Background())

	assert.True(t, cfg.Telegram.Enabled)
	assert.Equal(t, "USER_TOKEN", cfg.Telegram.BotToken)
	assert.Equal(t, "@build", cfg.Telegram.ChannelID, "empty stored value keeps the default")
	assert.False(t, cfg.Discord.Enabled)
	assert.Equal(t, "https://discord.com/api/webhooks/1/x", cfg.Discord.WebhookURL)
	assert.True(t, cfg.Notion.Enabled)
	assert.Equal(t, "Name", cfg.Notion.TitleProperty)
	assert.Equal(t, "内容", cfg.Notion.ContentProperty)
}

func TestSave_PersistsOnlyNonDefaultValues(t *testing.T) {
	st := newCountingStore()
	svc := New(testLogger(), st, buildDefaults)

	cfg := buildDefaults()
	cfg.Telegram.Enabled = true
	cfg.Discord.WebhookURL = "https://discord.com/api/webhooks/1/x"

	require.NoError(t, svc.Save(context.Background(), cfg))

	assert.JSONEq(t, `{
		"telegram": {"enabled": true},
		"discord": {"enabled": false, "webhookUrl": "https://discord.com/api/webhooks/1/x"},
		"notion": {"enabled": false}
	}`, st.raw(t, StorageKey))
	assert.NotContains(t, st.raw(t, StorageKey), "BUILD_TOKEN")
}

func TestSave_RoundTripIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newCountingStore()
	st.seed(t, StorageKey, `{"telegram":{"enabled":true,"botToken":"USER"},"notion":{"titleProperty":""}}`)
	svc := New(testLogger(), st, buildDefaults)

	require.NoError(t, svc.Save(ctx, svc.Load(ctx)))
	first := st.raw(t, StorageKey)
	writes := st.writes

	require.NoError(t, svc.Save(ctx, svc.Load(ctx)))

	assert.Equal(t, first, st.raw(t, StorageKey))
	assert.Equal(t, writes, st.writes, "second save must not write")
}

func TestSave_PropagatesWriteFailure(t *testing.T) {
	st := newCountingStore()
	st.setErr = errors.New("quota exceeded")
	svc := New(testLogger(), st, buildDefaults)

	err := svc.Save(context.Background(), buildDefaults())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestLoad_ReadFailureReturnsDefaults(t *testing.T) {
	st := newCountingStore()
	st.getErr = errors.New("storage unavailable")
	svc := New(testLogger(), st, buildDefaults)

	cfg := svc.Load(context.Background())

	assert.Equal(t, buildDefaults(), cfg)
}

func TestLoad_MalformedEntryFallsBackPerDestination(t *testing.T) {
	st := newCountingStore()
	st.seed(t, StorageKey, `{
		"telegram": {"enabled": "yes"},
		"discord": {"enabled": true, "webhookUrl": "https://discord.com/api/webhooks/1/x"}
	}`)
	svc := New(testLogger(), st, buildDefaults)

	cfg := svc.Load(context.Background())

	assert.Equal(t, buildDefaults().Telegram, cfg.Telegram)
	assert.True(t, cfg.Discord.Enabled)
}

func TestLoad_MalformedDocumentFallsBackToDefaults(t *testing.T) {
	st := newCountingStore()
	st.seed(t, StorageKey, `["not", "an", "object"]`)
	svc := New(testLogger(), st, buildDefaults)

	assert.Equal(t, buildDefaults(), svc.Load(context.Background()))
}

func TestLoad_LegacyMigrationRunsOnce(t *testing.T) {
	ctx := context.Background()
	st := newCountingStore()
	st.seed(t, LegacyBotTokenKey, `"LEGACY"`)
	st.seed(t, LegacyChannelIDKey, `"@legacy"`)
	svc := New(testLogger(), st, EmptyDefaults)

	first := svc.Load(ctx)

	assert.True(t, first.Telegram.Enabled)
	assert.Equal(t, "LEGACY", first.Telegram.BotToken)
	assert.Equal(t, "@legacy", first.Telegram.ChannelID)
	assert.Equal(t, 1, st.writes)

	second := svc.Load(ctx)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, st.writes, "second load must not migrate again")

	// Legacy keys are left in place.
	assert.Equal(t, `"LEGACY"`, st.raw(t, LegacyBotTokenKey))
}

func TestLoad_LegacyMigrationMatchingDefaults(t *testing.T) {
	ctx := context.Background()
	st := newCountingStore()
	st.seed(t, LegacyBotTokenKey, `"BUILD_TOKEN"`)
	st.seed(t, LegacyChannelIDKey, `"@build"`)
	svc := New(testLogger(), st, buildDefaults)

	first := svc.Load(ctx)
	second := svc.Load(ctx)

	assert.True(t, first.Telegram.Enabled)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, st.writes)
}

// A legacy token equal to the build default is never stored in the new
// format, so disabling Telegram does not stick while the legacy key exists.
func TestLoad_LegacyMatchingDefaultsReenablesAfterDisable(t *testing.T) {
	ctx := context.Background()
	st := newCountingStore()
	st.seed(t, LegacyBotTokenKey, `"BUILD_TOKEN"`)
	st.seed(t, LegacyChannelIDKey, `"@build"`)
	svc := New(testLogger(), st, buildDefaults)

	cfg := svc.Load(ctx)
	require.True(t, cfg.Telegram.Enabled)

	cfg.Telegram.Enabled = false
	require.NoError(t, svc.Save(ctx, cfg))
	assert.NotContains(t, st.raw(t, StorageKey), "botToken")

	reloaded := svc.Load(ctx)

	assert.True(t, reloaded.Telegram.Enabled)
	assert.Equal(t, "BUILD_TOKEN", reloaded.Telegram.BotToken)
	assert.Equal(t, 3, st.writes)
}

func TestLoad_LegacyIgnoredWhenNewFormatHasToken(t *testing.T) {
	st := newCountingStore()
	st.seed(t, StorageKey, `{"telegram":{"enabled":false,"botToken":"NEW"}}`)
	st.seed(t, LegacyBotTokenKey, `"LEGACY"`)
	svc := New(testLogger(), st, EmptyDefaults)

	cfg := svc.Load(context.Background())

	assert.Equal(t, "NEW", cfg.Telegram.BotToken)
	assert.False(t, cfg.Telegram.Enabled)
	assert.Zero(t, st.writes)
}

func TestLoad_LegacyChannelNotReadWithoutToken(t *testing.T) {
	st := newCountingStore()
	st.seed(t, LegacyChannelIDKey, `"@legacy"`)
	svc := New(testLogger(), st, EmptyDefaults)

	cfg := svc.Load(context.Background())

	assert.Empty(t, cfg.Telegram.ChannelID)
	assert.NotContains(t, st.getKeys, LegacyChannelIDKey)
}

func TestLoad_MigrationWriteFailureStillReturnsMigratedSet(t *testing.T) {
	st := newCountingStore()
	st.seed(t, LegacyBotTokenKey, `"LEGACY"`)
	st.setErr = errors.New("read-only")
	svc := New(testLogger(), st, EmptyDefaults)

	cfg := svc.Load(context.Background())

	assert.Equal(t, "LEGACY", cfg.Telegram.BotToken)
	assert.True(t, cfg.Telegram.Enabled)
}

func TestLoadOneSaveOne(t *testing.T) {
	ctx := context.Background()
	st := newCountingStore()
	svc := New(testLogger(), st, buildDefaults)

	err := svc.SaveOne(ctx, models.NotionConfig{
		Enabled:          true,
		IntegrationToken: "secret",
		DatabaseID:       "0123456789abcdef0123456789abcdef",
		TitleProperty:    "标题",
		ContentProperty:  "内容",
		SourceProperty:   "来源",
	})
	require.NoError(t, err)

	got, err := svc.LoadOne(ctx, models.Notion)
	require.NoError(t, err)
	notionCfg, ok := got.(models.NotionConfig)
	require.True(t, ok)
	assert.True(t, notionCfg.Enabled)
	assert.Equal(t, "secret", notionCfg.IntegrationToken)

	// Other destinations are untouched.
	tg, err := svc.LoadOne(ctx, models.Telegram)
	require.NoError(t, err)
	assert.Equal(t, buildDefaults().Telegram, tg)

	_, err = svc.LoadOne(ctx, models.DestinationID("slack"))
	assert.Error(t, err)
}

func TestSaveOne_RejectsUnknownConfig(t *testing.T) {
	svc := New(testLogger(), newCountingStore(), buildDefaults)

	err := svc.SaveOne(context.Background(), nil)

	assert.Error(t, err)
}
