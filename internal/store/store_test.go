package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fgeck/clipperhub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	value := []byte(`{"a":1}`)
	require.NoError(t, s.Set(ctx, "k", value))

	// Mutating the caller's slice must not leak into the store.
	value[0] = 'x'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))
}

func TestFileStore_GetSet(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "storage.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = s.Get(ctx, "platformConfigs")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "platformConfigs", []byte(`{"telegram":{"enabled":true}}`)))
	require.NoError(t, s.Set(ctx, "telegramBotToken", []byte(`"legacy"`)))

	got, err := s.Get(ctx, "platformConfigs")
	require.NoError(t, err)
	assert.JSONEq(t, `{"telegram":{"enabled":true}}`, string(got))

	// A second instance sees the same data.
	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	got, err = reopened.Get(ctx, "telegramBotToken")
	require.NoError(t, err)
	assert.Equal(t, `"legacy"`, string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_ReturnsCompactValues(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, err)

	value := []byte(`{"telegram":{"enabled":true,"botToken":"T"},"discord":{"enabled":false}}`)
	require.NoError(t, s.Set(ctx, "platformConfigs", value))

	got, err := s.Get(ctx, "platformConfigs")
	require.NoError(t, err)
	assert.Equal(t, string(value), string(got))
}

func TestFileStore_RejectsInvalidJSON(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, err)

	err = s.Set(context.Background(), "k", []byte("not json"))
	assert.Error(t, err)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	s, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "platformConfigs")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, models.StoreConfig{Backend: models.StoreBackendFile, Path: filepath.Join(t.TempDir(), "s.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(ctx, models.StoreConfig{Backend: models.StoreBackendRedis})
	assert.Error(t, err)

	_, err = Open(ctx, models.StoreConfig{Backend: "etcd"})
	assert.Error(t, err)
}
