package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macrolens/scanner/config"
	"github.com/macrolens/scanner/internal/infrastructure/cache"
	"github.com/macrolens/scanner/internal/infrastructure/sqlite"
)

func TestOpenStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		store, err := openStore(config.CacheConfig{Type: "memory"})
		require.NoError(t, err)
		assert.IsType(t, &cache.MemoryStore{}, store)
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.db")
		store, err := openStore(config.CacheConfig{Type: "sqlite", Path: path})
		require.NoError(t, err)
		defer store.Close()

		assert.IsType(t, &sqlite.Store{}, store)
		n, err := store.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := openStore(config.CacheConfig{Type: "redis"})
		assert.Error(t, err)
	})
}

func TestNewApp_SQLiteEndToEnd(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)

	remote := newStubRemote(sparklingWater(), cookies())
	app := NewApp(testAppConfig(), nil, store, remote)
	defer app.Close()
	ctx := context.Background()

	report := app.Syncer.SyncAll(ctx)
	require.False(t, report.Failed, report.Error)

	remote.mu.Lock()
	remote.online = false
	remote.mu.Unlock()
	app.Monitor.MarkOffline()

	result := app.Resolver.Resolve(ctx, "096619036530")
	require.True(t, result.Found())
	assert.Equal(t, "cache", string(result.Provenance))
	assert.Equal(t, 85, result.Product.HealthScore)
}
