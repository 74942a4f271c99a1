package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/shaderbuild-go/internal/domain"
	"github.com/quantmind-br/shaderbuild-go/internal/utils"
)

const testLine = "glslangValidator -l -V shaders/basic.vert -o shaders_bin/basicVS.spv -g"

func newMemCache(t *testing.T) *BadgerCache {
	t.Helper()
	c, err := NewBadgerCache(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// TestEntry_IsExpired tests entry expiration
func TestEntry_IsExpired(t *testing.T) {
	tests := []struct {
		name     string
		entry    *Entry
		expected bool
	}{
		{"not expired", &Entry{ExpiresAt: time.Now().Add(time.Hour)}, false},
		{"expired", &Entry{ExpiresAt: time.Now().Add(-time.Hour)}, true},
		{"no expiry", &Entry{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.entry.IsExpired())
		})
	}
}

// TestEntry_TTL tests remaining time-to-live
func TestEntry_TTL(t *testing.T) {
	live := &Entry{ExpiresAt: time.Now().Add(time.Hour)}
	assert.GreaterOrEqual(t, live.TTL(), 59*time.Minute)
	assert.LessOrEqual(t, live.TTL(), time.Hour)

	dead := &Entry{ExpiresAt: time.Now().Add(-time.Hour)}
	assert.Equal(t, time.Duration(0), dead.TTL())
}

func TestEntry_UpToDate(t *testing.T) {
	e := &Entry{SourceHash: "abc", ExpiresAt: time.Now().Add(time.Hour)}

	assert.True(t, e.UpToDate("abc"))
	assert.False(t, e.UpToDate("def"))
	assert.False(t, (&Entry{}).UpToDate(""))
	assert.False(t, (&Entry{SourceHash: "abc", ExpiresAt: time.Now().Add(-time.Minute)}).UpToDate("abc"))
}

// TestDefaultOptions tests default options
func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Empty(t, opts.Directory)
	assert.False(t, opts.InMemory)
	assert.Nil(t, opts.Logger)
}

// TestGenerateKey tests cache key generation
func TestGenerateKey(t *testing.T) {
	key := GenerateKey(testLine)
	assert.Len(t, key, 64)
	assert.Equal(t, key, GenerateKey(testLine))
	assert.NotEqual(t, key, GenerateKey(testLine+" --define-macro USE_MSAA"))

	t.Run("whitespace is normalized", func(t *testing.T) {
		assert.Equal(t, key, GenerateKey("  glslangValidator  -l -V\tshaders/basic.vert -o shaders_bin/basicVS.spv -g "))
	})
}

func TestCommandKey(t *testing.T) {
	key := CommandKey(testLine)
	assert.Equal(t, "cmd:"+GenerateKey(testLine), key)
	assert.Equal(t, GenerateKeyWithPrefix(PrefixCommand, testLine), key)
}

// TestNewBadgerCache tests creating cache
func TestNewBadgerCache(t *testing.T) {
	t.Run("creates in-memory cache", func(t *testing.T) {
		c, err := NewBadgerCache(Options{InMemory: true})
		require.NoError(t, err)
		assert.NoError(t, c.Close())
	})

	t.Run("creates file-based cache with temp directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "cache")
		c, err := NewBadgerCache(Options{Directory: dir, Logger: utils.NewNopLogger()})
		require.NoError(t, err)
		assert.NoError(t, c.Close())
		assert.True(t, utils.DirExists(dir))
	})

	t.Run("creates file-based cache in default location", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		c, err := NewBadgerCache(Options{})
		require.NoError(t, err)
		require.NoError(t, c.Close())

		_, err = os.Stat(filepath.Join(home, ".shaderbuild", "cache"))
		assert.NoError(t, err)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		c, err := NewBadgerCache(Options{Directory: t.TempDir()})
		require.NoError(t, err)
		assert.NoError(t, c.Close())
		assert.NoError(t, c.Close())
	})
}

// TestBadgerCache_GetSet tests storing and retrieving values
func TestBadgerCache_GetSet(t *testing.T) {
	c := newMemCache(t)
	ctx := context.Background()

	value, err := c.Get(ctx, "cmd:missing")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
	assert.Nil(t, value)

	require.NoError(t, c.Set(ctx, "cmd:a", []byte("payload"), time.Hour))
	got, err := c.Get(ctx, "cmd:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	require.NoError(t, c.Set(ctx, "cmd:a", []byte("updated"), 0))
	got, err = c.Get(ctx, "cmd:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("updated"), got)
}

func TestBadgerCache_CancelledContext(t *testing.T) {
	c := newMemCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, c.Set(ctx, "k", []byte("v"), 0), context.Canceled)
}

// TestBadgerCache_Expiry tests that badger honors the TTL
func TestBadgerCache_Expiry(t *testing.T) {
	c := newMemCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Second))
	assert.True(t, c.Has(ctx, "short"))

	time.Sleep(1500 * time.Millisecond)
	assert.False(t, c.Has(ctx, "short"))
}

// TestBadgerCache_HasDelete tests existence checks and deletion
func TestBadgerCache_HasDelete(t *testing.T) {
	c := newMemCache(t)
	ctx := context.Background()

	assert.False(t, c.Has(ctx, "k"))
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Hour))
	assert.True(t, c.Has(ctx, "k"))

	require.NoError(t, c.Delete(ctx, "k"))
	assert.False(t, c.Has(ctx, "k"))
	assert.NoError(t, c.Delete(ctx, "never-set"))
}

// TestBadgerCache_ClearSizeStats tests bulk operations
func TestBadgerCache_ClearSizeStats(t *testing.T) {
	c := newMemCache(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), time.Hour))
	}
	assert.Equal(t, int64(5), c.Size())

	stats := c.Stats()
	assert.Equal(t, int64(5), stats["entries"])
	assert.Contains(t, stats, "lsm_size")
	assert.Contains(t, stats, "vlog_size")

	require.NoError(t, c.Clear())
	assert.Equal(t, int64(0), c.Size())
}

// TestBadgerCache_ConcurrentAccess tests concurrent access safety
func TestBadgerCache_ConcurrentAccess(t *testing.T) {
	c := newMemCache(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		key := fmt.Sprintf("cmd:%02d", i)
		go func() {
			defer wg.Done()
			_ = c.Set(ctx, key, []byte("content"), time.Hour)
		}()
		go func() {
			defer wg.Done()
			_, _ = c.Get(ctx, key)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), c.Size())
}

func TestPutGetEntry(t *testing.T) {
	c := newMemCache(t)
	ctx := context.Background()

	_, err := GetEntry(ctx, c, testLine)
	assert.True(t, errors.Is(err, domain.ErrCacheMiss))

	compiled := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, PutEntry(ctx, c, Entry{
		Command:    testLine,
		SourceHash: "deadbeef",
		Output:     "shaders_bin/basicVS.spv",
		CompiledAt: compiled,
	}, 0))

	e, err := GetEntry(ctx, c, testLine)
	require.NoError(t, err)
	assert.Equal(t, testLine, e.Command)
	assert.Equal(t, "deadbeef", e.SourceHash)
	assert.Equal(t, "shaders_bin/basicVS.spv", e.Output)
	assert.True(t, compiled.Equal(e.CompiledAt))
	assert.True(t, e.ExpiresAt.IsZero())
	assert.True(t, e.UpToDate("deadbeef"))

	assert.True(t, c.Has(ctx, CommandKey(testLine)))
}

func TestPutEntry_SetsExpiry(t *testing.T) {
	c := newMemCache(t)
	ctx := context.Background()

	require.NoError(t, PutEntry(ctx, c, Entry{Command: testLine, SourceHash: "x"}, time.Hour))

	e, err := GetEntry(ctx, c, testLine)
	require.NoError(t, err)
	assert.False(t, e.CompiledAt.IsZero())
	assert.Equal(t, time.Hour, e.ExpiresAt.Sub(e.CompiledAt))
}

func TestGetEntry_CorruptValue(t *testing.T) {
	c := newMemCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, CommandKey(testLine), []byte("{not json"), 0))

	_, err := GetEntry(ctx, c, testLine)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode cache entry")
}
