package cache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gnolang/trs/internal/types"
)

func sampleReport(input string) types.Report {
	return types.Report{
		Input:   input,
		RuleSet: "double-negation",
		Depth:   3,
		Order:   "asc",
		Transformations: []types.Transformation{
			{Expr: "!true", Cost: 2, Path: []string{input, "!true"}},
		},
	}
}

func TestCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	cache, err := New(dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	key := Key{Input: "!!!true", Fingerprint: "abc", Depth: 3, Order: "asc"}

	t.Run("NotFound", func(t *testing.T) {
		_, found := cache.Get(key)
		assert.False(t, found)
	})

	t.Run("SetAndGet", func(t *testing.T) {
		report := sampleReport("!!!true")
		require.NoError(t, cache.Set(key, report))

		got, found := cache.Get(key)
		require.True(t, found)
		assert.Equal(t, report, got)
	})

	t.Run("KeyFieldsMatter", func(t *testing.T) {
		other := key
		other.Depth = 4
		_, found := cache.Get(other)
		assert.False(t, found)

		other = key
		other.Fingerprint = "def"
		_, found = cache.Get(other)
		assert.False(t, found)
	})

	t.Run("PersistedAcrossInstances", func(t *testing.T) {
		reopened, err := New(dir, nil)
		require.NoError(t, err)
		got, found := reopened.Get(key)
		require.True(t, found)
		assert.Equal(t, "!!!true", got.Input)
	})

	t.Run("InvalidateAll", func(t *testing.T) {
		require.NoError(t, cache.InvalidateAll())
		assert.Equal(t, 0, cache.Len())

		reopened, err := New(dir, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, reopened.Len())
	})
}

func TestCacheExpiry(t *testing.T) {
	t.Parallel()
	cache, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	key := Key{Input: "x", Fingerprint: "f"}
	require.NoError(t, cache.Set(key, sampleReport("x")))

	cache.SetMaxAge(time.Nanosecond)
	time.Sleep(time.Millisecond)

	_, found := cache.Get(key)
	assert.False(t, found)
	assert.Equal(t, 0, cache.Len())
}

func TestCachePrune(t *testing.T) {
	t.Parallel()
	cache, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	require.NoError(t, cache.Set(Key{Input: "a"}, sampleReport("a")))
	require.NoError(t, cache.Set(Key{Input: "b"}, sampleReport("b")))

	cache.SetMaxAge(time.Hour)
	require.NoError(t, cache.Prune())
	assert.Equal(t, 2, cache.Len())

	cache.SetMaxAge(time.Nanosecond)
	time.Sleep(time.Millisecond)
	require.NoError(t, cache.Prune())
	assert.Equal(t, 0, cache.Len())
}

func TestCacheConcurrentAccess(t *testing.T) {
	t.Parallel()
	cache, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := Key{Input: string(rune('a' + i))}
			assert.NoError(t, cache.Set(key, sampleReport(key.Input)))
			_, found := cache.Get(key)
			assert.True(t, found)
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, cache.Len())
}

func TestCorruptCacheFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, cacheFileName), []byte("not gob"), 0o644))

	_, err := New(dir, nil)
	assert.Error(t, err)
}

func TestKeyString(t *testing.T) {
	t.Parallel()
	a := Key{Input: "ab", Fingerprint: "c"}
	b := Key{Input: "a", Fingerprint: "bc"}
	assert.NotEqual(t, a.String(), b.String())
	assert.Len(t, a.String(), 32)
}
