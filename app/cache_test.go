package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *DiskCache {
	t.Helper()
	c, err := NewDiskCache(t.TempDir())
	require.NoError(t, err)
	return c
}

func TestCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)

	in := []ImageResult{
		{ID: "a-1", Title: "一", ImageURL: "https://i.example/1.png", SourceName: "a"},
		{ID: "b-2", Title: "二", ImageURL: "https://i.example/2.png", SourceName: "b"},
	}
	require.NoError(t, c.Put("recommend:2", in))

	var first, second []ImageResult
	require.True(t, c.Get("recommend:2", &first))
	require.True(t, c.Get("recommend:2", &second))

	assert.Equal(t, in, first)
	assert.Equal(t, first, second)
}

func TestCacheMissOnAbsentKey(t *testing.T) {
	c := newTestCache(t)

	var out ImageResult
	assert.False(t, c.Get("typed:anime", &out))
}

func TestCacheFreshnessExpiry(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Put("typed:anime", ImageResult{ID: "x"}))

	var out ImageResult
	require.True(t, c.Get("typed:anime", &out))

	c.now = func() time.Time { return time.Now().Add(typedWindow + time.Minute) }
	assert.False(t, c.Get("typed:anime", &out))
}

func TestCacheRecommendWindowLongerThanTyped(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Put("recommend:5", []ImageResult{{ID: "x"}}))

	c.now = func() time.Time { return time.Now().Add(typedWindow + time.Minute) }

	var out []ImageResult
	assert.True(t, c.Get("recommend:5", &out), "bulk window is one hour")

	c.now = func() time.Time { return time.Now().Add(recommendWindow + time.Minute) }
	assert.False(t, c.Get("recommend:5", &out))
}

func TestCacheDailyNeverExpiresByAge(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Put("daily:2026-08-31", ImageResult{ID: "d"}))

	c.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	var out ImageResult
	assert.True(t, c.Get("daily:2026-08-31", &out))
}

func TestCacheCorruptFileIsMiss(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Put("typed:anime", ImageResult{ID: "x"}))

	path := filepath.Join(c.Dir(), cacheFileName("typed:anime"))
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))

	var out ImageResult
	assert.False(t, c.Get("typed:anime", &out))

	// Overwriting regenerates the entry.
	require.NoError(t, c.Put("typed:anime", ImageResult{ID: "y"}))
	require.True(t, c.Get("typed:anime", &out))
	assert.Equal(t, "y", out.ID)
}

func TestCacheOverwriteWholesale(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Put("typed:anime", ImageResult{ID: "old"}))
	require.NoError(t, c.Put("typed:anime", ImageResult{ID: "new"}))

	var out ImageResult
	require.True(t, c.Get("typed:anime", &out))
	assert.Equal(t, "new", out.ID)
	assert.Equal(t, 1, c.FileCount())
}

func TestCacheFileNameDistinguishesCJKKeys(t *testing.T) {
	a := cacheFileName("generate:修仙|灵界||")
	b := cacheFileName("generate:武侠|魔界||")
	assert.NotEqual(t, a, b)
}

func TestFreshnessWindowPerNamespace(t *testing.T) {
	assert.Equal(t, recommendWindow, freshnessWindow("recommend:10"))
	assert.Equal(t, typedWindow, freshnessWindow("typed:anime"))
	assert.Equal(t, time.Duration(0), freshnessWindow("daily:2026-08-31"))
	assert.Equal(t, generateWindow, freshnessWindow("generate:修仙|灵界||"))
}
