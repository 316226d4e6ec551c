package main

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(names ...string) *Registry {
	sources := make([]SourceDescriptor, 0, len(names))
	for _, name := range names {
		sources = append(sources, SourceDescriptor{
			Name:     name,
			Endpoint: "http://example.test/" + name,
			Extract:  extractWaifuPics,
		})
	}
	return newRegistry(rand.New(rand.NewSource(1)), sources...)
}

func TestPickNoDuplicates(t *testing.T) {
	r := testRegistry("a", "b", "c", "d", "e")

	for i := 0; i < 50; i++ {
		picked := r.Pick(4)
		require.Len(t, picked, 4)

		seen := map[string]bool{}
		for _, s := range picked {
			assert.False(t, seen[s.Name], "source %s picked twice", s.Name)
			seen[s.Name] = true
		}
	}
}

func TestPickFullRegistry(t *testing.T) {
	r := testRegistry("a", "b", "c")

	picked := r.Pick(3)
	require.Len(t, picked, 3)

	seen := map[string]bool{}
	for _, s := range picked {
		seen[s.Name] = true
	}
	assert.Len(t, seen, 3)
}

func TestPickOversizedAllowsRepeats(t *testing.T) {
	r := testRegistry("a", "b")

	picked := r.Pick(5)
	assert.Len(t, picked, 5)
}

func TestPickZero(t *testing.T) {
	r := testRegistry("a", "b")
	assert.Nil(t, r.Pick(0))
}

func TestPickOtherExcludesFailed(t *testing.T) {
	r := testRegistry("a", "b", "c")

	for i := 0; i < 50; i++ {
		alt, ok := r.PickOther("b")
		require.True(t, ok)
		assert.NotEqual(t, "b", alt.Name)
	}
}

func TestPickOtherSingleSource(t *testing.T) {
	r := testRegistry("only")

	_, ok := r.PickOther("only")
	assert.False(t, ok)
}

func TestByDateDeterministic(t *testing.T) {
	r := testRegistry("a", "b", "c", "d", "e")

	first := r.ByDate("2026-08-31")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first.Name, r.ByDate("2026-08-31").Name)
	}
}

func TestNewResultIDUnique(t *testing.T) {
	a := newResultID("lolicon")
	b := newResultID("lolicon")
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "lolicon-")
}

func TestExtractLolicon(t *testing.T) {
	raw := []byte(`{"error":"","data":[{"title":"樱花","author":"画师","urls":{"original":"https://i.example/a.png"}}]}`)

	ext, err := extractLolicon(raw)
	require.NoError(t, err)
	assert.Equal(t, "https://i.example/a.png", ext.URL)
	assert.Equal(t, "樱花", ext.Title)
	assert.Equal(t, "画师", ext.Author)
}

func TestExtractLoliconEmpty(t *testing.T) {
	_, err := extractLolicon([]byte(`{"error":"","data":[]}`))
	assert.Error(t, err)
}

func TestExtractWaifuPics(t *testing.T) {
	ext, err := extractWaifuPics([]byte(`{"url":"https://i.example/w.png"}`))
	require.NoError(t, err)
	assert.Equal(t, "https://i.example/w.png", ext.URL)
}

func TestExtractWaifuIm(t *testing.T) {
	raw := []byte(`{"images":[{"url":"https://i.example/x.png","artist":{"name":"someone"}}]}`)

	ext, err := extractWaifuIm(raw)
	require.NoError(t, err)
	assert.Equal(t, "https://i.example/x.png", ext.URL)
	assert.Equal(t, "someone", ext.Author)
}

func TestExtractNekosBest(t *testing.T) {
	raw := []byte(`{"results":[{"url":"https://i.example/n.png","artist_name":"artist"}]}`)

	ext, err := extractNekosBest(raw)
	require.NoError(t, err)
	assert.Equal(t, "https://i.example/n.png", ext.URL)
	assert.Equal(t, "artist", ext.Author)
}

func TestExtractBtstu(t *testing.T) {
	ext, err := extractBtstu([]byte(`{"imgurl":"https://i.example/b.jpg"}`))
	require.NoError(t, err)
	assert.Equal(t, "https://i.example/b.jpg", ext.URL)
}

func TestExtractWrongShape(t *testing.T) {
	_, err := extractBtstu([]byte(`{"unexpected":true}`))
	assert.Error(t, err)

	_, err = extractWaifuPics([]byte(`not json`))
	assert.Error(t, err)
}
