package main

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Freshness windows per cache namespace. The window is a property of
// the request shape, fixed at the call site. A zero window means the
// entry only goes away with its key (daily entries) or via the sweep.
const (
	recommendWindow = time.Hour
	typedWindow     = 30 * time.Minute
	generateWindow  = 24 * time.Hour
)

func freshnessWindow(key string) time.Duration {
	switch {
	case strings.HasPrefix(key, "recommend:"):
		return recommendWindow
	case strings.HasPrefix(key, "typed:"):
		return typedWindow
	case strings.HasPrefix(key, "daily:"):
		return 0
	case strings.HasPrefix(key, "generate:"):
		return generateWindow
	default:
		return typedWindow
	}
}

// DiskCache stores one JSON file per key under a single directory.
// Freshness is derived from the file's mtime, which keeps the eviction
// sweep a plain directory scan. Writes are whole-file overwrites, so
// concurrent regeneration for the same key is last-writer-wins without
// torn files.
type DiskCache struct {
	dir string
	log *log.Logger
	now func() time.Time
}

func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &DiskCache{
		dir: dir,
		log: log.New(os.Stderr, "(cache) ", log.LstdFlags),
		now: time.Now,
	}, nil
}

func (c *DiskCache) Dir() string {
	return c.dir
}

// cacheFileName slugs the key into a filename. The hash suffix keeps
// keys distinct when the slug collapses characters (CJK parameter
// values all slug to '-').
func cacheFileName(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('-')
		}
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	return fmt.Sprintf("%s-%08x.json", b.String(), h.Sum32())
}

// Get loads the entry for key into out. It reports false on a missing
// file, a stale file, or a corrupt file; corruption is never fatal,
// the caller just regenerates and overwrites.
func (c *DiskCache) Get(key string, out any) bool {
	path := filepath.Join(c.dir, cacheFileName(key))

	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	if window := freshnessWindow(key); window > 0 {
		if c.now().Sub(info.ModTime()) > window {
			return false
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.log.Println("corrupt cache file treated as miss:", path)
		return false
	}
	return true
}

// Put serializes payload and overwrites the file for key wholesale.
func (c *DiskCache) Put(key string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal cache payload: %w", err)
	}

	path := filepath.Join(c.dir, cacheFileName(key))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

// FileCount reports how many entries are currently on disk.
func (c *DiskCache) FileCount() int {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() {
			n++
		}
	}
	return n
}
