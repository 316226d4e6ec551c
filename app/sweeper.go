package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"
)

const (
	sweepInterval = 6 * time.Hour
	sweepHorizon  = 24 * time.Hour
)

// Sweeper deletes cache files older than the retention horizon on a
// fixed timer, independent of request traffic.
type Sweeper struct {
	dir      string
	interval time.Duration
	horizon  time.Duration
	log      *log.Logger
}

func NewSweeper(dir string) *Sweeper {
	return &Sweeper{
		dir:      dir,
		interval: sweepInterval,
		horizon:  sweepHorizon,
		log:      log.New(os.Stderr, "(sweeper) ", log.LstdFlags),
	}
}

// Start runs sweeps until ctx is cancelled. One sweep happens right
// away to clear leftovers from a previous run.
func (s *Sweeper) Start(ctx context.Context) {
	s.Sweep()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep removes every cache file whose mtime is past the horizon and
// returns how many were deleted. Individual deletion errors are logged
// and skipped; the sweep is best-effort.
func (s *Sweeper) Sweep() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Println("cannot read cache directory:", err.Error())
		return 0
	}

	cutoff := time.Now().Add(-s.horizon)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.log.Println("failed to remove", entry.Name()+":", err.Error())
			continue
		}
		s.log.Println("removed stale cache file", entry.Name())
		removed++
	}
	return removed
}
