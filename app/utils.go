package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/shirou/gopsutil/cpu"
)

var startTime = time.Now()

type envConfig struct {
	port     string
	cacheDir string
	arkKey   string
}

func loadEnvVars() (envConfig, error) {
	_ = godotenv.Load()

	cfg := envConfig{
		port:     os.Getenv("PORT"),
		cacheDir: os.Getenv("CACHE_DIR"),
		arkKey:   os.Getenv("ARK_API_KEY"),
	}

	if cfg.port == "" {
		return envConfig{}, errors.New("missing PORT in environment variables")
	}

	if cfg.cacheDir == "" {
		cfg.cacheDir = "cache"
	}

	// ARK_API_KEY may legitimately be absent; the generate endpoint
	// answers with a config error instead of the server refusing to
	// start.
	return cfg, nil
}

func getCpuUsage() float64 {
	percent, err := cpu.Percent(0, false)
	if err != nil {
		return 0
	}

	if len(percent) > 0 {
		return math.Round(percent[0]*100) / 100
	}

	return 0
}

func getMemoryUsage() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	totalAllocated := m.Alloc + m.TotalAlloc
	return totalAllocated
}

func formatBytes(bytes uint64) string {
	const (
		_         = iota
		KB uint64 = 1 << (10 * iota)
		MB
		GB
		TB
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.2fTB", float64(bytes)/float64(TB))
	case bytes >= GB:
		return fmt.Sprintf("%.2fGB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2fMB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2fKB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}
