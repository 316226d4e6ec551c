package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	gin.SetMode(gin.DebugMode)
	gin.DefaultWriter = io.Discard
	gin.DefaultErrorWriter = io.Discard

	cfg, err := loadEnvVars()
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	diskCache, err := NewDiskCache(cfg.cacheDir)
	if err != nil {
		fmt.Println("Error creating cache directory:", err)
		return
	}

	registry := newRegistry(rand.New(rand.NewSource(time.Now().UnixNano())), defaultSources()...)
	fetcher := NewFetcher()
	orch := NewOrchestrator(registry, fetcher)
	quota := NewQuotaTracker(generateLimit)
	gen := NewGenerateClient(cfg.arkKey)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewSweeper(cfg.cacheDir).Start(ctx)

	router := gin.Default()
	gateway := NewGateway(registry, fetcher, orch, diskCache, quota, gen)
	gateway.initializeRoutes(router)

	fmt.Printf("Starting server on port %s..\n", cfg.port)
	if err := router.Run(":" + cfg.port); err != nil {
		fmt.Printf("Failed to run server: %v\n", err)
		return
	}
}
