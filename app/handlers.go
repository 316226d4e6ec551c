package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	defaultRecommendCount = 10
	maxRecommendCount     = 30
	quotaExceededMessage  = "已达到图像生成上限，请24小时后再试。"
)

// Gateway composes the registry, fetcher, fallback orchestration,
// disk cache and quota tracker into the HTTP handlers.
type Gateway struct {
	registry *Registry
	fetcher  *Fetcher
	orch     *Orchestrator
	cache    *DiskCache
	quota    *QuotaTracker
	gen      *GenerateClient
	typed    map[string]SourceDescriptor
	validate *validator.Validate
	log      *log.Logger
}

func NewGateway(registry *Registry, fetcher *Fetcher, orch *Orchestrator, cache *DiskCache, quota *QuotaTracker, gen *GenerateClient) *Gateway {
	return &Gateway{
		registry: registry,
		fetcher:  fetcher,
		orch:     orch,
		cache:    cache,
		quota:    quota,
		gen:      gen,
		typed:    typedSources,
		validate: validator.New(),
		log:      log.New(os.Stderr, "(gateway) ", log.LstdFlags),
	}
}

// localFallbackResults is the last-ditch answer for the bulk path when
// the registry is empty or the pipeline cannot run at all.
func localFallbackResults(count int) []ImageResult {
	assets := []string{
		"/assets/fallback-1.jpg",
		"/assets/fallback-2.jpg",
		"/assets/fallback-3.jpg",
	}
	out := make([]ImageResult, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, ImageResult{
			ID:       newResultID("local"),
			Title:    "默认壁纸",
			ImageURL: assets[i%len(assets)],
			Author:   "系统",
		})
	}
	return out
}

func (g *Gateway) handleRecommendations(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", strconv.Itoa(defaultRecommendCount)))
	if err != nil || count <= 0 {
		count = defaultRecommendCount
	}
	if count > maxRecommendCount {
		count = maxRecommendCount
	}

	key := fmt.Sprintf("recommend:%d", count)

	var results []ImageResult
	if g.cache.Get(key, &results) {
		c.Header("X-Cache", "Hit")
		c.JSON(http.StatusOK, results)
		return
	}

	sources := g.registry.Pick(count)
	if len(sources) == 0 {
		c.Header("X-Cache", "Miss")
		c.JSON(http.StatusOK, localFallbackResults(count))
		return
	}

	// Fan out one goroutine per source; each follows its own fallback
	// path, so a slow provider never blocks the others.
	results = make([]ImageResult, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src SourceDescriptor) {
			defer wg.Done()
			results[i] = g.orch.FetchWithFallback(src)
		}(i, src)
	}
	wg.Wait()

	if err := g.cache.Put(key, results); err != nil {
		g.log.Println("cache write failed:", err.Error())
	}

	c.Header("X-Cache", "Miss")
	c.JSON(http.StatusOK, results)
}

// typedSources maps the typed-image path parameter onto a fixed
// provider URL. This path deliberately skips fallback orchestration;
// its callers check for failure themselves.
var typedSources = map[string]SourceDescriptor{
	"anime":   {Name: "btstu", Endpoint: "https://api.btstu.cn/sjbz/api.php?lx=dongman&format=json", Extract: extractBtstu},
	"scenery": {Name: "btstu", Endpoint: "https://api.btstu.cn/sjbz/api.php?lx=fengjing&format=json", Extract: extractBtstu},
	"girl":    {Name: "btstu", Endpoint: "https://api.btstu.cn/sjbz/api.php?lx=meizi&format=json", Extract: extractBtstu},
	"mobile":  {Name: "btstu", Endpoint: "https://api.btstu.cn/sjbz/api.php?lx=dongman&method=mobile&format=json", Extract: extractBtstu},
}

func (g *Gateway) handleTypedImage(c *gin.Context) {
	imageType := c.Param("type")
	source, ok := g.typed[imageType]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": http.StatusBadRequest, "error": "Unknown image type."})
		return
	}

	key := "typed:" + imageType

	var result ImageResult
	if g.cache.Get(key, &result) {
		c.Header("X-Cache", "Hit")
		c.JSON(http.StatusOK, result)
		return
	}

	result, err := g.fetcher.Fetch(source, primaryTimeout)
	if err != nil {
		g.log.Println("typed fetch failed:", err.Error())
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch image.", "imageUrl": placeholderImagePath})
		return
	}

	if err := g.cache.Put(key, result); err != nil {
		g.log.Println("cache write failed:", err.Error())
	}

	c.Header("X-Cache", "Miss")
	c.JSON(http.StatusOK, result)
}

type dailyResponse struct {
	ImageResult
	Date string `json:"date"`
}

func (g *Gateway) handleDailyWallpaper(c *gin.Context) {
	date := time.Now().Format("2006-01-02")
	key := "daily:" + date

	var result ImageResult
	if g.cache.Get(key, &result) {
		c.Header("X-Cache", "Hit")
		c.JSON(http.StatusOK, dailyResponse{ImageResult: result, Date: date})
		return
	}

	if g.registry.Len() == 0 {
		c.JSON(http.StatusOK, dailyResponse{ImageResult: localFallbackResults(1)[0], Date: date})
		return
	}

	result = g.orch.FetchWithFallback(g.registry.ByDate(date))

	if err := g.cache.Put(key, result); err != nil {
		g.log.Println("cache write failed:", err.Error())
	}

	c.Header("X-Cache", "Miss")
	c.JSON(http.StatusOK, dailyResponse{ImageResult: result, Date: date})
}

func (g *Gateway) handleGenerateImage(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": http.StatusBadRequest, "error": "Malformed request body."})
		return
	}

	if err := g.validate.Struct(req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, fmt.Sprintf("Field '%s' is required.", err.Field()))
		}
		c.JSON(http.StatusBadRequest, gin.H{"status": http.StatusBadRequest, "error": validationErrors})
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = "anonymous"
	}

	allowed, remaining := g.quota.CheckAndIncrement(userID)
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Quota exceeded.", "message": quotaExceededMessage})
		return
	}

	key := generateCacheKey(req)

	var cached generatedImage
	if g.cache.Get(key, &cached) {
		c.JSON(http.StatusOK, gin.H{"url": cached.URL, "cached": true, "remainingImages": remaining})
		return
	}

	if !g.gen.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Image generation is not configured."})
		return
	}

	url, err := g.gen.Generate(buildPrompt(req))
	if err != nil {
		g.log.Println("generation failed:", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Image generation failed."})
		return
	}

	if err := g.cache.Put(key, generatedImage{URL: url}); err != nil {
		g.log.Println("cache write failed:", err.Error())
	}

	c.JSON(http.StatusOK, gin.H{"url": url, "cached": false, "remainingImages": remaining})
}

func (g *Gateway) statsHandler(c *gin.Context) {
	memoryBytes := getMemoryUsage()

	stats := gin.H{
		"cpu_usage": getCpuUsage(),
		"ram_usage": formatBytes(memoryBytes),

		"ram_usage_bytes": memoryBytes,

		"cache_files":   g.cache.FileCount(),
		"system_uptime": time.Since(startTime).String(),
		"go_routines":   runtime.NumGoroutine(),
	}

	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "data": stats})
}

func infoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "data": "Image gateway is running."})
}

func notFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"status": http.StatusNotFound, "error": "Route not found."})
}
