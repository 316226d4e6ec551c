package main

import (
	"log"
	"os"
)

const placeholderImagePath = "/assets/placeholder.jpg"

// placeholderResult is returned when both the primary source and its
// fallback fail, so callers always receive something renderable.
func placeholderResult() ImageResult {
	return ImageResult{
		ID:       newResultID("placeholder"),
		Title:    "获取图片失败",
		ImageURL: placeholderImagePath,
		Author:   "系统",
	}
}

// Orchestrator wraps the Fetcher with one bounded fallback: a failed
// fetch gets exactly one retry against a different random source with
// a shorter timeout, then degrades to the placeholder. It never
// returns an error.
type Orchestrator struct {
	registry *Registry
	fetcher  *Fetcher
	log      *log.Logger
}

func NewOrchestrator(registry *Registry, fetcher *Fetcher) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		fetcher:  fetcher,
		log:      log.New(os.Stderr, "(fallback) ", log.LstdFlags),
	}
}

func (o *Orchestrator) FetchWithFallback(source SourceDescriptor) ImageResult {
	res, err := o.fetcher.Fetch(source, primaryTimeout)
	if err == nil {
		return res
	}
	o.log.Println("primary fetch failed:", err.Error())

	alt, ok := o.registry.PickOther(source.Name)
	if !ok {
		return placeholderResult()
	}

	res, err = o.fetcher.Fetch(alt, fallbackTimeout)
	if err == nil {
		return res
	}
	o.log.Println("fallback fetch failed:", err.Error())

	return placeholderResult()
}
