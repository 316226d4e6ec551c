package main

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	primaryTimeout  = 5 * time.Second
	fallbackTimeout = 3 * time.Second

	// Several free providers reject requests without a browser UA.
	desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// upstreamError marks a failed fetch against one provider, keeping the
// source name next to the underlying cause.
type upstreamError struct {
	Source string
	Err    error
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Source, e.Err)
}

func (e *upstreamError) Unwrap() error {
	return e.Err
}

// Fetcher performs a single bounded-timeout GET against one provider
// and applies its extraction rule. Retry and fallback live in the
// Orchestrator, not here.
type Fetcher struct{}

func NewFetcher() *Fetcher {
	return &Fetcher{}
}

func (f *Fetcher) Fetch(source SourceDescriptor, timeout time.Duration) (ImageResult, error) {
	req, err := http.NewRequest(http.MethodGet, source.Endpoint, nil)
	if err != nil {
		return ImageResult{}, &upstreamError{Source: source.Name, Err: err}
	}
	req.Header.Set("User-Agent", desktopUserAgent)

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return ImageResult{}, &upstreamError{Source: source.Name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ImageResult{}, &upstreamError{Source: source.Name, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ImageResult{}, &upstreamError{Source: source.Name, Err: fmt.Errorf("read body: %w", err)}
	}

	ext, err := source.Extract(raw)
	if err != nil {
		return ImageResult{}, &upstreamError{Source: source.Name, Err: fmt.Errorf("extract: %w", err)}
	}

	return ImageResult{
		ID:         newResultID(source.Name),
		Title:      ext.Title,
		ImageURL:   ext.URL,
		Author:     ext.Author,
		SourceName: source.Name,
	}, nil
}
