// Package feed downloads subscription feeds and turns their items into
// articles.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/Starmadebydata/BestBlogs/internal/model"
)

const maxBodyBytes = 5 * 1024 * 1024

// FetchMeta carries the conditional-GET headers of a successful fetch.
type FetchMeta struct {
	ETag         string
	LastModified string
}

// Fetcher downloads and parses one feed at a time.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch retrieves and parses the feed. A 304 Not Modified yields
// (nil, nil, nil); the caller treats it as zero new items.
func (f *Fetcher) Fetch(ctx context.Context, feed *model.Feed) (*gofeed.Feed, *FetchMeta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.XMLURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")
	if feed.ETag != "" {
		req.Header.Set("If-None-Match", feed.ETag)
	}
	if feed.LastModified != "" {
		req.Header.Set("If-Modified-Since", feed.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotModified {
		return nil, nil, nil
	}
	if resp.StatusCode >= 400 {
		return nil, nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("reading response: %w", err)
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing feed: %w", err)
	}

	meta := &FetchMeta{
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}
	return parsed, meta, nil
}
