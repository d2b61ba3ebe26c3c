package feed

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/Starmadebydata/BestBlogs/internal/config"
	"github.com/Starmadebydata/BestBlogs/internal/model"
)

// FetchResult is the outcome of one feed's fetch within a run.
type FetchResult struct {
	Feed     model.Feed
	Articles []model.Article
	Meta     *FetchMeta
	Err      error
}

// Crawler fetches all feeds in fixed-size batches. Fetches inside a
// batch run concurrently and all settle before the next batch starts;
// batches are paced by a token bucket. Translation halves throughput,
// so batches shrink and pauses grow when it is enabled.
type Crawler struct {
	fetcher    *Fetcher
	translator ArticleTranslator
	cfg        config.FeedsConfig
	log        *slog.Logger
}

func NewCrawler(cfg config.FeedsConfig, translator ArticleTranslator, log *slog.Logger) *Crawler {
	return &Crawler{
		fetcher:    NewFetcher(cfg.HTTPTimeout, cfg.UserAgent),
		translator: translator,
		cfg:        cfg,
		log:        log,
	}
}

// FetchFeedArticles fetches one feed and converts its items. A fetch
// failure returns zero articles and the error; a 304 returns zero
// articles and no error.
func (c *Crawler) FetchFeedArticles(ctx context.Context, feed model.Feed, translationEnabled bool) ([]model.Article, *FetchMeta, error) {
	parsed, meta, err := c.fetcher.Fetch(ctx, &feed)
	if err != nil {
		return nil, nil, err
	}
	if parsed == nil {
		return nil, nil, nil
	}

	var tr ArticleTranslator
	if translationEnabled {
		tr = c.translator
	}
	return itemsToArticles(ctx, feed, parsed, c.cfg.MaxItems, tr, c.log), meta, nil
}

// FetchAll fetches every feed, returning a result per feed in input
// order. One feed's failure never aborts its batch or the run.
func (c *Crawler) FetchAll(ctx context.Context, feeds []model.Feed, translationEnabled bool) []FetchResult {
	batchSize := c.cfg.BatchSize
	interval := c.cfg.BatchInterval
	if translationEnabled {
		batchSize = c.cfg.TransBatchSize
		interval = c.cfg.TransBatchPause
	}
	if batchSize <= 0 {
		batchSize = 1
	}

	c.log.Info("fetching feeds", "count", len(feeds), "batch_size", batchSize, "translation", translationEnabled)

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	results := make([]FetchResult, len(feeds))

	for start := 0; start < len(feeds); start += batchSize {
		if err := limiter.Wait(ctx); err != nil {
			c.log.Warn("crawl interrupted", "fetched", start, "error", err)
			for i := start; i < len(feeds); i++ {
				results[i] = FetchResult{Feed: feeds[i], Err: err}
			}
			return results
		}

		end := start + batchSize
		if end > len(feeds) {
			end = len(feeds)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				articles, meta, err := c.FetchFeedArticles(ctx, feeds[i], translationEnabled)
				results[i] = FetchResult{Feed: feeds[i], Articles: articles, Meta: meta, Err: err}
			}(i)
		}
		wg.Wait()

		for i := start; i < end; i++ {
			if results[i].Err != nil {
				c.log.Warn("feed fetch failed", "title", results[i].Feed.Title, "url", results[i].Feed.XMLURL, "error", results[i].Err)
			} else {
				c.log.Debug("feed fetched", "title", results[i].Feed.Title, "articles", len(results[i].Articles))
			}
		}
	}

	return results
}
