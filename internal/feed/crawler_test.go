package feed

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Starmadebydata/BestBlogs/internal/config"
	"github.com/Starmadebydata/BestBlogs/internal/model"
)

func crawlerConfig() config.FeedsConfig {
	return config.FeedsConfig{
		HTTPTimeout:     5 * time.Second,
		UserAgent:       "windflash-test/1.0",
		MaxItems:        10,
		BatchSize:       5,
		TransBatchSize:  2,
		BatchInterval:   time.Millisecond,
		TransBatchPause: time.Millisecond,
	}
}

func feedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func feedFor(url, title string) model.Feed {
	return model.Feed{
		ID:       model.EncodeID(url),
		Title:    title,
		XMLURL:   url,
		Category: model.CategoryArticles,
		IsActive: true,
	}
}

func TestCrawler_FetchFeedArticles(t *testing.T) {
	srv := feedServer(t, rssWithItems(3))
	c := NewCrawler(crawlerConfig(), nil, slog.Default())

	articles, meta, err := c.FetchFeedArticles(context.Background(), feedFor(srv.URL, "A"), false)
	require.NoError(t, err)
	assert.Len(t, articles, 3)
	require.NotNil(t, meta)
}

func TestCrawler_FetchAll(t *testing.T) {
	good := feedServer(t, rssWithItems(3))
	alsoGood := feedServer(t, rssWithItems(2))
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(broken.Close)

	feeds := []model.Feed{
		feedFor(good.URL, "Good"),
		feedFor(broken.URL, "Broken"),
		feedFor(alsoGood.URL, "Also Good"),
	}

	c := NewCrawler(crawlerConfig(), nil, slog.Default())
	results := c.FetchAll(context.Background(), feeds, false)

	require.Len(t, results, 3)
	assert.Equal(t, "Good", results[0].Feed.Title)
	assert.Len(t, results[0].Articles, 3)
	assert.NoError(t, results[0].Err)

	// The broken feed fails alone; siblings in the batch are unaffected.
	assert.Error(t, results[1].Err)
	assert.Empty(t, results[1].Articles)

	assert.Len(t, results[2].Articles, 2)
	assert.NoError(t, results[2].Err)
}

func TestCrawler_FetchAll_BatchConcurrency(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()

		_, _ = w.Write([]byte(rssWithItems(1)))
	}))
	t.Cleanup(srv.Close)

	cfg := crawlerConfig()
	cfg.BatchSize = 2
	c := NewCrawler(cfg, nil, slog.Default())

	feeds := make([]model.Feed, 6)
	for i := range feeds {
		feeds[i] = feedFor(srv.URL+"/"+string(rune('a'+i)), "F")
	}

	results := c.FetchAll(context.Background(), feeds, false)
	require.Len(t, results, 6)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, 2, "no more than one batch in flight")
	assert.GreaterOrEqual(t, peak, 2, "fetches within a batch run concurrently")
}

func TestCrawler_FetchAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCrawler(crawlerConfig(), nil, slog.Default())
	results := c.FetchAll(ctx, []model.Feed{feedFor("https://example.com/rss", "F")}, false)

	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}
