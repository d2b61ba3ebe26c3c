// Package pipeline orchestrates one end-to-end update run: feed
// registry, crawl, dedup, analysis, persistence, indexing and the
// daily report.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Starmadebydata/BestBlogs/internal/analyze"
	"github.com/Starmadebydata/BestBlogs/internal/config"
	"github.com/Starmadebydata/BestBlogs/internal/feed"
	"github.com/Starmadebydata/BestBlogs/internal/model"
	"github.com/Starmadebydata/BestBlogs/internal/report"
	"github.com/Starmadebydata/BestBlogs/internal/search"
	"github.com/Starmadebydata/BestBlogs/internal/storage"
)

// FeedSource yields the current subscription list.
type FeedSource interface {
	LoadAll() []model.Feed
}

// RunStats summarizes one update run.
type RunStats struct {
	FeedsTotal     int
	FeedsFetched   int
	FeedsFailed    int
	NewArticles    int
	Analyzed       int
	AnalysisFailed int
	ReportOutcome  report.Outcome
	Duration       time.Duration
}

// Pipeline wires the stages of an update run together. The search
// index is optional; a nil index skips indexing.
type Pipeline struct {
	source    FeedSource
	crawler   *feed.Crawler
	analyzer  *analyze.Analyzer
	generator *report.Generator
	store     *storage.Store
	index     *search.Index
	cfg       *config.Config
	log       *slog.Logger
	now       func() time.Time
}

func New(source FeedSource, crawler *feed.Crawler, analyzer *analyze.Analyzer, generator *report.Generator, store *storage.Store, index *search.Index, cfg *config.Config, log *slog.Logger) *Pipeline {
	return &Pipeline{
		source:    source,
		crawler:   crawler,
		analyzer:  analyzer,
		generator: generator,
		store:     store,
		index:     index,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// Run executes one update. Individual feed and analysis failures are
// logged and skipped; only storage errors abort the run.
func (p *Pipeline) Run(ctx context.Context) (*RunStats, error) {
	start := p.now()
	stats := &RunStats{}

	feeds, err := p.syncFeeds()
	if err != nil {
		return nil, err
	}
	stats.FeedsTotal = len(feeds)

	active := feeds[:0:0]
	for _, f := range feeds {
		if f.IsActive {
			active = append(active, f)
		}
	}

	results := p.crawler.FetchAll(ctx, active, p.cfg.Trans.Enabled)

	known, err := p.store.ArticleURLSet()
	if err != nil {
		return nil, fmt.Errorf("loading known article urls: %w", err)
	}

	var fresh []model.Article
	for _, res := range results {
		if res.Err != nil {
			stats.FeedsFailed++
			continue
		}
		stats.FeedsFetched++

		for _, a := range res.Articles {
			if _, dup := known[a.URL]; dup {
				continue
			}
			known[a.URL] = struct{}{}
			a.CreatedAt = p.now()
			a.UpdatedAt = a.CreatedAt
			fresh = append(fresh, a)
		}

		// A 304 carries no validators; keep the stored ones.
		etag, lastModified := res.Feed.ETag, res.Feed.LastModified
		if res.Meta != nil {
			etag, lastModified = res.Meta.ETag, res.Meta.LastModified
		}
		if err := p.store.MarkFeedFetched(res.Feed.ID, etag, lastModified, p.now()); err != nil {
			p.log.Warn("marking feed fetched", "feed", res.Feed.Title, "error", err)
		}
	}
	stats.NewArticles = len(fresh)
	p.log.Info("crawl finished", "fetched", stats.FeedsFetched, "failed", stats.FeedsFailed, "new", stats.NewArticles)

	p.analyzeArticles(ctx, fresh, start, stats)

	if len(fresh) > 0 {
		if err := p.store.SaveArticles(fresh); err != nil {
			return nil, fmt.Errorf("persisting articles: %w", err)
		}
	}

	if p.index != nil {
		p.refreshIndex()
	}

	if outcome, err := p.maybeGenerateReport(ctx); err != nil {
		p.log.Warn("report generation failed", "error", err)
	} else {
		stats.ReportOutcome = outcome
	}

	stats.Duration = p.now().Sub(start)
	p.log.Info("update run complete",
		"feeds", stats.FeedsTotal,
		"new", stats.NewArticles,
		"analyzed", stats.Analyzed,
		"report", string(stats.ReportOutcome),
		"took", stats.Duration)
	return stats, nil
}

// syncFeeds merges the registry against stored feeds, preserving
// conditional-GET metadata across runs, and persists the result.
func (p *Pipeline) syncFeeds() ([]model.Feed, error) {
	feeds := p.source.LoadAll()

	stored, err := p.store.LoadFeeds()
	if err != nil {
		return nil, fmt.Errorf("loading stored feeds: %w", err)
	}
	byID := make(map[string]model.Feed, len(stored))
	for _, f := range stored {
		byID[f.ID] = f
	}
	for i := range feeds {
		if prev, ok := byID[feeds[i].ID]; ok {
			feeds[i].ETag = prev.ETag
			feeds[i].LastModified = prev.LastModified
			feeds[i].LastUpdated = prev.LastUpdated
		}
	}

	if err := p.store.SaveFeeds(feeds); err != nil {
		return nil, fmt.Errorf("persisting feeds: %w", err)
	}
	return feeds, nil
}

// analyzeArticles runs the analyzer over the fresh articles in place,
// bounded by the per-run cap and the soft time budget.
func (p *Pipeline) analyzeArticles(ctx context.Context, fresh []model.Article, start time.Time, stats *RunStats) {
	if len(fresh) == 0 {
		return
	}

	maxPerRun := p.cfg.Analyze.MaxPerRun
	budget := p.cfg.Analyze.TimeBudget

	for i := range fresh {
		if stats.Analyzed+stats.AnalysisFailed >= maxPerRun {
			p.log.Info("analysis cap reached", "cap", maxPerRun)
			break
		}
		if budget > 0 && p.now().Sub(start) > budget {
			p.log.Info("analysis time budget exhausted", "budget", budget)
			break
		}

		a := &fresh[i]
		content := a.Content
		if content == "" {
			content = a.Description
		}
		result, err := p.analyzer.AnalyzeArticle(ctx, model.AnalysisRequest{
			Title:   a.Title,
			Content: content,
			URL:     a.URL,
		})
		if err != nil {
			stats.AnalysisFailed++
			p.log.Warn("article analysis failed", "title", a.Title, "error", err)
			continue
		}

		a.Summary = result.Summary
		a.KeyPoints = result.KeyPoints
		score := result.Score
		a.Score = &score
		a.Tags = result.Tags
		a.Category = result.Category
		a.Language = result.Language
		a.IsAnalyzed = true
		a.IsFeatured = score >= model.FeaturedThreshold
		a.UpdatedAt = p.now()
		stats.Analyzed++
	}
}

// refreshIndex re-indexes every analyzed article. Index failures are
// non-fatal.
func (p *Pipeline) refreshIndex() {
	articles, err := p.store.LoadArticles()
	if err != nil {
		p.log.Warn("loading articles for indexing", "error", err)
		return
	}
	analyzed := articles[:0:0]
	for _, a := range articles {
		if a.IsAnalyzed {
			analyzed = append(analyzed, a)
		}
	}
	if len(analyzed) == 0 {
		return
	}
	if err := p.index.IndexArticles(analyzed); err != nil {
		p.log.Warn("indexing articles", "error", err)
		return
	}
	p.log.Debug("search index refreshed", "articles", len(analyzed))
}

// maybeGenerateReport builds today's report once enough articles from
// the current day have been analyzed.
func (p *Pipeline) maybeGenerateReport(ctx context.Context) (report.Outcome, error) {
	date := p.now().Format("2006-01-02")

	articles, err := p.store.LoadArticles()
	if err != nil {
		return "", fmt.Errorf("loading articles for report: %w", err)
	}

	var todays []model.Article
	analyzedToday := 0
	for _, a := range articles {
		if a.CreatedAt.Format("2006-01-02") != date {
			continue
		}
		todays = append(todays, a)
		if a.IsAnalyzed {
			analyzedToday++
		}
	}

	if analyzedToday < p.cfg.Report.MinAnalyzed {
		p.log.Info("not enough analyzed articles for report", "analyzed", analyzedToday, "required", p.cfg.Report.MinAnalyzed)
		return report.Skipped, nil
	}

	_, outcome, err := p.generator.Generate(ctx, todays, date)
	return outcome, err
}

// GenerateReport forces report generation for the given date from all
// articles created that day, bypassing the minimum-analyzed gate.
func (p *Pipeline) GenerateReport(ctx context.Context, date string) (*model.DailyReport, report.Outcome, error) {
	articles, err := p.store.LoadArticles()
	if err != nil {
		return nil, "", fmt.Errorf("loading articles for report: %w", err)
	}
	var todays []model.Article
	for _, a := range articles {
		if a.CreatedAt.Format("2006-01-02") == date {
			todays = append(todays, a)
		}
	}
	return p.generator.Generate(ctx, todays, date)
}
