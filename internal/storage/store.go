// Package storage persists feeds, articles and reports in a bbolt
// database, one bucket per entity type with JSON values keyed by entity
// id. Queries scan the full collection; the data set is small enough
// that no secondary indexes are kept.
package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Starmadebydata/BestBlogs/internal/model"
)

var (
	feedsBucket    = []byte("feeds")
	articlesBucket = []byte("articles")
	reportsBucket  = []byte("reports")
)

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{feedsBucket, articlesBucket, reportsBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func putJSON(b *bolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}

// --- Feeds ---

// SaveFeeds overwrites every given feed record.
func (s *Store) SaveFeeds(feeds []model.Feed) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(feedsBucket)
		for _, feed := range feeds {
			if err := putJSON(b, feed.ID, feed); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadFeeds returns all feeds sorted by title. An empty store yields an
// empty list, never an error.
func (s *Store) LoadFeeds() ([]model.Feed, error) {
	var feeds []model.Feed
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(feedsBucket).ForEach(func(_, v []byte) error {
			var feed model.Feed
			if err := json.Unmarshal(v, &feed); err != nil {
				return err
			}
			feeds = append(feeds, feed)
			return nil
		})
	})
	sort.Slice(feeds, func(i, j int) bool {
		return feeds[i].Title < feeds[j].Title
	})
	return feeds, err
}

// UpdateFeedsWhere applies update to every feed matching pred, in one
// transaction. Matches are collected before any write because bbolt
// forbids mutating a bucket mid-iteration.
func (s *Store) UpdateFeedsWhere(pred func(model.Feed) bool, update func(*model.Feed)) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(feedsBucket)
		var matched []model.Feed
		err := b.ForEach(func(_, v []byte) error {
			var feed model.Feed
			if err := json.Unmarshal(v, &feed); err != nil {
				return err
			}
			if pred(feed) {
				matched = append(matched, feed)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for i := range matched {
			update(&matched[i])
			if err := putJSON(b, matched[i].ID, matched[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// MarkFeedFetched records a successful fetch cycle for the feed.
func (s *Store) MarkFeedFetched(feedID, etag, lastModified string, at time.Time) error {
	return s.UpdateFeedsWhere(
		func(f model.Feed) bool { return f.ID == feedID },
		func(f *model.Feed) {
			f.LastUpdated = &at
			if etag != "" {
				f.ETag = etag
			}
			if lastModified != "" {
				f.LastModified = lastModified
			}
		},
	)
}

// --- Articles ---

// SaveArticles overwrites every given article record.
func (s *Store) SaveArticles(articles []model.Article) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(articlesBucket)
		for _, a := range articles {
			if err := putJSON(b, a.ID, a); err != nil {
				return err
			}
		}
		return nil
	})
}

// AppendArticle stores one article. Keyed by derived id, so re-appending
// the same URL overwrites rather than duplicates.
func (s *Store) AppendArticle(a model.Article) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(articlesBucket), a.ID, a)
	})
}

// LoadArticles returns all articles, newest first.
func (s *Store) LoadArticles() ([]model.Article, error) {
	var articles []model.Article
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(articlesBucket).ForEach(func(_, v []byte) error {
			var a model.Article
			if err := json.Unmarshal(v, &a); err != nil {
				return err
			}
			articles = append(articles, a)
			return nil
		})
	})
	sort.Slice(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	return articles, err
}

// UpdateArticlesWhere applies update to every article matching pred.
// UpdatedAt is bumped on each touched record.
func (s *Store) UpdateArticlesWhere(pred func(model.Article) bool, update func(*model.Article)) error {
	now := time.Now()
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(articlesBucket)
		var matched []model.Article
		err := b.ForEach(func(_, v []byte) error {
			var a model.Article
			if err := json.Unmarshal(v, &a); err != nil {
				return err
			}
			if pred(a) {
				matched = append(matched, a)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for i := range matched {
			update(&matched[i])
			matched[i].UpdatedAt = now
			if err := putJSON(b, matched[i].ID, matched[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// ArticleURLSet returns the set of stored article URLs, the sole dedup
// key for ingestion.
func (s *Store) ArticleURLSet() (map[string]struct{}, error) {
	urls := make(map[string]struct{})
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(articlesBucket).ForEach(func(_, v []byte) error {
			var a model.Article
			if err := json.Unmarshal(v, &a); err != nil {
				return err
			}
			urls[a.URL] = struct{}{}
			return nil
		})
	})
	return urls, err
}

// RecentArticles returns articles published within the last days days,
// newest first, capped at limit (0 = unlimited).
func (s *Store) RecentArticles(days, limit int) ([]model.Article, error) {
	articles, err := s.LoadArticles()
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	var recent []model.Article
	for _, a := range articles {
		if !a.PublishedAt.Before(cutoff) {
			recent = append(recent, a)
		}
	}
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	return recent, nil
}

// ArticlesByCategory returns articles of one analyzed category, newest
// first, capped at limit.
func (s *Store) ArticlesByCategory(category string, limit int) ([]model.Article, error) {
	articles, err := s.LoadArticles()
	if err != nil {
		return nil, err
	}

	var matched []model.Article
	for _, a := range articles {
		if a.Category == category {
			matched = append(matched, a)
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// FeaturedArticles returns featured articles sorted by score descending.
func (s *Store) FeaturedArticles(limit int) ([]model.Article, error) {
	articles, err := s.LoadArticles()
	if err != nil {
		return nil, err
	}

	var featured []model.Article
	for _, a := range articles {
		if a.IsFeatured {
			featured = append(featured, a)
		}
	}
	sort.Slice(featured, func(i, j int) bool {
		return featured[i].ScoreValue() > featured[j].ScoreValue()
	})
	if limit > 0 && len(featured) > limit {
		featured = featured[:limit]
	}
	return featured, nil
}

// --- Reports ---

// AppendReport stores one daily report.
func (s *Store) AppendReport(r *model.DailyReport) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(reportsBucket), r.ID, r)
	})
}

// ReportByDate returns the report for a date, or nil when none exists.
func (s *Store) ReportByDate(date string) (*model.DailyReport, error) {
	var found *model.DailyReport
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(reportsBucket).ForEach(func(_, v []byte) error {
			var r model.DailyReport
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			if r.Date == date {
				found = &r
			}
			return nil
		})
	})
	return found, err
}

// RecentReports returns reports sorted by date descending, capped at
// limit.
func (s *Store) RecentReports(limit int) ([]model.DailyReport, error) {
	var reports []model.DailyReport
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(reportsBucket).ForEach(func(_, v []byte) error {
			var r model.DailyReport
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			reports = append(reports, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Date > reports[j].Date
	})
	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}

// Stats summarizes the store contents.
func (s *Store) Stats() (*model.Stats, error) {
	feeds, err := s.LoadFeeds()
	if err != nil {
		return nil, err
	}
	articles, err := s.LoadArticles()
	if err != nil {
		return nil, err
	}
	reports, err := s.RecentReports(0)
	if err != nil {
		return nil, err
	}

	stats := &model.Stats{
		TotalArticles: len(articles),
		TotalReports:  len(reports),
		TotalFeeds:    len(feeds),
	}
	for _, a := range articles {
		if a.IsAnalyzed {
			stats.AnalyzedArticles++
		}
		if a.IsFeatured {
			stats.FeaturedArticles++
		}
	}
	for _, f := range feeds {
		if f.IsActive {
			stats.ActiveFeeds++
		}
	}
	return stats, nil
}
