// Package search maintains a full-text index over stored articles.
package search

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/Starmadebydata/BestBlogs/internal/model"
)

// Result is one search hit with enough stored fields to render a list
// entry without a store round-trip.
type Result struct {
	ArticleID string
	Title     string
	Summary   string
	Category  string
	URL       string
	Score     float64
}

// Searcher is the query surface consumed by the CLI.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// Index wraps a bleve index over articles.
type Index struct {
	idx bleve.Index
}

// Open opens the index at indexPath, creating it if absent.
func Open(indexPath string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, err
	}
	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, err
		}
	}
	return &Index{idx: idx}, nil
}

// OpenInMemory builds a transient index, used in tests.
func OpenInMemory() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, err
	}
	return &Index{idx: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true

	summary := bleve.NewTextFieldMapping()
	summary.Analyzer = standard.Name
	summary.Store = true

	tags := bleve.NewTextFieldMapping()
	tags.Analyzer = standard.Name
	tags.Store = false

	category := bleve.NewTextFieldMapping()
	category.Analyzer = standard.Name
	category.Store = true

	url := bleve.NewTextFieldMapping()
	url.Analyzer = standard.Name
	url.Store = true

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("summary", summary)
	dm.AddFieldMappingsAt("tags", tags)
	dm.AddFieldMappingsAt("category", category)
	dm.AddFieldMappingsAt("url", url)

	im.DefaultMapping = dm
	return im
}

// IndexArticles upserts the given articles in one batch. Re-indexing
// the same ids replaces the previous documents.
func (x *Index) IndexArticles(articles []model.Article) error {
	batch := x.idx.NewBatch()
	for _, a := range articles {
		doc := map[string]any{
			"title":    a.Title,
			"summary":  a.Summary,
			"category": a.Category,
			"url":      a.URL,
		}
		if len(a.Tags) > 0 {
			doc["tags"] = strings.Join(a.Tags, " ")
		}
		if err := batch.Index(a.ID, doc); err != nil {
			return err
		}
	}
	return x.idx.Batch(batch)
}

// Search runs a boosted disjunction of match and prefix queries across
// the indexed fields. Queries shorter than two characters match nothing.
func (x *Index) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}
	var qs []bleveQuery.Query
	for _, tok := range strings.Fields(strings.TrimSpace(query)) {
		qt := bleve.NewMatchQuery(tok)
		qt.SetField("title")
		qt.SetBoost(4.0)
		qs = append(qs, qt)
		qtp := bleve.NewPrefixQuery(strings.ToLower(tok))
		qtp.SetField("title")
		qtp.SetBoost(3.5)
		qs = append(qs, qtp)

		qsum := bleve.NewMatchQuery(tok)
		qsum.SetField("summary")
		qsum.SetBoost(2.0)
		qs = append(qs, qsum)

		qtag := bleve.NewMatchQuery(tok)
		qtag.SetField("tags")
		qtag.SetBoost(1.5)
		qs = append(qs, qtag)

		qc := bleve.NewMatchQuery(tok)
		qc.SetField("category")
		qc.SetBoost(1.0)
		qs = append(qs, qc)
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	srch := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	srch.Fields = []string{"title", "summary", "category", "url"}
	res, err := x.idx.Search(srch)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		r := &Result{ArticleID: h.ID, Score: h.Score}
		if t, ok := h.Fields["title"].(string); ok {
			r.Title = t
		}
		if s, ok := h.Fields["summary"].(string); ok {
			r.Summary = s
		}
		if c, ok := h.Fields["category"].(string); ok {
			r.Category = c
		}
		if u, ok := h.Fields["url"].(string); ok {
			r.URL = u
		}
		out = append(out, r)
	}
	return out, nil
}

// DocCount reports the number of indexed articles.
func (x *Index) DocCount() (uint64, error) {
	return x.idx.DocCount()
}

// Close releases the underlying index.
func (x *Index) Close() error {
	return x.idx.Close()
}
