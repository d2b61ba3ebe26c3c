// Package opml loads feed subscriptions from OPML documents.
package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Starmadebydata/BestBlogs/internal/config"
	"github.com/Starmadebydata/BestBlogs/internal/model"
	"github.com/Starmadebydata/BestBlogs/internal/validation"
)

type document struct {
	XMLName xml.Name  `xml:"opml"`
	Body    body      `xml:"body"`
}

type body struct {
	Outlines []outline `xml:"outline"`
}

type outline struct {
	Text     string    `xml:"text,attr"`
	XMLURL   string    `xml:"xmlUrl,attr"`
	Children []outline `xml:"outline"`
}

// Parse extracts feeds from one OPML document. Only outline elements
// carrying both text and xmlUrl attributes produce a feed; grouping
// outlines are walked for nested entries.
func Parse(r io.Reader, category model.FeedCategory) ([]model.Feed, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding opml: %w", err)
	}

	var feeds []model.Feed
	var walk func(outlines []outline)
	walk = func(outlines []outline) {
		for _, o := range outlines {
			title := strings.TrimSpace(o.Text)
			rawURL := strings.TrimSpace(o.XMLURL)
			if title != "" && rawURL != "" {
				if url, err := validation.FeedURL(rawURL); err != nil {
					slog.Warn("skipping invalid feed URL", "title", title, "url", rawURL, "error", err)
				} else {
					feeds = append(feeds, model.Feed{
						ID:       model.EncodeID(url),
						Title:    title,
						XMLURL:   url,
						Category: category,
						IsActive: true,
					})
				}
			}
			walk(o.Children)
		}
	}
	walk(doc.Body.Outlines)

	return feeds, nil
}

// Registry loads the configured subscription lists.
type Registry struct {
	docs []config.OPMLDocument
	log  *slog.Logger
}

func NewRegistry(docs []config.OPMLDocument, log *slog.Logger) *Registry {
	return &Registry{docs: docs, log: log}
}

// LoadAll reads every configured OPML document. A missing or malformed
// document contributes zero feeds and a warning; it never aborts the
// load. When the same URL appears in more than one list the first
// occurrence wins and later ones are skipped.
func (r *Registry) LoadAll() []model.Feed {
	var all []model.Feed
	seen := make(map[string]struct{})

	for _, doc := range r.docs {
		f, err := os.Open(doc.Path)
		if err != nil {
			r.log.Warn("opml document unavailable", "path", doc.Path, "error", err)
			continue
		}

		feeds, err := Parse(f, model.FeedCategory(doc.Category))
		_ = f.Close()
		if err != nil {
			r.log.Warn("opml document malformed", "path", doc.Path, "error", err)
			continue
		}

		for _, feed := range feeds {
			if _, dup := seen[feed.ID]; dup {
				r.log.Warn("duplicate feed URL, keeping first", "title", feed.Title, "url", feed.XMLURL)
				continue
			}
			seen[feed.ID] = struct{}{}
			all = append(all, feed)
		}

		r.log.Info("loaded opml document", "path", doc.Path, "feeds", len(feeds))
	}

	return all
}
