package feed

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/Starmadebydata/BestBlogs/internal/model"
	"github.com/Starmadebydata/BestBlogs/internal/translate"
)

// ArticleTranslator translates one article's text bundle to Chinese.
type ArticleTranslator interface {
	TranslateArticle(ctx context.Context, b translate.Bundle) (*translate.BundleResult, error)
}

func itemDescription(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Content
}

func itemAuthor(item *gofeed.Item) string {
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		return item.Authors[0].Name
	}
	if item.Author != nil {
		return item.Author.Name
	}
	return ""
}

func itemPublished(item *gofeed.Item, fallback time.Time) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return fallback
}

// itemsToArticles converts the most recent feed items into articles.
// Items missing a title or link are skipped. When a translator is given,
// non-Chinese titles and descriptions are translated; a failed
// translation keeps the originals.
func itemsToArticles(ctx context.Context, feed model.Feed, parsed *gofeed.Feed, maxItems int, tr ArticleTranslator, log *slog.Logger) []model.Article {
	now := time.Now()

	items := make([]*gofeed.Item, len(parsed.Items))
	copy(items, parsed.Items)
	sort.SliceStable(items, func(i, j int) bool {
		return itemPublished(items[i], now).After(itemPublished(items[j], now))
	})
	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}

	var articles []model.Article
	for _, item := range items {
		if item.Title == "" || item.Link == "" {
			continue
		}

		title := item.Title
		description := itemDescription(item)
		isTranslated := false

		if tr != nil &&
			(model.NeedsTranslation(title, model.LangChinese) || model.NeedsTranslation(description, model.LangChinese)) {
			res, err := tr.TranslateArticle(ctx, translate.Bundle{Title: title, Content: description})
			if err != nil {
				log.Warn("translation failed, keeping original", "title", title, "error", err)
			} else if res.IsTranslated {
				title = res.Title
				description = res.Content
				isTranslated = true
			}
		}

		language := model.LangChinese
		if !isTranslated {
			language = model.DetectLanguage(item.Title + " " + itemDescription(item))
		}

		article := model.Article{
			ID:          model.EncodeID(item.Link),
			Title:       title,
			URL:         item.Link,
			Description: description,
			PublishedAt: itemPublished(item, now),
			Author:      itemAuthor(item),
			FeedID:      feed.ID,
			FeedTitle:   feed.Title,
			Language:    language,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if isTranslated {
			article.IsTranslated = true
			article.OriginalTitle = item.Title
			article.OriginalDescription = itemDescription(item)
		}

		articles = append(articles, article)
	}

	return articles
}
