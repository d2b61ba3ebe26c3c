// Package model defines the domain types shared across the pipeline.
package model

import (
	"encoding/base64"
	"time"
)

// FeedCategory identifies which subscription list a feed came from.
type FeedCategory string

// Known feed categories, one per OPML document.
const (
	CategoryArticles FeedCategory = "articles"
	CategoryPodcasts FeedCategory = "podcasts"
	CategoryTwitter  FeedCategory = "twitter"
)

// Language codes used by the detection heuristic.
const (
	LangChinese = "zh"
	LangEnglish = "en"
)

// Scoring thresholds applied after AI analysis.
const (
	// FeaturedThreshold marks an article as featured at analysis time.
	FeaturedThreshold = 85
	// QualityThreshold is the minimum score for inclusion in a daily report.
	QualityThreshold = 70
)

// DefaultCategory receives articles whose analyzed category does not
// match any known report category.
const DefaultCategory = "行业洞察"

// ReportCategories is the fixed set of section categories for daily reports.
var ReportCategories = []string{
	"AI最新动态",
	"Vibe Coding",
	"AI自媒体",
	"编程技术",
	"产品设计",
	"商业科技",
	"创业投资",
	"开发工具",
	"行业洞察",
	"技术教程",
}

// Feed is a single RSS/Atom subscription source.
type Feed struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	XMLURL      string       `json:"xmlUrl"`
	Category    FeedCategory `json:"category"`
	IsActive    bool         `json:"isActive"`
	LastUpdated *time.Time   `json:"lastUpdated,omitempty"`

	// Conditional-GET metadata from the last successful fetch.
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"lastModified,omitempty"`
}

// Article is one ingested feed item, optionally enriched by translation
// and AI analysis. Analysis fields stay absent until the analyzer has
// processed the article; every reader must tolerate their absence.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Content     string    `json:"content,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
	Author      string    `json:"author,omitempty"`
	FeedID      string    `json:"feedId"`
	FeedTitle   string    `json:"feedTitle"`

	IsTranslated        bool   `json:"isTranslated,omitempty"`
	OriginalTitle       string `json:"originalTitle,omitempty"`
	OriginalDescription string `json:"originalDescription,omitempty"`

	Summary   string   `json:"summary,omitempty"`
	KeyPoints []string `json:"keyPoints,omitempty"`
	Score     *int     `json:"score,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Category  string   `json:"category,omitempty"`
	Language  string   `json:"language"`

	IsAnalyzed bool      `json:"isAnalyzed"`
	IsFeatured bool      `json:"isFeatured"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ScoreValue returns the analyzed score, or 0 when the article has not
// been analyzed yet.
func (a *Article) ScoreValue() int {
	if a.Score == nil {
		return 0
	}
	return *a.Score
}

// DailyReportSection groups one category's articles inside a report.
// Sections exist only embedded in a DailyReport.
type DailyReportSection struct {
	Category      string    `json:"category"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Articles      []Article `json:"articles"`
	Highlights    []string  `json:"highlights"`
	TrendAnalysis string    `json:"trendAnalysis,omitempty"`
}

// DailyReport is the aggregate document for one date. At most one
// report exists per date.
type DailyReport struct {
	ID              string               `json:"id"`
	Date            string               `json:"date"` // YYYY-MM-DD
	Title           string               `json:"title"`
	Summary         string               `json:"summary"`
	Sections        []DailyReportSection `json:"sections"`
	TotalArticles   int                  `json:"totalArticles"`
	AnalyzedCount   int                  `json:"analyzedCount,omitempty"`
	TranslatedCount int                  `json:"translatedCount,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	GenerationTime  time.Duration        `json:"generationTime,omitempty"`
}

// AnalysisRequest carries the article fields sent to the analyzer.
type AnalysisRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// AnalysisResult is the structured output of one analyzer call.
type AnalysisResult struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"keyPoints"`
	Score     int      `json:"score"`
	Tags      []string `json:"tags"`
	Category  string   `json:"category"`
	Language  string   `json:"language"`
}

// Stats summarizes the current contents of the store.
type Stats struct {
	TotalArticles    int `json:"totalArticles"`
	AnalyzedArticles int `json:"analyzedArticles"`
	FeaturedArticles int `json:"featuredArticles"`
	TotalReports     int `json:"totalReports"`
	TotalFeeds       int `json:"totalFeeds"`
	ActiveFeeds      int `json:"activeFeeds"`
}

// EncodeID derives an entity id from a URL. The encoding is reversible,
// so distinct URLs can never collide.
func EncodeID(url string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(url))
}

// DecodeID recovers the URL an id was derived from.
func DecodeID(id string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(id)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DetectLanguage classifies text as Chinese if it contains any CJK
// ideograph, English otherwise.
func DetectLanguage(text string) string {
	for _, r := range text {
		if r >= 0x4e00 && r <= 0x9fff {
			return LangChinese
		}
	}
	return LangEnglish
}

// NeedsTranslation reports whether text is not already in the target language.
func NeedsTranslation(text, target string) bool {
	return DetectLanguage(text) != target
}

// KnownCategory reports whether c is one of the fixed report categories.
func KnownCategory(c string) bool {
	for _, known := range ReportCategories {
		if c == known {
			return true
		}
	}
	return false
}
