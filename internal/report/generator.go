// Package report assembles the daily report from analyzed articles.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Starmadebydata/BestBlogs/internal/llm"
	"github.com/Starmadebydata/BestBlogs/internal/model"
)

// Outcome is the terminal state of one generation run.
type Outcome string

const (
	// Completed means a new report was generated and persisted.
	Completed Outcome = "completed"
	// AlreadyExists means a report for the date was already stored.
	AlreadyExists Outcome = "already_exists"
	// Skipped means no qualifying articles were available.
	Skipped Outcome = "skipped"
)

// Store is the persistence surface the generator needs.
type Store interface {
	ReportByDate(date string) (*model.DailyReport, error)
	AppendReport(r *model.DailyReport) error
}

var categoryTitles = map[string]string{
	"AI最新动态":      "🤖 AI最新动态",
	"Vibe Coding": "💻 Vibe Coding",
	"AI自媒体":       "📱 AI自媒体",
	"编程技术":        "🛠️ 编程技术",
	"产品设计":        "🎨 产品设计",
	"商业科技":        "💼 商业科技",
	"创业投资":        "🚀 创业投资",
	"开发工具":        "🔧 开发工具",
	"行业洞察":        "📊 行业洞察",
	"技术教程":        "📚 技术教程",
}

var categoryDescriptions = map[string]string{
	"AI最新动态":      "最新的AI模型发布、研究突破和行业动向",
	"Vibe Coding": "有趣的编程文化、开发者生活方式和酷炫技术内容",
	"AI自媒体":       "AI在内容创作、社交媒体和数字营销领域的应用",
	"编程技术":        "编程技巧、框架应用和语言特性深度解析",
	"产品设计":        "产品设计理念、用户体验和设计系统最佳实践",
	"商业科技":        "企业技术解决方案和商业创新模式",
	"创业投资":        "创业公司动态、投资趋势和商业机会分析",
	"开发工具":        "提升开发效率的工具、IDE和生产力解决方案",
	"行业洞察":        "科技行业趋势分析、市场动态和前沿观点",
	"技术教程":        "实用的技术教程、操作指南和学习资源",
}

// Generator builds daily reports. Every LLM call is individually
// fault-tolerant: a failure substitutes deterministic fallback text, so
// a full LLM outage degrades quality but never blocks generation.
type Generator struct {
	llm          llm.Completer
	store        Store
	sectionLimit int
	log          *slog.Logger
	now          func() time.Time
}

func NewGenerator(completer llm.Completer, store Store, sectionLimit int, log *slog.Logger) *Generator {
	if sectionLimit <= 0 {
		sectionLimit = 5
	}
	return &Generator{
		llm:          completer,
		store:        store,
		sectionLimit: sectionLimit,
		log:          log,
		now:          time.Now,
	}
}

// Generate produces the report for date from the given articles.
// Generation is idempotent by date: an existing report is returned
// unchanged.
func (g *Generator) Generate(ctx context.Context, articles []model.Article, date string) (*model.DailyReport, Outcome, error) {
	existing, err := g.store.ReportByDate(date)
	if err != nil {
		return nil, "", fmt.Errorf("checking existing report: %w", err)
	}
	if existing != nil {
		g.log.Info("report already exists", "date", date)
		return existing, AlreadyExists, nil
	}

	start := g.now()

	quality := filterQuality(articles)
	if len(quality) == 0 {
		g.log.Info("no qualifying articles for report", "date", date, "total", len(articles))
		return nil, Skipped, nil
	}

	groups := groupByCategory(quality)

	var sections []model.DailyReportSection
	for _, category := range model.ReportCategories {
		group := groups[category]
		if len(group) == 0 {
			continue
		}
		if len(group) > g.sectionLimit {
			group = group[:g.sectionLimit]
		}

		highlights, trend := g.analyzeSection(ctx, category, group)
		sections = append(sections, model.DailyReportSection{
			Category:      category,
			Title:         categoryTitles[category],
			Description:   categoryDescriptions[category],
			Articles:      group,
			Highlights:    highlights,
			TrendAnalysis: trend,
		})
	}

	analyzedCount, translatedCount := 0, 0
	for _, a := range articles {
		if a.IsAnalyzed {
			analyzedCount++
		}
		if a.IsTranslated {
			translatedCount++
		}
	}

	reportTime := g.now()
	rep := &model.DailyReport{
		ID:              "daily-" + date,
		Date:            date,
		Title:           "WindFlash AI Daily - " + formatDate(date),
		Summary:         g.overallSummary(ctx, sections, quality),
		Sections:        sections,
		TotalArticles:   len(articles),
		AnalyzedCount:   analyzedCount,
		TranslatedCount: translatedCount,
		CreatedAt:       reportTime,
		GenerationTime:  reportTime.Sub(start),
	}

	if err := g.store.AppendReport(rep); err != nil {
		return nil, "", fmt.Errorf("persisting report: %w", err)
	}

	g.log.Info("report generated", "date", date, "sections", len(sections), "articles", rep.TotalArticles, "took", rep.GenerationTime)
	return rep, Completed, nil
}

// filterQuality keeps analyzed articles at or above the quality
// threshold, sorted by score descending.
func filterQuality(articles []model.Article) []model.Article {
	var quality []model.Article
	for _, a := range articles {
		if a.Score != nil && *a.Score >= model.QualityThreshold {
			quality = append(quality, a)
		}
	}
	sort.SliceStable(quality, func(i, j int) bool {
		return quality[i].ScoreValue() > quality[j].ScoreValue()
	})
	return quality
}

// groupByCategory buckets articles into the fixed category set.
// Unknown categories land in the default bucket.
func groupByCategory(articles []model.Article) map[string][]model.Article {
	groups := make(map[string][]model.Article, len(model.ReportCategories))
	for _, a := range articles {
		category := a.Category
		if !model.KnownCategory(category) {
			category = model.DefaultCategory
		}
		groups[category] = append(groups[category], a)
	}
	return groups
}

type sectionAnalysis struct {
	Highlights    []string `json:"highlights"`
	TrendAnalysis string   `json:"trendAnalysis"`
}

func fallbackHighlights(articles []model.Article) []string {
	n := 3
	if len(articles) < n {
		n = len(articles)
	}
	highlights := make([]string, 0, n)
	for _, a := range articles[:n] {
		highlights = append(highlights, a.Title)
	}
	return highlights
}

func fallbackTrend(category string, count int) string {
	return fmt.Sprintf("今日%s领域有%d篇优质文章值得关注。", category, count)
}

// analyzeSection asks for category highlights and a trend paragraph,
// substituting deterministic fallbacks on any failure.
func (g *Generator) analyzeSection(ctx context.Context, category string, articles []model.Article) ([]string, string) {
	var summaries []string
	for _, a := range articles {
		summaries = append(summaries, fmt.Sprintf("《%s》(%d分) - %s", a.Title, a.ScoreValue(), a.Summary))
	}

	prompt := fmt.Sprintf(`Analyze the following articles in the "%s" category and provide insights:

Articles:
%s

Please provide analysis in JSON format:
{
  "highlights": ["3-5 key highlights or trends from these articles"],
  "trendAnalysis": "Brief analysis of trends and patterns in this category (50-80 words in Chinese)"
}

Focus on:
1. Common themes and trends
2. Breakthrough developments
3. Practical implications
4. Future directions

Return only valid JSON format.`, category, strings.Join(summaries, "\n"))

	content, err := g.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: "You are a tech industry analyst specializing in daily trend analysis."},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   300,
		Temperature: 0.4,
	})
	if err == nil {
		if payload, jsonErr := llm.ExtractJSON(content); jsonErr == nil {
			var analysis sectionAnalysis
			if json.Unmarshal([]byte(payload), &analysis) == nil &&
				len(analysis.Highlights) > 0 && analysis.TrendAnalysis != "" {
				return analysis.Highlights, analysis.TrendAnalysis
			}
		}
		err = fmt.Errorf("unusable section analysis")
	}

	g.log.Warn("section analysis fell back", "category", category, "error", err)
	return fallbackHighlights(articles), fallbackTrend(category, len(articles))
}

// overallSummary builds the report-level summary from the section trend
// texts, with a templated fallback.
func (g *Generator) overallSummary(ctx context.Context, sections []model.DailyReportSection, articles []model.Article) string {
	fallback := fmt.Sprintf("今日技术资讯精选，涵盖%d个重要领域，共收录%d篇优质文章。", len(sections), len(articles))

	var lines []string
	for _, s := range sections {
		lines = append(lines, fmt.Sprintf("%s(%d篇): %s", s.Category, len(s.Articles), s.TrendAnalysis))
	}

	prompt := fmt.Sprintf(`Generate a compelling daily summary based on today's tech articles across different categories:

Category Analysis:
%s

Total Articles: %d

Requirements:
1. 100-120 words in Chinese
2. Highlight the most significant trends and developments
3. Engaging tone suitable for tech professionals and entrepreneurs
4. Focus on actionable insights and future implications

Return only the summary text without additional formatting.`, strings.Join(lines, "\n"), len(articles))

	content, err := g.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: "You are a professional tech journalist writing daily industry summaries."},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   200,
		Temperature: 0.6,
	})
	if err != nil || strings.TrimSpace(content) == "" {
		g.log.Warn("overall summary fell back", "error", err)
		return fallback
	}
	return strings.TrimSpace(content)
}

func formatDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("2006年01月02日")
}
