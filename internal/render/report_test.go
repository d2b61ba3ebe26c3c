package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Starmadebydata/BestBlogs/internal/model"
)

func sampleReport() *model.DailyReport {
	score := 92
	return &model.DailyReport{
		ID:            "daily-2026-09-01",
		Date:          "2026-09-01",
		Title:         "WindFlash AI Daily - 2026年09月01日",
		Summary:       "今日技术资讯精选，涵盖1个重要领域，共收录1篇优质文章。",
		TotalArticles: 3,
		AnalyzedCount: 2,
		Sections: []model.DailyReportSection{
			{
				Category:      "编程技术",
				Title:         "🛠️ 编程技术",
				Description:   "编程技巧、框架应用和语言特性深度解析",
				Highlights:    []string{"并发模式走向标准化"},
				TrendAnalysis: "今日编程技术领域有1篇优质文章值得关注。",
				Articles: []model.Article{
					{
						Title:      "Go Concurrency Patterns",
						URL:        "https://example.com/conc",
						FeedTitle:  "Go Blog",
						Summary:    "管道与取消的实践指南。",
						KeyPoints:  []string{"管道分阶段", "显式取消"},
						Score:      &score,
						IsFeatured: true,
					},
				},
			},
		},
	}
}

func TestReportMarkdown(t *testing.T) {
	md := ReportMarkdown(sampleReport())

	assert.True(t, strings.HasPrefix(md, "# WindFlash AI Daily - 2026年09月01日"))
	assert.Contains(t, md, "> 今日技术资讯精选")
	assert.Contains(t, md, "共 3 篇文章，已分析 2 篇")
	assert.Contains(t, md, "## 🛠️ 编程技术")
	assert.Contains(t, md, "- 并发模式走向标准化")
	assert.Contains(t, md, "[Go Concurrency Patterns](https://example.com/conc) ⭐")
	assert.Contains(t, md, "**评分 92** · Go Blog")
	assert.Contains(t, md, "- 管道分阶段")
	assert.NotContains(t, md, "已翻译")
}

func TestReportMarkdown_TranslatedCountShownWhenPresent(t *testing.T) {
	rep := sampleReport()
	rep.TranslatedCount = 2
	assert.Contains(t, ReportMarkdown(rep), "已翻译 2 篇")
}

func TestReportTerminal(t *testing.T) {
	out, err := ReportTerminal(sampleReport(), 80)
	require.NoError(t, err)
	assert.Contains(t, out, "WindFlash AI Daily")
}

func TestArticleLine(t *testing.T) {
	score := 88
	line := ArticleLine(&model.Article{Title: "Some article", Score: &score})
	assert.Contains(t, line, "88")
	assert.Contains(t, line, "Some article")

	unanalyzed := ArticleLine(&model.Article{Title: "Pending"})
	assert.Contains(t, unanalyzed, "--")
}

func TestStatsText(t *testing.T) {
	out := StatsText(&model.Stats{
		TotalFeeds: 4, ActiveFeeds: 3,
		TotalArticles: 20, AnalyzedArticles: 12, FeaturedArticles: 5,
		TotalReports: 2,
	})
	assert.Contains(t, out, "4 (3 active)")
	assert.Contains(t, out, "20 (12 analyzed, 5 featured)")
	assert.Contains(t, out, "Reports:   2")
}
