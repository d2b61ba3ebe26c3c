// Package render turns reports and statistics into terminal output.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/Starmadebydata/BestBlogs/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			BorderStyle(lipgloss.RoundedBorder()).
			Padding(0, 2)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	featuredStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))
)

// ReportMarkdown renders a daily report as a markdown document. The
// same document backs the terminal view and plain-text export.
func ReportMarkdown(rep *model.DailyReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", rep.Title)
	fmt.Fprintf(&b, "> %s\n\n", rep.Summary)
	fmt.Fprintf(&b, "共 %d 篇文章，已分析 %d 篇", rep.TotalArticles, rep.AnalyzedCount)
	if rep.TranslatedCount > 0 {
		fmt.Fprintf(&b, "，已翻译 %d 篇", rep.TranslatedCount)
	}
	b.WriteString("\n\n")

	for _, section := range rep.Sections {
		fmt.Fprintf(&b, "## %s\n\n", section.Title)
		if section.Description != "" {
			fmt.Fprintf(&b, "_%s_\n\n", section.Description)
		}
		if len(section.Highlights) > 0 {
			b.WriteString("**今日看点**\n\n")
			for _, h := range section.Highlights {
				fmt.Fprintf(&b, "- %s\n", h)
			}
			b.WriteString("\n")
		}
		if section.TrendAnalysis != "" {
			fmt.Fprintf(&b, "%s\n\n", section.TrendAnalysis)
		}
		for _, a := range section.Articles {
			marker := ""
			if a.IsFeatured {
				marker = " ⭐"
			}
			fmt.Fprintf(&b, "### [%s](%s)%s\n\n", a.Title, a.URL, marker)
			fmt.Fprintf(&b, "**评分 %d** · %s\n\n", a.ScoreValue(), a.FeedTitle)
			if a.Summary != "" {
				fmt.Fprintf(&b, "%s\n\n", a.Summary)
			}
			if len(a.KeyPoints) > 0 {
				for _, kp := range a.KeyPoints {
					fmt.Fprintf(&b, "- %s\n", kp)
				}
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

// ReportTerminal renders a report for an interactive terminal.
func ReportTerminal(rep *model.DailyReport, width int) (string, error) {
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(ReportMarkdown(rep))
}

// ReportHeader is a one-line styled banner for list views.
func ReportHeader(rep *model.DailyReport) string {
	return headerStyle.Render(rep.Title) + "\n" +
		mutedStyle.Render(fmt.Sprintf("%s · %d sections", rep.Date, len(rep.Sections)))
}

// ArticleLine formats one article for list output.
func ArticleLine(a *model.Article) string {
	score := "--"
	if a.Score != nil {
		score = fmt.Sprintf("%2d", *a.Score)
	}
	line := fmt.Sprintf("[%s] %s", score, a.Title)
	if a.IsFeatured {
		return featuredStyle.Render(line)
	}
	return line
}

// StatsText formats store statistics for the terminal.
func StatsText(s *model.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Feeds:     %d (%d active)\n", s.TotalFeeds, s.ActiveFeeds)
	fmt.Fprintf(&b, "Articles:  %d (%d analyzed, %d featured)\n", s.TotalArticles, s.AnalyzedArticles, s.FeaturedArticles)
	fmt.Fprintf(&b, "Reports:   %d\n", s.TotalReports)
	return b.String()
}
