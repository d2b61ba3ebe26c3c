// Package analyze scores and classifies articles with an LLM rubric.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/Starmadebydata/BestBlogs/internal/llm"
	"github.com/Starmadebydata/BestBlogs/internal/model"
)

const systemPrompt = "你是一个专业的技术内容分析专家，擅长评估技术文章的质量和价值。"

const maxContentChars = 3000

// Analyzer sends one completion per article and parses the structured
// result. Batches run strictly sequentially to respect upstream rate
// limits.
type Analyzer struct {
	llm     llm.Completer
	limiter *rate.Limiter
	log     *slog.Logger
}

// New creates an Analyzer pacing calls at one per interval.
func New(completer llm.Completer, interval rate.Limit, log *slog.Logger) *Analyzer {
	return &Analyzer{
		llm:     completer,
		limiter: rate.NewLimiter(interval, 1),
		log:     log,
	}
}

func buildPrompt(req model.AnalysisRequest) string {
	content := req.Content
	if r := []rune(content); len(r) > maxContentChars {
		content = string(r[:maxContentChars]) + "..."
	}

	return fmt.Sprintf(`请分析以下技术文章，并按照JSON格式返回分析结果：

文章标题：%s
文章内容：%s

请提供以下分析结果（请用JSON格式回复）：
{
  "summary": "一句话总结文章核心内容（50字以内）",
  "keyPoints": ["关键要点1", "关键要点2", "关键要点3"],
  "score": 85,
  "tags": ["标签1", "标签2", "标签3"],
  "category": "分类（%s之一）",
  "language": "zh或en"
}

评分标准（0-100分）：
- 技术深度和准确性 (30%%)
- 实用性和可操作性 (25%%)
- 内容新颖性和前瞻性 (20%%)
- 写作质量和清晰度 (15%%)
- 影响力和重要性 (10%%)

请确保返回纯JSON格式，不要包含其他文字说明。`, req.Title, content, strings.Join(model.ReportCategories, "/"))
}

type rawResult struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"keyPoints"`
	Score     *float64 `json:"score"`
	Tags      []string `json:"tags"`
	Category  string   `json:"category"`
	Language  string   `json:"language"`
}

func clampScore(s float64) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return int(s)
}

// AnalyzeArticle analyzes one article, waiting on the pacing limiter
// first. A response missing summary or score is invalid; the score is
// clamped to [0,100] whatever the model returned.
func (a *Analyzer) AnalyzeArticle(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResult, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for analysis slot: %w", err)
	}

	content, err := a.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(req)},
		},
		MaxTokens:   500,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis request: %w", err)
	}

	payload, err := llm.ExtractJSON(content)
	if err != nil {
		return nil, fmt.Errorf("analysis response: %w", err)
	}

	var raw rawResult
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("parsing analysis response: %w", err)
	}
	if raw.Summary == "" || raw.Score == nil {
		return nil, fmt.Errorf("analysis response missing summary or score")
	}

	language := raw.Language
	if language != model.LangChinese && language != model.LangEnglish {
		language = model.LangEnglish
	}
	category := raw.Category
	if category == "" {
		category = model.DefaultCategory
	}

	return &model.AnalysisResult{
		Summary:   raw.Summary,
		KeyPoints: raw.KeyPoints,
		Score:     clampScore(*raw.Score),
		Tags:      raw.Tags,
		Category:  category,
		Language:  language,
	}, nil
}

// AnalyzeBatch analyzes requests one at a time, paced by the limiter.
// The result slice has the same length and order as the input; a failed
// article leaves a nil at its position and never stops the batch.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, reqs []model.AnalysisRequest) []*model.AnalysisResult {
	results := make([]*model.AnalysisResult, len(reqs))

	a.log.Info("starting analysis batch", "articles", len(reqs))

	for i, req := range reqs {
		res, err := a.AnalyzeArticle(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				a.log.Warn("analysis batch interrupted", "completed", i, "error", err)
				return results
			}
			a.log.Warn("article analysis failed", "index", i, "title", req.Title, "error", err)
			continue
		}
		results[i] = res
		a.log.Debug("article analyzed", "index", i, "score", res.Score, "category", res.Category)
	}

	analyzed := 0
	for _, r := range results {
		if r != nil {
			analyzed++
		}
	}
	a.log.Info("analysis batch finished", "analyzed", analyzed, "failed", len(reqs)-analyzed)

	return results
}
