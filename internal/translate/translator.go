// Package translate turns non-Chinese article text into Chinese via an
// LLM endpoint.
package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Starmadebydata/BestBlogs/internal/llm"
	"github.com/Starmadebydata/BestBlogs/internal/model"
)

const systemPrompt = "你是一个专业的翻译专家，擅长技术文档和新闻文章的翻译，能够准确传达原文的意思和语调。"

// Request asks for one text to be translated.
type Request struct {
	Text string
	From string // source language, auto-detected when empty
	To   string
}

// Result is one finished translation.
type Result struct {
	TranslatedText   string
	OriginalText     string
	DetectedLanguage string
}

// Bundle carries the translatable fields of one article.
type Bundle struct {
	Title   string
	Content string
	Summary string
}

// BundleResult is the joint translation outcome for one article.
type BundleResult struct {
	Title        string
	Content      string
	Summary      string
	IsTranslated bool
}

// Translator issues translation completions.
type Translator struct {
	llm             llm.Completer
	minLength       int
	maxContentChars int
	maxTokens       int
	log             *slog.Logger
}

func New(completer llm.Completer, minLength, maxContentChars int, log *slog.Logger) *Translator {
	if minLength <= 0 {
		minLength = 10
	}
	if maxContentChars <= 0 {
		maxContentChars = 2000
	}
	return &Translator{
		llm:             completer,
		minLength:       minLength,
		maxContentChars: maxContentChars,
		maxTokens:       1000,
		log:             log,
	}
}

func languageName(code string) string {
	switch code {
	case model.LangChinese:
		return "中文"
	case model.LangEnglish:
		return "英文"
	default:
		return code
	}
}

func buildPrompt(text, to string) string {
	return fmt.Sprintf(`请将以下文本翻译成%s。

要求：
1. 保持原文的意思和语调
2. 使用自然流畅的表达
3. 对于技术术语，使用常见的中文表达或保留英文原词
4. 保持原文的格式和段落结构
5. 如果是标题，请保持标题的简洁性

原文：
%s

请直接返回翻译结果，不要包含任何解释或说明。`, languageName(to), text)
}

// TranslateText translates one text. Inputs shorter than the configured
// minimum come back unchanged; they are too short to translate reliably
// or to justify the API cost.
func (t *Translator) TranslateText(ctx context.Context, req Request) (*Result, error) {
	detected := req.From
	if detected == "" {
		detected = model.DetectLanguage(req.Text)
	}

	if len([]rune(req.Text)) < t.minLength {
		return &Result{
			TranslatedText:   req.Text,
			OriginalText:     req.Text,
			DetectedLanguage: detected,
		}, nil
	}

	content, err := t.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(req.Text, req.To)},
		},
		MaxTokens:   t.maxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("translating text: %w", err)
	}

	return &Result{
		TranslatedText:   strings.TrimSpace(content),
		OriginalText:     req.Text,
		DetectedLanguage: detected,
	}, nil
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// TranslateArticle translates the title, content and optional summary of
// one article to Chinese, running the calls concurrently. Fields already
// in Chinese are passed through. The bundle is all-or-nothing: any
// failed call fails the whole translation and the caller keeps the
// original text.
func (t *Translator) TranslateArticle(ctx context.Context, b Bundle) (*BundleResult, error) {
	titleNeeds := model.NeedsTranslation(b.Title, model.LangChinese)
	contentNeeds := b.Content != "" && model.NeedsTranslation(b.Content, model.LangChinese)
	summaryNeeds := b.Summary != "" && model.NeedsTranslation(b.Summary, model.LangChinese)

	if !titleNeeds && !contentNeeds && !summaryNeeds {
		return &BundleResult{Title: b.Title, Content: b.Content, Summary: b.Summary}, nil
	}

	out := BundleResult{Title: b.Title, Content: b.Content, Summary: b.Summary, IsTranslated: true}

	g, gctx := errgroup.WithContext(ctx)
	if titleNeeds {
		g.Go(func() error {
			res, err := t.TranslateText(gctx, Request{Text: b.Title, To: model.LangChinese})
			if err != nil {
				return err
			}
			out.Title = res.TranslatedText
			return nil
		})
	}
	if contentNeeds {
		g.Go(func() error {
			res, err := t.TranslateText(gctx, Request{Text: truncateRunes(b.Content, t.maxContentChars), To: model.LangChinese})
			if err != nil {
				return err
			}
			out.Content = res.TranslatedText
			return nil
		})
	}
	if summaryNeeds {
		g.Go(func() error {
			res, err := t.TranslateText(gctx, Request{Text: b.Summary, To: model.LangChinese})
			if err != nil {
				return err
			}
			out.Summary = res.TranslatedText
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.log.Warn("article translation failed", "title", b.Title, "error", err)
		return nil, err
	}

	return &out, nil
}
