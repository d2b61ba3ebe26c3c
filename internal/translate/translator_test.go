package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Starmadebydata/BestBlogs/internal/llm"
	"github.com/Starmadebydata/BestBlogs/internal/model"
)

// fakeCompleter answers every prompt with a fixed reply, or an error
// for prompts containing a failing marker.
type fakeCompleter struct {
	mu      sync.Mutex
	calls   int
	reply   string
	failOn  string
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	prompt := req.Messages[len(req.Messages)-1].Content
	f.prompts = append(f.prompts, prompt)
	if f.failOn != "" && strings.Contains(prompt, f.failOn) {
		return "", fmt.Errorf("simulated failure")
	}
	return f.reply, nil
}

func newTranslator(f *fakeCompleter) *Translator {
	return New(f, 10, 2000, slog.Default())
}

func TestTranslateText_ShortCircuit(t *testing.T) {
	f := &fakeCompleter{reply: "翻译结果"}
	tr := newTranslator(f)

	res, err := tr.TranslateText(context.Background(), Request{Text: "short", To: model.LangChinese})
	require.NoError(t, err)

	assert.Equal(t, "short", res.TranslatedText)
	assert.Equal(t, "short", res.OriginalText)
	assert.Equal(t, model.LangEnglish, res.DetectedLanguage)
	assert.Zero(t, f.calls, "short text must not reach the API")
}

func TestTranslateText_Translates(t *testing.T) {
	f := &fakeCompleter{reply: "人工智能的最新进展"}
	tr := newTranslator(f)

	res, err := tr.TranslateText(context.Background(), Request{Text: "The latest advances in AI", To: model.LangChinese})
	require.NoError(t, err)

	assert.Equal(t, "人工智能的最新进展", res.TranslatedText)
	assert.Equal(t, "The latest advances in AI", res.OriginalText)
	assert.Equal(t, model.LangEnglish, res.DetectedLanguage)
	assert.Equal(t, 1, f.calls)
}

func TestTranslateText_Error(t *testing.T) {
	f := &fakeCompleter{failOn: "原文"}
	tr := newTranslator(f)

	_, err := tr.TranslateText(context.Background(), Request{Text: "long enough english text", To: model.LangChinese})
	assert.Error(t, err)
}

func TestTranslateArticle_AllChinese(t *testing.T) {
	f := &fakeCompleter{reply: "不应调用"}
	tr := newTranslator(f)

	res, err := tr.TranslateArticle(context.Background(), Bundle{
		Title:   "中文标题内容测试",
		Content: "这是一段已经是中文的内容。",
	})
	require.NoError(t, err)

	assert.False(t, res.IsTranslated)
	assert.Equal(t, "中文标题内容测试", res.Title)
	assert.Zero(t, f.calls)
}

func TestTranslateArticle_TranslatesNeededFields(t *testing.T) {
	f := &fakeCompleter{reply: "翻译后的文本内容"}
	tr := newTranslator(f)

	res, err := tr.TranslateArticle(context.Background(), Bundle{
		Title:   "An English headline about models",
		Content: "这一段已经是中文，不需要翻译。",
	})
	require.NoError(t, err)

	assert.True(t, res.IsTranslated)
	assert.Equal(t, "翻译后的文本内容", res.Title)
	assert.Equal(t, "这一段已经是中文，不需要翻译。", res.Content)
	assert.Equal(t, 1, f.calls, "only the title needed translation")
}

func TestTranslateArticle_AllOrNothing(t *testing.T) {
	// Content prompt fails; the whole bundle must fail even though the
	// title call would have succeeded.
	f := &fakeCompleter{reply: "标题翻译", failOn: "unique-content-marker"}
	tr := newTranslator(f)

	_, err := tr.TranslateArticle(context.Background(), Bundle{
		Title:   "A headline needing translation",
		Content: "Body text with unique-content-marker inside it",
	})
	assert.Error(t, err)
}

func TestTranslateArticle_TruncatesContent(t *testing.T) {
	f := &fakeCompleter{reply: "翻译后的长内容"}
	tr := newTranslator(f)

	long := strings.Repeat("word ", 1000) // 5000 chars
	_, err := tr.TranslateArticle(context.Background(), Bundle{
		Title:   "短中文标题不需要翻译",
		Content: long,
	})
	require.NoError(t, err)

	require.Len(t, f.prompts, 1)
	assert.NotContains(t, f.prompts[0], long, "content must be truncated before the API call")
}
