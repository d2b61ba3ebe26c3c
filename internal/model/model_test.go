package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeID_Deterministic(t *testing.T) {
	url := "https://example.com/feed.xml?page=1&lang=zh"

	first := EncodeID(url)
	second := EncodeID(url)

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestEncodeID_RoundTrip(t *testing.T) {
	urls := []string{
		"https://example.com/rss",
		"http://blog.example.org/feed?format=atom",
		"https://example.com/中文路径/feed",
	}

	for _, url := range urls {
		id := EncodeID(url)
		decoded, err := DecodeID(id)
		require.NoError(t, err)
		assert.Equal(t, url, decoded)
	}
}

func TestEncodeID_DistinctURLs(t *testing.T) {
	assert.NotEqual(t, EncodeID("https://a.example.com/feed"), EncodeID("https://b.example.com/feed"))
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"english", "The quick brown fox", LangEnglish},
		{"chinese", "今日技术资讯汇总", LangChinese},
		{"mixed", "OpenAI 发布新模型", LangChinese},
		{"empty", "", LangEnglish},
		{"numbers and punctuation", "12345 !?", LangEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.text))
		})
	}
}

func TestNeedsTranslation(t *testing.T) {
	assert.True(t, NeedsTranslation("Latest AI news roundup", LangChinese))
	assert.False(t, NeedsTranslation("人工智能日报", LangChinese))
}

func TestKnownCategory(t *testing.T) {
	assert.True(t, KnownCategory("编程技术"))
	assert.True(t, KnownCategory(DefaultCategory))
	assert.False(t, KnownCategory("随便什么"))
	assert.False(t, KnownCategory(""))
}

func TestArticle_ScoreValue(t *testing.T) {
	var a Article
	assert.Equal(t, 0, a.ScoreValue())

	score := 92
	a.Score = &score
	assert.Equal(t, 92, a.ScoreValue())
}
