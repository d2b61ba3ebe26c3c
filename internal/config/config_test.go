package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Feeds.HTTPTimeout)
	assert.Equal(t, 10, cfg.Feeds.MaxItems)
	assert.Equal(t, 5, cfg.Feeds.BatchSize)
	assert.Equal(t, 2, cfg.Feeds.TransBatchSize)
	assert.Equal(t, 1*time.Second, cfg.Feeds.BatchInterval)
	assert.Equal(t, 3*time.Second, cfg.Feeds.TransBatchPause)
	assert.Equal(t, 2*time.Second, cfg.Analyze.Interval)
	assert.Equal(t, 20, cfg.Analyze.MaxPerRun)
	assert.Equal(t, 50*time.Second, cfg.Analyze.TimeBudget)
	assert.Equal(t, 3, cfg.Report.MinAnalyzed)
	assert.Equal(t, 5, cfg.Report.SectionLimit)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Trans.Enabled)
	assert.Equal(t, 10, cfg.Trans.MinLength)
	assert.Equal(t, 2000, cfg.Trans.MaxContentChars)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[store]
path = "` + filepath.Join(dir, "wf.db") + `"

[feeds]
batch_size = 3
http_timeout = "5s"

[llm]
model = "test/model"
api_key = "sk-test"

[analyze]
time_budget = "0s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Feeds.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.Feeds.HTTPTimeout)
	assert.Equal(t, "test/model", cfg.LLM.Model)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, time.Duration(0), cfg.Analyze.TimeBudget)
	// Unset sections keep their defaults.
	assert.Equal(t, 10, cfg.Feeds.MaxItems)
}

func TestLoad_APIKeyFromEnv(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-env-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-env-key", cfg.LLM.APIKey)
}

func TestOPMLDocuments(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	docs := cfg.OPMLDocuments()
	require.Len(t, docs, 3)
	assert.Equal(t, "articles", docs[0].Category)
	assert.Equal(t, "podcasts", docs[1].Category)
	assert.Equal(t, "twitter", docs[2].Category)
	assert.Contains(t, docs[0].Path, "BestBlogs_RSS_Articles.opml")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "data"), expandPath("~/data"))
	assert.Equal(t, "", expandPath(""))
	assert.True(t, filepath.IsAbs(expandPath("relative/path")))
}
