// Package config loads application configuration from file, environment
// and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Feeds   FeedsConfig   `mapstructure:"feeds"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Trans   TransConfig   `mapstructure:"translate"`
	Analyze AnalyzeConfig `mapstructure:"analyze"`
	Report  ReportConfig  `mapstructure:"report"`
	Log     LogConfig     `mapstructure:"log"`
}

type StoreConfig struct {
	Path        string `mapstructure:"path"`
	SearchIndex string `mapstructure:"search_index"`
}

type FeedsConfig struct {
	OPMLDir      string `mapstructure:"opml_dir"`
	ArticlesOPML string `mapstructure:"articles_opml"`
	PodcastsOPML string `mapstructure:"podcasts_opml"`
	TwitterOPML  string `mapstructure:"twitter_opml"`

	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
	MaxItems    int           `mapstructure:"max_items"`

	BatchSize        int           `mapstructure:"batch_size"`
	TransBatchSize   int           `mapstructure:"translation_batch_size"`
	BatchInterval    time.Duration `mapstructure:"batch_interval"`
	TransBatchPause  time.Duration `mapstructure:"translation_batch_interval"`
}

type LLMConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
}

type TransConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	MinLength       int  `mapstructure:"min_length"`
	MaxContentChars int  `mapstructure:"max_content_chars"`
}

type AnalyzeConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	MaxPerRun  int           `mapstructure:"max_per_run"`
	TimeBudget time.Duration `mapstructure:"time_budget"`
}

type ReportConfig struct {
	MinAnalyzed  int `mapstructure:"min_analyzed"`
	SectionLimit int `mapstructure:"section_limit"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".windflash")

	return &Config{
		Store: StoreConfig{
			Path:        filepath.Join(dataDir, "windflash.db"),
			SearchIndex: filepath.Join(dataDir, "index.bleve"),
		},
		Feeds: FeedsConfig{
			OPMLDir:         "./public",
			ArticlesOPML:    "BestBlogs_RSS_Articles.opml",
			PodcastsOPML:    "BestBlogs_RSS_Podcasts.opml",
			TwitterOPML:     "BestBlogs_RSS_Twitters.opml",
			HTTPTimeout:     10 * time.Second,
			UserAgent:       "WindFlash-Daily/1.0 (RSS aggregator)",
			MaxItems:        10,
			BatchSize:       5,
			TransBatchSize:  2,
			BatchInterval:   1 * time.Second,
			TransBatchPause: 3 * time.Second,
		},
		LLM: LLMConfig{
			BaseURL:     "https://openrouter.ai/api/v1",
			Model:       "deepseek/deepseek-r1-0528:free",
			Timeout:     60 * time.Second,
			MaxTokens:   500,
			Temperature: 0.3,
		},
		Trans: TransConfig{
			Enabled:         true,
			MinLength:       10,
			MaxContentChars: 2000,
		},
		Analyze: AnalyzeConfig{
			Interval:   2 * time.Second,
			MaxPerRun:  20,
			TimeBudget: 50 * time.Second,
		},
		Report: ReportConfig{
			MinAnalyzed:  3,
			SectionLimit: 5,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from an optional TOML file, the environment
// (WINDFLASH_ prefix) and a local .env file. Missing file is not an error.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("store", cfg.Store)
	v.SetDefault("feeds", cfg.Feeds)
	v.SetDefault("llm", cfg.LLM)
	v.SetDefault("translate", cfg.Trans)
	v.SetDefault("analyze", cfg.Analyze)
	v.SetDefault("report", cfg.Report)
	v.SetDefault("log", cfg.Log)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Join(homeDir, ".config", "windflash"))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("WINDFLASH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if configPath == "" && os.IsNotExist(err) {
				// no config file anywhere, defaults apply
			} else {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.LLM.APIKey == "" {
		config.LLM.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}

	expandPaths(&config)

	return &config, nil
}

// expandPath expands ~ and converts relative paths to absolute ones.
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Store.Path = expandPath(cfg.Store.Path)
	cfg.Store.SearchIndex = expandPath(cfg.Store.SearchIndex)
	cfg.Feeds.OPMLDir = expandPath(cfg.Feeds.OPMLDir)
}

// OPMLDocuments returns the configured OPML documents with their feed
// category, in load order. Unconfigured documents are skipped.
func (c *Config) OPMLDocuments() []OPMLDocument {
	var docs []OPMLDocument
	add := func(name, category string) {
		if name != "" {
			docs = append(docs, OPMLDocument{
				Path:     filepath.Join(c.Feeds.OPMLDir, name),
				Category: category,
			})
		}
	}
	add(c.Feeds.ArticlesOPML, "articles")
	add(c.Feeds.PodcastsOPML, "podcasts")
	add(c.Feeds.TwitterOPML, "twitter")
	return docs
}

// OPMLDocument names one subscription list on disk.
type OPMLDocument struct {
	Path     string
	Category string
}
