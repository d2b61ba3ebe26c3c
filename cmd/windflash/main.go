package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/Starmadebydata/BestBlogs/internal/analyze"
	"github.com/Starmadebydata/BestBlogs/internal/config"
	"github.com/Starmadebydata/BestBlogs/internal/debuglog"
	"github.com/Starmadebydata/BestBlogs/internal/feed"
	"github.com/Starmadebydata/BestBlogs/internal/llm"
	"github.com/Starmadebydata/BestBlogs/internal/opml"
	"github.com/Starmadebydata/BestBlogs/internal/pipeline"
	"github.com/Starmadebydata/BestBlogs/internal/render"
	"github.com/Starmadebydata/BestBlogs/internal/report"
	"github.com/Starmadebydata/BestBlogs/internal/search"
	"github.com/Starmadebydata/BestBlogs/internal/storage"
	"github.com/Starmadebydata/BestBlogs/internal/translate"
)

// Version is set at build time.
var Version = "dev"

var (
	flagConfig   string
	flagDB       string
	flagLogLevel string
)

func main() {
	root := &cobra.Command{
		Use:           "windflash",
		Short:         "windflash — AI-curated daily digest from RSS feeds",
		Long:          "Fetches subscribed RSS feeds, translates and scores articles with an LLM, and assembles a categorized daily report.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to configuration file")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "path to database file (overrides config)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error, off")

	root.AddCommand(
		updateCmd(),
		reportCmd(),
		feedsCmd(),
		searchCmd(),
		statsCmd(),
		versionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds everything a command needs, wired from config.
type app struct {
	cfg   *config.Config
	store *storage.Store
	index *search.Index
	pipe  *pipeline.Pipeline
	log   *slog.Logger
}

func (a *app) close() {
	if a.index != nil {
		_ = a.index.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	_ = debuglog.Close()
}

func openApp(withIndex bool) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagDB != "" {
		cfg.Store.Path = flagDB
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}

	if err := debuglog.Setup(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, err
	}
	log := slog.Default()

	store, err := storage.NewStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	var index *search.Index
	if withIndex {
		index, err = search.Open(cfg.Store.SearchIndex)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("opening search index: %w", err)
		}
	}

	completer := llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout)

	var translator feed.ArticleTranslator
	if cfg.Trans.Enabled {
		translator = translate.New(completer, cfg.Trans.MinLength, cfg.Trans.MaxContentChars, log)
	}

	registry := opml.NewRegistry(cfg.OPMLDocuments(), log)
	crawler := feed.NewCrawler(cfg.Feeds, translator, log)
	analyzer := analyze.New(completer, rate.Every(cfg.Analyze.Interval), log)
	generator := report.NewGenerator(completer, store, cfg.Report.SectionLimit, log)
	pipe := pipeline.New(registry, crawler, analyzer, generator, store, index, cfg, log)

	return &app{cfg: cfg, store: store, index: index, pipe: pipe, log: log}, nil
}

func updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Fetch feeds, analyze new articles and refresh the daily report",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			stats, err := a.pipe.Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Feeds:    %d fetched, %d failed\n", stats.FeedsFetched, stats.FeedsFailed)
			fmt.Printf("Articles: %d new, %d analyzed", stats.NewArticles, stats.Analyzed)
			if stats.AnalysisFailed > 0 {
				fmt.Printf(" (%d failed)", stats.AnalysisFailed)
			}
			fmt.Println()
			if stats.ReportOutcome != "" {
				fmt.Printf("Report:   %s\n", stats.ReportOutcome)
			}
			fmt.Printf("Took %s\n", stats.Duration.Round(time.Millisecond))
			return nil
		},
	}
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Work with daily reports",
	}
	cmd.AddCommand(reportGenerateCmd(), reportShowCmd(), reportListCmd())
	return cmd
}

func reportGenerateCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the report for a date from stored articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			if date == "" {
				date = time.Now().Format("2006-01-02")
			}
			if _, err := time.Parse("2006-01-02", date); err != nil {
				return fmt.Errorf("invalid date %q, want YYYY-MM-DD", date)
			}

			rep, outcome, err := a.pipe.GenerateReport(cmd.Context(), date)
			if err != nil {
				return err
			}
			switch outcome {
			case report.AlreadyExists:
				fmt.Printf("Report for %s already exists\n", date)
			case report.Skipped:
				fmt.Printf("No qualifying articles for %s\n", date)
			case report.Completed:
				fmt.Printf("Generated %s: %d sections, %d articles\n", rep.ID, len(rep.Sections), rep.TotalArticles)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "report date (YYYY-MM-DD, default today)")
	return cmd
}

func reportShowCmd() *cobra.Command {
	var (
		date string
		raw  bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a daily report",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			if date == "" {
				date = time.Now().Format("2006-01-02")
			}
			rep, err := a.store.ReportByDate(date)
			if err != nil {
				return err
			}
			if rep == nil {
				return fmt.Errorf("no report for %s", date)
			}

			if raw {
				fmt.Print(render.ReportMarkdown(rep))
				return nil
			}
			out, err := render.ReportTerminal(rep, 0)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "report date (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without terminal styling")
	return cmd
}

func reportListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			reports, err := a.store.RecentReports(limit)
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				fmt.Println("No reports yet. Run `windflash update` first.")
				return nil
			}
			for i := range reports {
				fmt.Println(render.ReportHeader(&reports[i]))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum reports to list")
	return cmd
}

func feedsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feeds",
		Short: "List subscribed feeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			feeds, err := a.store.LoadFeeds()
			if err != nil {
				return err
			}
			if len(feeds) == 0 {
				// Nothing synced yet, fall back to the OPML registry.
				feeds = opml.NewRegistry(a.cfg.OPMLDocuments(), a.log).LoadAll()
			}
			for _, f := range feeds {
				status := " "
				if !f.IsActive {
					status = "-"
				}
				fmt.Printf("%s [%s] %s\n    %s\n", status, f.Category, f.Title, f.XMLURL)
			}
			fmt.Printf("%d feeds\n", len(feeds))
			return nil
		},
	}
}

func searchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over analyzed articles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			results, err := a.index.Search(strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("No matches.")
				return nil
			}
			for _, r := range results {
				fmt.Printf("%.2f  %s\n      %s\n", r.Score, r.Title, r.URL)
				if r.Summary != "" {
					fmt.Printf("      %s\n", r.Summary)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum results")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			s, err := a.store.Stats()
			if err != nil {
				return err
			}
			fmt.Print(render.StatsText(s))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("windflash %s\n", Version)
		},
	}
}
