package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/alecthomas/kong"
	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/crawl"
	"github.com/fwojciec/sitecrawl/etree"
	"github.com/fwojciec/sitecrawl/fs"
	"github.com/fwojciec/sitecrawl/goquery"
	"github.com/fwojciec/sitecrawl/htmltomarkdown"
	schttp "github.com/fwojciec/sitecrawl/http"
	"github.com/fwojciec/sitecrawl/robotstxt"
	scslog "github.com/fwojciec/sitecrawl/slog"
	"github.com/fwojciec/sitecrawl/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	RunService sitecrawl.RunService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("sitecrawl"),
		kong.Description("Crawl a website from its sitemap into a provenance-tagged text file."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'sitecrawl --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Logger = newLogger(stderr, cli.Verbose)

	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set SITECRAWL_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	m.RunService = sqlite.NewRunService(m.DB)
	deps.Runs = m.RunService

	if kongCtx.Command() == "crawl" {
		cfg, err := cli.Crawl.Config()
		if err != nil {
			fmt.Fprintf(stderr, "error: %s\n", sitecrawl.ErrorMessage(err))
			return err
		}
		deps.Crawler = m.newCrawler(ctx, &cfg, deps.Logger, cli.Verbose)
		deps.Config = cfg
		deps.Writer = fs.NewResultWriter(cfg.OutputPath)
	}

	return kongCtx.Run(deps)
}

// newCrawler wires the crawl pipeline for cfg. Page and sitemap fetches
// share one politeness limiter whose delay honors robots.txt. Without a
// configured sitemap, the first in-scope Sitemap listed in robots.txt is
// used before falling back to /sitemap.xml.
func (m *Main) newCrawler(ctx context.Context, cfg *sitecrawl.Config, logger *slog.Logger, verbose bool) *crawl.Crawler {
	var pageFetcher sitecrawl.Fetcher = schttp.NewFetcher(
		schttp.WithTimeout(cfg.PageTimeout),
		schttp.WithUserAgent(cfg.UserAgent),
		schttp.WithAcceptLanguage(cfg.AcceptLanguage),
	)
	var sitemapFetcher sitecrawl.Fetcher = schttp.NewFetcher(
		schttp.WithTimeout(cfg.SitemapTimeout),
		schttp.WithUserAgent(cfg.UserAgent),
		schttp.WithAcceptLanguage(cfg.AcceptLanguage),
	)

	// Validate has already checked the base URL and patterns.
	scope, _ := sitecrawl.NewScope(cfg.BaseURL)
	filter, _ := sitecrawl.NewURLFilter(cfg.Include, cfg.Exclude)

	// Every request to the site, robots.txt included, waits on one limiter.
	// It starts at the configured delay and is raised once robots.txt is read.
	limiter := crawl.NewLimiter(cfg.CrawlDelay)

	var extractor sitecrawl.Extractor = goquery.NewExtractor(scope)
	policy := robotstxt.NewPolicy(sitemapFetcher, cfg.UserAgent, logger, robotstxt.WithLimiter(limiter))
	var robots sitecrawl.RobotsPolicy = policy
	if verbose {
		pageFetcher = scslog.NewLoggingFetcher(pageFetcher, logger)
		sitemapFetcher = scslog.NewLoggingFetcher(sitemapFetcher, logger)
		extractor = scslog.NewLoggingExtractor(extractor, logger)
		robots = scslog.NewLoggingRobotsPolicy(robots, logger)
	}

	if delay := crawl.EffectiveDelay(cfg.CrawlDelay, robots.CrawlDelay(ctx, cfg.BaseURL)); delay != cfg.CrawlDelay {
		logger.Info("using robots.txt crawl delay", "configured", cfg.CrawlDelay, "delay", delay)
		limiter.SetDelay(delay)
	}
	logger.Debug("politeness delay", "delay", limiter.Delay())

	if cfg.SitemapURL == "" {
		for _, sm := range policy.Sitemaps(ctx, cfg.BaseURL) {
			if scope.Contains(sm) {
				logger.Info("using sitemap from robots.txt", "sitemap", sm)
				cfg.SitemapURL = sm
				break
			}
		}
	}

	var sitemaps sitecrawl.SitemapResolver = &crawl.Resolver{
		Fetcher: sitemapFetcher,
		Parser:  etree.NewSitemapParser(),
		Limiter: limiter,
		Scope:   scope,
		Filter:  filter,
		Logger:  logger,
	}
	if verbose {
		sitemaps = scslog.NewLoggingSitemapResolver(sitemaps, logger)
	}

	c := &crawl.Crawler{
		Sitemaps:    sitemaps,
		Fetcher:     pageFetcher,
		Extractor:   extractor,
		Limiter:     limiter,
		Journal:     m.RunService,
		Logger:      logger,
		Concurrency: cfg.Concurrency,
		MaxPages:    cfg.MaxPages,
	}
	if cfg.RespectRobots {
		c.Robots = robots
	}
	if cfg.MirrorDir != "" {
		c.Mirror = fs.NewMirrorStoreAt(cfg.MirrorDir)
		c.Converter = htmltomarkdown.NewConverter()
	}
	return c
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func defaultDBPath() string {
	if path := os.Getenv("SITECRAWL_DB"); path != "" {
		return path
	}
	path, err := xdg.DataFile("sitecrawl/sitecrawl.db")
	if err != nil {
		return "sitecrawl.db"
	}
	return path
}

// isInterrupted reports whether err stems from the user stopping the run.
func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}
