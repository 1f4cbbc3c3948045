package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/crawl"
	"github.com/fwojciec/sitecrawl/yaml"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	Runs    sitecrawl.RunService
	Config  sitecrawl.Config
	Crawler *crawl.Crawler
	Writer  sitecrawl.ResultWriter
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool `short:"v" help:"Log every request at debug level"`

	Crawl  CrawlCmd  `cmd:"" help:"Crawl a site from its sitemap and write the text artifact"`
	Runs   RunsCmd   `cmd:"" help:"List journaled crawl runs"`
	Export ExportCmd `cmd:"" help:"Write the text artifact of a journaled run"`
	Delete DeleteCmd `cmd:"" help:"Delete a journaled run and its records"`
}

// CrawlCmd is the "crawl" subcommand. Flags override values from the
// config file, which override the defaults.
type CrawlCmd struct {
	Base          string         `short:"b" help:"Base URL; its host is the crawl domain"`
	Sitemap       string         `short:"s" help:"Root sitemap URL (default: /sitemap.xml on the base host)"`
	Output        string         `short:"o" help:"Output file (default: crawl_output.txt)"`
	Delay         *time.Duration `help:"Minimum delay between requests (default: 3s)"`
	Timeout       *time.Duration `help:"Per-page fetch timeout (default: 15s)"`
	Concurrency   *int           `short:"c" help:"Number of fetch workers; 1 keeps strict breadth-first order"`
	MaxPages      *int           `name:"max-pages" help:"Stop after this many URLs (0: no limit)"`
	Include       []string       `short:"I" help:"Only follow sitemap URLs matching this regex (repeatable)"`
	Exclude       []string       `short:"X" help:"Skip sitemap URLs matching this regex (repeatable)"`
	Mirror        string         `short:"m" help:"Also write a Markdown copy of every page to this directory"`
	RespectRobots bool           `name:"respect-robots" help:"Skip URLs disallowed by robots.txt"`
	Preview       bool           `short:"p" help:"Print the sitemap URLs without crawling"`
	ConfigFile    string         `name:"config" type:"path" help:"YAML config file (default: ./sitecrawl.yaml if present)"`
}

// Config resolves the crawl configuration from defaults, the config file
// and the command flags, in increasing precedence.
func (c *CrawlCmd) Config() (sitecrawl.Config, error) {
	cfg := sitecrawl.DefaultConfig()

	if path := yaml.FindConfigFile(c.ConfigFile); path != "" {
		if err := yaml.LoadConfig(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if c.Base != "" {
		cfg.BaseURL = c.Base
	}
	if c.Sitemap != "" {
		cfg.SitemapURL = c.Sitemap
	}
	if c.Output != "" {
		cfg.OutputPath = c.Output
	}
	if c.Delay != nil {
		cfg.CrawlDelay = *c.Delay
	}
	if c.Timeout != nil {
		cfg.PageTimeout = *c.Timeout
	}
	if c.Concurrency != nil {
		cfg.Concurrency = *c.Concurrency
	}
	if c.MaxPages != nil {
		cfg.MaxPages = *c.MaxPages
	}
	if len(c.Include) > 0 {
		cfg.Include = c.Include
	}
	if len(c.Exclude) > 0 {
		cfg.Exclude = c.Exclude
	}
	if c.Mirror != "" {
		cfg.MirrorDir = c.Mirror
	}
	if c.RespectRobots {
		cfg.RespectRobots = true
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// RunsCmd is the "runs" subcommand.
type RunsCmd struct {
	Base  string `short:"b" help:"Only show runs of this base URL"`
	Limit int    `short:"n" default:"20" help:"Maximum number of runs to show"`
}

// ExportCmd is the "export" subcommand.
type ExportCmd struct {
	RunID  string `arg:"" name:"run-id" help:"Run ID"`
	Output string `short:"o" default:"crawl_output.txt" help:"Output file"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	RunID string `arg:"" name:"run-id" help:"Run ID"`
	Force bool   `help:"Confirm deletion"`
}
