package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/scrollfeed/pkg/config"
	"github.com/umputun/scrollfeed/pkg/feed"
	"github.com/umputun/scrollfeed/pkg/metrics"
	"github.com/umputun/scrollfeed/pkg/session"
	"github.com/umputun/scrollfeed/pkg/source"
	"github.com/umputun/scrollfeed/pkg/tui"
	"github.com/umputun/scrollfeed/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" default:"config.yml" description:"configuration file"`
	Listen string `short:"l" long:"listen" env:"LISTEN" description:"listen address, overrides config"`
	TUI    bool   `long:"tui" description:"run terminal reader instead of web server"`

	// common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	if opts.NoColor {
		color.NoColor = true
	}
	SetupLog(opts.Debug)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()
	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
	log.Print("[INFO] shutdown complete")
}

func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Source.APIKey != "" {
		SetupLog(opts.Debug, cfg.Source.APIKey)
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}

	log.Printf("[INFO] starting scrollfeed version %s, source %s", revision, cfg.Source.Type)

	src := makeSource(cfg.Source)
	makeCtrl := func() *feed.Controller {
		return feed.New(src, feed.WithErrorMessage(cfg.Source.ErrorMessage))
	}

	if opts.TUI {
		return tui.Run(ctx, session.New(makeCtrl))
	}

	sessions := session.NewManager(makeCtrl, cfg.Server.SessionTTL)
	gate := session.StaticGate{Username: cfg.Auth.Username, Password: cfg.Auth.Password}
	if gate.Username == "" {
		log.Print("[WARN] no auth.username configured, any login is accepted")
	}
	srv := server.New(cfg, sessions, gate, revision, opts.Debug)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return sessions.Run(gctx, janitorInterval(cfg.Server.SessionTTL)) })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// makeSource builds the configured source wrapped with metrics
func makeSource(cfg config.SourceConfig) feed.Source {
	if cfg.Type == config.SourceRSS {
		return metrics.Instrument(source.NewRSS(source.RSSParams{
			URL:       cfg.RSSURL,
			PageSize:  cfg.PageSize,
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
		}), config.SourceRSS)
	}
	return metrics.Instrument(source.NewNewsdata(source.NewsdataParams{
		Endpoint:  cfg.Endpoint,
		APIKey:    cfg.APIKey,
		Language:  cfg.Language,
		Query:     cfg.Query,
		Category:  cfg.Category,
		Country:   cfg.Country,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
		Retries:   cfg.Retries,
	}), config.SourceNewsdata)
}

// janitorInterval checks for idle sessions a few times per ttl, at most once a minute
func janitorInterval(ttl time.Duration) time.Duration {
	return min(max(ttl/4, time.Second), time.Minute)
}

// SetupLog configures lgr and std logger, secrets are masked in the output
func SetupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Out(io.Discard), lgr.Err(io.Discard)}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
