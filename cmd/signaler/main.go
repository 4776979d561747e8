package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	ossignal "os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"levelbot-go/internal/config"
	"levelbot-go/internal/engine"
	"levelbot-go/internal/exchange"
	"levelbot-go/internal/news"
	"levelbot-go/internal/notify"
	"levelbot-go/internal/paper"
	"levelbot-go/internal/status"
	"levelbot-go/internal/strategy"
	"levelbot-go/internal/util"
)

const recentOutcomes = 200

func main() {
	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "signaler: %v\n", err)
		os.Exit(1)
	}
}

// run wires the signaler and blocks until ctx ends. Setup failures are returned so deferred
// cleanup, such as closing the journal, still happens.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("signaler", flag.ContinueOnError)
	configPath := fs.String("config", "internal/config/config.yaml", "path to the YAML config")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := util.NewLogger(cfg.App.LogLevel)

	symbols := cfg.CleanSymbols()

	feedOpts := []exchange.Option{exchange.WithVenueSymbols(cfg.Feed.VenueSymbols)}
	if cfg.Feed.RESTBaseURL != "" {
		feedOpts = append(feedOpts, exchange.WithRESTBaseURL(cfg.Feed.RESTBaseURL))
	}
	if cfg.Feed.Stream {
		feedOpts = append(feedOpts, exchange.WithStream(cfg.Feed.StreamURL, cfg.Period()))
	}
	feed := exchange.NewFeed(cfg.Feed.Provider, symbols, log, feedOpts...)
	if err := feed.CheckSymbols(); err != nil {
		return err
	}

	provider, err := notify.FromConfig(cfg.Notifier, log)
	if err != nil {
		return fmt.Errorf("build notifier: %w", err)
	}
	notifier := notify.NewAsync(notify.NewManager(log, provider), cfg.Notifier.QueueSize, log)

	ledger := paper.NewLedger(recentOutcomes)
	sinks := []paper.OutcomeRecorder{ledger}
	if cfg.Journal.Path != "" {
		journal, err := paper.NewJSONLRecorder(cfg.Journal.Path, log)
		if err != nil {
			return fmt.Errorf("open journal %s: %w", cfg.Journal.Path, err)
		}
		defer journal.Close()
		sinks = append(sinks, journal)
	}
	board := paper.NewScoreboard(sinks...)

	gate := news.NewGate(cfg.News, log)

	analyzer := strategy.Build(strategy.Params{
		Levels: strategy.LevelParams{
			MinTouches:                cfg.SupportResistance.MinTouches,
			MinDistanceBetweenTouches: cfg.SupportResistance.MinDistanceBetweenTouches,
			TolerancePips:             cfg.SupportResistance.TolerancePips,
			MinRegionSeparation:       cfg.SupportResistance.MinRegionSeparation,
		},
		MinDistancePips: cfg.MinDistancePips,
		MinRetracement:  cfg.MinRetracementPercent,
		Period:          cfg.Period(),
		EarlyWindow:     cfg.EntryWindow(),
	})

	deps := engine.Deps{Feed: feed, Notifier: notifier, Board: board, Log: log}
	if gate != nil {
		deps.News = gate
	}
	eng := engine.New(engine.OptionsFromConfig(cfg), analyzer, deps)

	srv, err := status.NewServer(status.Config{
		Addr:   cfg.App.HTTPAddr,
		Source: eng.Session(),
		Board:  board,
		Ledger: ledger,
		News:   gate,
		Queue:  notifier,
	})
	if err != nil {
		return fmt.Errorf("build status server: %w", err)
	}

	log.Info().
		Strs("symbols", symbols).
		Str("feed", feed.Provider()).
		Str("notifier", provider.Name()).
		Bool("news", gate != nil).
		Str("addr", cfg.App.HTTPAddr).
		Msg("signaler started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return feed.Run(gctx) })
	g.Go(func() error { return gate.Run(gctx) })
	g.Go(func() error { return notifier.Run(gctx) })
	g.Go(func() error { return srv.Start(gctx) })
	g.Go(func() error { return eng.Run(gctx) })

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("signaler stopped")
	}
	log.Info().Msg("shutting down")
	fmt.Fprintln(stdout, paper.RenderStats(board.Snapshot(), board.BySymbol()))
	return nil
}
