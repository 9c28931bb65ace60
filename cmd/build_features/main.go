package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/charleschow/match-features/internal/adapters/inbound/footballdata"
	"github.com/charleschow/match-features/internal/adapters/inbound/staticdata"
	"github.com/charleschow/match-features/internal/adapters/outbound/discord"
	"github.com/charleschow/match-features/internal/config"
	"github.com/charleschow/match-features/internal/core/enrich"
	"github.com/charleschow/match-features/internal/core/pipeline"
	"github.com/charleschow/match-features/internal/core/teams"
	"github.com/charleschow/match-features/internal/core/training"
	"github.com/charleschow/match-features/internal/events"
	"github.com/charleschow/match-features/internal/telemetry"
)

// downloadInterval spaces requests to football-data.co.uk.
const downloadInterval = 2 * time.Second

type builder struct {
	cfg        *config.Config
	pc         config.PipelineConfig
	resolver   *teams.Resolver
	static     *enrich.Store
	store      *training.FeatureStore
	downloader *footballdata.Client
	notifier   *discord.Notifier
	bus        *events.Bus
}

func main() {
	leaguesFlag := flag.String("leagues", "", "comma-separated league codes (default: LEAGUES env)")
	download := flag.Bool("download", false, "download season files before building")
	flag.Parse()

	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))

	pc, err := config.LoadPipeline(cfg.PipelineConfigPath)
	if err != nil {
		telemetry.Errorf("pipeline config: %v", err)
		os.Exit(1)
	}

	aliases, err := teams.LoadAliases(pc.AliasesPath)
	if err != nil {
		telemetry.Errorf("aliases: %v", err)
		os.Exit(1)
	}
	resolver := teams.NewResolver(aliases)

	snap, err := staticdata.Load(cfg.StaticDir, pc.Static.CurrentFrom)
	if err != nil {
		telemetry.Errorf("static data: %v", err)
		os.Exit(1)
	}

	store, err := training.OpenFeatureStore(cfg.FeaturesDBPath, cfg.KeepRuns)
	if err != nil {
		telemetry.Errorf("feature store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	leagues := cfg.Leagues
	if *leaguesFlag != "" {
		leagues = strings.Split(*leaguesFlag, ",")
	}

	b := &builder{
		cfg:      cfg,
		pc:       pc,
		resolver: resolver,
		static:   enrich.NewStore(resolver, snap, pc.StaticDefaults()),
		store:    store,
		notifier: discord.NewNotifier(cfg.DiscordWebhookURL),
		bus:      events.NewBus(),
	}
	if *download || cfg.Download {
		b.downloader = footballdata.NewClient(downloadInterval)
	}
	b.bus.Subscribe(events.EventRunCompleted, func(e events.Event) error {
		rc, ok := e.Payload.(events.RunCompletedEvent)
		if !ok {
			return fmt.Errorf("unexpected payload %T", e.Payload)
		}
		telemetry.Infof("[%s] run %s complete  rows=%d  played=%d  fixtures=%d  (%dms)",
			rc.League, rc.RunID, rc.Rows, rc.Played, rc.Fixtures, rc.DurationMS)
		return nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry.Infof("Building features for %s (aliases v%d)", strings.Join(leagues, ", "), resolver.Version())

	// One pipeline per league; each owns its state. A failure cancels the rest.
	g, gctx := errgroup.WithContext(ctx)
	for _, code := range leagues {
		code := strings.TrimSpace(code)
		g.Go(func() error {
			err := b.buildLeague(gctx, code)
			if err != nil && gctx.Err() == nil {
				if nerr := b.notifier.RunFailed(context.Background(), code, err); nerr != nil {
					telemetry.Warnf("discord: %v", nerr)
				}
			}
			if err != nil {
				return fmt.Errorf("%s: %w", code, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		telemetry.Errorf("build failed: %v", err)
		os.Exit(1)
	}

	telemetry.Infof("Build complete  matches=%d  fixtures=%d  static_defaults=%d  p50=%s",
		telemetry.Metrics.MatchesProcessed.Value(),
		telemetry.Metrics.FixturesSeen.Value(),
		telemetry.Metrics.StaticDefaults.Value(),
		telemetry.Metrics.PipelineLatency.P50(),
	)
}

func (b *builder) buildLeague(ctx context.Context, code string) error {
	start := time.Now()
	lc, configured := b.pc.Leagues[code]
	if !configured {
		telemetry.Warnf("[%s] league not in pipeline config, using default coefficients", code)
	}

	if b.downloader != nil && configured {
		if _, err := b.downloader.DownloadLeague(ctx, b.cfg.DataDir, code, lc.SeasonURLs()); err != nil {
			return fmt.Errorf("download: %w", err)
		}
	}

	matches, caps, err := footballdata.LoadDir(b.cfg.DataDir, code)
	if err != nil {
		return err
	}

	tbl, err := pipeline.New(b.pc.Pipeline(code), b.resolver, b.static).Run(ctx, matches, caps)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	tbl.League = code

	if err := tbl.Validate(b.pc.ModelFeatures); err != nil {
		return err
	}

	// Nothing is written for a league cancelled mid-build.
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(b.cfg.OutputCSVDir, code+"_features.csv")
	if err := writeCSV(path, tbl); err != nil {
		return err
	}
	run, err := b.store.SaveRun(ctx, code, b.resolver.Version(), tbl)
	if err != nil {
		return err
	}

	split := tbl.SplitBySeason(b.pc.TestSeason)
	telemetry.Infof("[%s] split: train=%d test=%d (test season %d, substituted=%v)",
		code, len(split.Train), len(split.Test), split.TestSeason, split.Substituted)

	played := 0
	for _, r := range tbl.Rows {
		if r.Played() {
			played++
		}
	}
	b.bus.Publish(events.New(events.EventRunCompleted, code, events.RunCompletedEvent{
		League:     code,
		RunID:      run.ID,
		Rows:       len(tbl.Rows),
		Played:     played,
		Fixtures:   len(tbl.Rows) - played,
		DurationMS: time.Since(start).Milliseconds(),
	}))
	return nil
}

// writeCSV replaces path atomically so readers never see a partial table.
func writeCSV(path string, tbl *pipeline.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp csv: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(tbl.Header()); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(tbl.Records()); err != nil {
		tmp.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close csv: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename csv: %w", err)
	}
	telemetry.Infof("wrote %s (%d rows)", path, len(tbl.Rows))
	return nil
}
