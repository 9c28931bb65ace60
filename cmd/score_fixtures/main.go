package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charleschow/match-features/internal/adapters/inbound/oddsfeed"
	"github.com/charleschow/match-features/internal/adapters/outbound/discord"
	"github.com/charleschow/match-features/internal/config"
	"github.com/charleschow/match-features/internal/core/scoring"
	"github.com/charleschow/match-features/internal/core/teams"
	"github.com/charleschow/match-features/internal/core/training"
	"github.com/charleschow/match-features/internal/events"
	"github.com/charleschow/match-features/internal/fanout"
	"github.com/charleschow/match-features/internal/telemetry"
)

type session struct {
	league    string
	store     *training.FeatureStore
	feed      *oddsfeed.Cache
	resolver  *teams.Resolver
	predictor scoring.Predictor
	threshold float64
	bus       *events.Bus

	runID  string
	scorer *scoring.Scorer
}

func main() {
	league := flag.String("league", "", "league whose latest feature run is scored (default: first of LEAGUES)")
	once := flag.Bool("once", false, "score one cycle and exit")
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

	store, err := training.OpenFeatureStore(cfg.FeaturesDBPath, cfg.KeepRuns)
	if err != nil {
		telemetry.Errorf("feature store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	code := *league
	if code == "" {
		code = cfg.Leagues[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	notifier := discord.NewNotifier(cfg.DiscordWebhookURL)
	bus.SubscribeLeague(events.EventValueBet, code, func(e events.Event) error {
		f, ok := e.Payload.(events.FixtureScoredEvent)
		if !ok {
			return nil
		}
		telemetry.Infof("[%s] VALUE %s v %s  pick=%s  edge=%+.1f%%", e.League, f.HomeTeam, f.AwayTeam, f.Pick, f.Edge*100)
		return notifier.ValueBet(ctx, e.League, f)
	})

	if !*once && cfg.FanoutPort > 0 {
		srv := fanout.NewServer(bus)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.FanoutPort); err != nil {
				telemetry.Errorf("fanout: %v", err)
			}
		}()
	}

	s := &session{
		league:    code,
		store:     store,
		feed:      oddsfeed.NewCache(cfg.OddsFeedPath, cfg.ScoreInterval/2),
		resolver:  teams.NewResolver(aliases),
		predictor: scoring.NewEloPredictor(pc.Ratings.HomeAdvantage),
		threshold: pc.ValueThreshold,
		bus:       bus,
	}

	telemetry.Infof("Scoring %s fixtures from %s every %s (%d fixture / %d value-bet subscribers)",
		code, cfg.OddsFeedPath, cfg.ScoreInterval,
		bus.Handlers(events.EventFixtureScored, code), bus.Handlers(events.EventValueBet, code))
	s.cycle(ctx)
	if *once {
		return
	}

	ticker := time.NewTicker(cfg.ScoreInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			telemetry.Infof("Scorer shutdown  scored=%d  unscored=%d  value=%d  odds_fallbacks=%d",
				telemetry.Metrics.FixturesScored.Value(),
				telemetry.Metrics.FixturesUnscored.Value(),
				telemetry.Metrics.ValueBets.Value(),
				telemetry.Metrics.OddsFallbacks.Value(),
			)
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *session) cycle(ctx context.Context) {
	if err := s.refreshScorer(ctx); err != nil {
		telemetry.Warnf("[%s] feature run: %v", s.league, err)
		return
	}
	fixtures, err := s.feed.Fixtures(ctx)
	if err != nil {
		telemetry.Warnf("[%s] odds feed: %v", s.league, err)
		return
	}

	scored := s.scorer.ScoreAll(fixtures)
	failed := 0
	for _, sc := range scored {
		evt := toEvent(sc)
		failed += s.bus.Publish(events.New(events.EventFixtureScored, s.league, evt))
		if sc.Value {
			failed += s.bus.Publish(events.New(events.EventValueBet, s.league, evt))
		}
	}
	telemetry.Infof("[%s] scored %d/%d fixtures", s.league, len(scored), len(fixtures))
	if failed > 0 {
		telemetry.Warnf("[%s] %d subscriber deliveries failed this cycle", s.league, failed)
	}
}

// refreshScorer rebuilds the scorer when a newer feature run exists.
func (s *session) refreshScorer(ctx context.Context) error {
	run, err := s.store.LatestRun(ctx, s.league)
	if err != nil {
		return err
	}
	if run.ID == s.runID && s.scorer != nil {
		return nil
	}
	tbl, err := s.store.LoadRun(ctx, run.ID)
	if err != nil {
		return err
	}
	if run.AliasVersion != s.resolver.Version() {
		telemetry.Warnf("[%s] run %s built with aliases v%d, scoring with v%d",
			s.league, run.ID, run.AliasVersion, s.resolver.Version())
	}
	s.scorer = scoring.NewScorer(tbl, s.resolver, s.predictor, s.threshold)
	s.runID = run.ID
	telemetry.Infof("[%s] using feature run %s (%d rows, %s)", s.league, run.ID, run.Rows, run.CreatedAt.Format(time.RFC3339))
	return nil
}

func toEvent(sc scoring.Scored) events.FixtureScoredEvent {
	evt := events.FixtureScoredEvent{
		HomeTeam:  sc.HomeTeam,
		AwayTeam:  sc.AwayTeam,
		HomeID:    sc.HomeID,
		AwayID:    sc.AwayID,
		Exact:     sc.Exact,
		OddsHome:  sc.Odds.Home,
		OddsDraw:  sc.Odds.Draw,
		OddsAway:  sc.Odds.Away,
		ModelHome: sc.Model.Home,
		ModelDraw: sc.Model.Draw,
		ModelAway: sc.Model.Away,
		EVHome:    sc.EVHome,
		EVDraw:    sc.EVDraw,
		EVAway:    sc.EVAway,
		Value:     sc.Value,
		Pick:      string(sc.Pick),
		Edge:      sc.Edge,
	}
	if sc.MarketOK {
		h, d, a := sc.Market.Home, sc.Market.Draw, sc.Market.Away
		evt.MarketHome, evt.MarketDraw, evt.MarketAway = &h, &d, &a
	}
	return evt
}
