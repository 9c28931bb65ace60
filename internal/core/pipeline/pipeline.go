// Package pipeline replays a match log in chronological order and turns it
// into the leakage-free feature table.
package pipeline

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/charleschow/match-features/internal/core/enrich"
	"github.com/charleschow/match-features/internal/core/form"
	"github.com/charleschow/match-features/internal/core/h2h"
	"github.com/charleschow/match-features/internal/core/match"
	"github.com/charleschow/match-features/internal/core/odds"
	"github.com/charleschow/match-features/internal/core/ratings"
	"github.com/charleschow/match-features/internal/core/teams"
	"github.com/charleschow/match-features/internal/telemetry"
)

var (
	// ErrMissingOutcome means the log lacks FTHG/FTAG/FTR.
	ErrMissingOutcome = errors.New("match log has no outcome columns")
	// ErrMissingFeature means a declared model feature is absent from the final table.
	ErrMissingFeature = errors.New("model feature missing from feature table")
)

// Config bundles the constants of every stateful component.
type Config struct {
	Ratings      ratings.Params
	Form         form.Params
	H2H          h2h.Params
	Coefficients form.Coefficients

	MarketWisdomDefault float64
}

func DefaultConfig() Config {
	return Config{
		Ratings:             ratings.DefaultParams(),
		Form:                form.DefaultParams(),
		H2H:                 h2h.DefaultParams(),
		Coefficients:        form.DefaultCoefficients(),
		MarketWisdomDefault: 0.33,
	}
}

// Pipeline is reusable; every Run starts from empty state, so one Pipeline
// per league can run concurrently with others.
type Pipeline struct {
	cfg      Config
	resolver *teams.Resolver
	static   *enrich.Store
}

// New builds a pipeline. static may be nil, in which case every side gets
// the enrichment defaults.
func New(cfg Config, r *teams.Resolver, static *enrich.Store) *Pipeline {
	if r == nil {
		r = teams.NewResolver(teams.DefaultAliases())
	}
	if static == nil {
		static = enrich.NewStore(r, enrich.Snapshot{}, enrich.DefaultDefaults())
	}
	return &Pipeline{cfg: cfg, resolver: r, static: static}
}

// state is everything one Run mutates. Dropped wholesale on cancellation.
type state struct {
	ratings *ratings.Tracker
	form    *form.Aggregator
	h2h     *h2h.Aggregator
}

const cancelCheckEvery = 256

// Run produces one feature row per input match. The input slice is not
// modified. A cancelled run returns ctx.Err() and no table.
func (p *Pipeline) Run(ctx context.Context, matches []match.Match, caps match.Capabilities) (*Table, error) {
	if !caps.Outcome {
		return nil, ErrMissingOutcome
	}
	start := time.Now()

	ms := p.normalize(matches)
	slices.SortStableFunc(ms, func(a, b match.Match) int {
		return a.Date.Compare(b.Date)
	})

	st := state{
		ratings: ratings.NewTracker(p.cfg.Ratings),
		form:    form.NewAggregator(p.cfg.Form),
		h2h:     h2h.NewAggregator(p.cfg.H2H),
	}

	working := newSchema(workingColumns())
	final := newSchema(dropLeaky(working.columns))

	rows := make([]Row, 0, len(ms))
	var played, fixtures, defaulted int64
	for i := range ms {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		m := &ms[i]
		w := make([]float64, len(working.columns))
		rc := rowCaps(caps, m)

		// Reads: every component's pre-match view is taken before any write.
		defaulted += p.readPreMatch(&st, m, rc, working, w)

		if m.Played() {
			mm := form.Derive(m, rc, p.cfg.Coefficients)
			setPostMatch(working, w, mm)

			// Writes.
			hp, ap := m.Points()
			st.ratings.Update(m)
			st.form.Record(m.HomeID, m.Date, mm.Home)
			st.form.Record(m.AwayID, m.Date, mm.Away)
			st.h2h.Record(m.HomeID, m.AwayID, float64(hp), float64(ap))
			played++
		} else {
			fixtures++
		}

		rows = append(rows, newRow(m, final, project(working, final, w)))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	telemetry.Metrics.MatchesProcessed.Add(played)
	telemetry.Metrics.FixturesSeen.Add(fixtures)
	telemetry.Metrics.StaticDefaults.Add(defaulted)
	telemetry.Metrics.PipelineLatency.Record(time.Since(start))
	telemetry.Debugf("pipeline: %d played, %d fixtures, %d teams, %d pairs in %s",
		played, fixtures, st.ratings.Teams(), st.h2h.Pairs(), time.Since(start).Round(time.Millisecond))

	return &Table{schema: final, Rows: rows}, nil
}

// rowCaps prefers the capabilities of the row's own source file, so a legacy
// season missing a column group does not flatten the others.
func rowCaps(logCaps match.Capabilities, m *match.Match) match.Capabilities {
	if m.Caps == nil {
		return logCaps
	}
	return *m.Caps
}

// normalize copies the log, assigns canonical ids and truncates dates to
// day precision.
func (p *Pipeline) normalize(in []match.Match) []match.Match {
	out := make([]match.Match, len(in))
	for i, m := range in {
		m.HomeID = p.resolver.Canonical(m.HomeTeam)
		m.AwayID = p.resolver.Canonical(m.AwayTeam)
		m.Date = match.Day(m.Date)
		if m.Season == 0 {
			m.Season = match.SeasonYear(m.Date)
		}
		out[i] = m
	}
	return out
}

// readPreMatch fills the pre-match feature columns of w. It returns the
// number of sides that fell back to static defaults.
func (p *Pipeline) readPreMatch(st *state, m *match.Match, caps match.Capabilities, s *schema, w []float64) int64 {
	hr, ar := st.ratings.Snapshot(m.HomeID, m.AwayID)
	hf := st.form.Snapshot(m.HomeID, m.Date)
	af := st.form.Snapshot(m.AwayID, m.Date)
	hh, ah := st.h2h.Lookup(m.HomeID, m.AwayID)
	hs := p.static.Get(m.HomeID, m.Season)
	as := p.static.Get(m.AwayID, m.Season)

	var hPrice, aPrice float64
	hasOdds := caps.Odds && m.Odds != nil
	if hasOdds {
		hPrice, aPrice = m.Odds.Home, m.Odds.Away
	}

	p.setSide(s, w, "Home", hr, hf, hh, hs, odds.MarketWisdom(hPrice, hasOdds, p.cfg.MarketWisdomDefault))
	p.setSide(s, w, "Away", ar, af, ah, as, odds.MarketWisdom(aPrice, hasOdds, p.cfg.MarketWisdomDefault))

	var n int64
	if hs.Defaulted {
		n++
	}
	if as.Defaulted {
		n++
	}
	return n
}

func (p *Pipeline) setSide(s *schema, w []float64, side string, r ratings.Rating, f form.Snapshot, h2hPts float64, a enrich.Attributes, wisdom float64) {
	set := func(suffix string, v float64) { w[s.index[sideCol(side, suffix)]] = v }
	set("Elo", r.Elo)
	set("Att_Strength", r.Attack)
	set("Def_Weakness", r.Defense)
	set("FIFA_Ova", float64(a.Rating))
	set("Market_Value", a.MarketValue)
	set("xG_Avg_L5", f.XGAvg)
	set("Streak_L5", f.PointsSum)
	set("H2H_L3", h2hPts)
	set("Pressure_Avg_L5", f.PressureAvg)
	set("Goal_Diff_L5", f.GoalDiffSum)
	set("Rest_Days", f.RestDays)
	set("Field_Tilt_L5", f.FieldTilt)
	set("PDO_L5", f.PDO)
	set("PPDA_Proxy_L5", f.PPDA)
	set("Market_Wisdom", wisdom)
	set("Dominance", Dominance(r.Elo, f.XGAvg, f.PointsSum, p.cfg.Ratings.InitialElo))
}

func setPostMatch(s *schema, w []float64, mm form.MatchMetrics) {
	for i, side := range sides {
		sm := mm.Home
		if i == 1 {
			sm = mm.Away
		}
		w[s.index[postCol(side, "xG")]] = sm.XG
		w[s.index[postCol(side, "Points")]] = sm.Points
		w[s.index[postCol(side, "Pressure")]] = sm.Pressure
		w[s.index[postCol(side, "Goal_Diff")]] = sm.GoalDiff
		w[s.index[postCol(side, "Field_Tilt")]] = sm.FieldTilt
		w[s.index[postCol(side, "PDO")]] = sm.PDO
		w[s.index[postCol(side, "PPDA")]] = sm.PPDA
	}
}

// project copies the published subset of a working record.
func project(from, to *schema, w []float64) []float64 {
	out := make([]float64, len(to.columns))
	for i, c := range to.columns {
		out[i] = w[from.index[c]]
	}
	return out
}

// Dominance blends pre-match strength, chance quality and form into one score.
func Dominance(elo, xgAvg, pointsSum, baseElo float64) float64 {
	if baseElo == 0 {
		baseElo = 1500
	}
	return elo/baseElo*0.4 + xgAvg*0.3 + pointsSum/3*0.3
}

