// Package scoring matches live fixtures to their latest feature rows and
// flags prices whose expected value clears a threshold.
package scoring

import (
	"errors"
	"fmt"
	"slices"

	"github.com/charleschow/match-features/internal/core/match"
	"github.com/charleschow/match-features/internal/core/odds"
	"github.com/charleschow/match-features/internal/core/pipeline"
	"github.com/charleschow/match-features/internal/core/teams"
	"github.com/charleschow/match-features/internal/telemetry"
)

// ErrUnknownTeam means a fixture side has no feature history.
var ErrUnknownTeam = errors.New("team has no feature rows")

// Fixture is one odds-feed entry.
type Fixture struct {
	HomeTeam string
	AwayTeam string
	Odds     match.Odds
}

// Outcome codes reuse the football-data result letters.
type Outcome = match.Result

// Scored is a fixture with model and market views.
type Scored struct {
	Fixture
	HomeID string
	AwayID string

	// Exact is set when the pair's own latest row supplied the features;
	// otherwise each side came from its team's latest row.
	Exact bool

	Model    Probabilities
	Market   Probabilities
	MarketOK bool

	EVHome float64
	EVDraw float64
	EVAway float64

	Value bool
	Pick  Outcome
	Edge  float64 // EV of Pick
}

type teamRow struct {
	row  *pipeline.Row
	home bool
}

type pairKey struct{ home, away string }

// Scorer is immutable after construction.
type Scorer struct {
	resolver  *teams.Resolver
	predictor Predictor
	threshold float64

	pairs    map[pairKey]*pipeline.Row
	latest   map[string]teamRow
	known    []string
	suffixes []string
}

func NewScorer(t *pipeline.Table, r *teams.Resolver, p Predictor, threshold float64) *Scorer {
	s := &Scorer{
		resolver:  r,
		predictor: p,
		threshold: threshold,
		pairs:     make(map[pairKey]*pipeline.Row),
		latest:    make(map[string]teamRow),
		suffixes:  pipeline.FeatureSuffixes(),
	}
	// Rows are in processing order, so later writes are later matches.
	for i := range t.Rows {
		row := &t.Rows[i]
		h, a := s.ids(row)
		s.pairs[pairKey{h, a}] = row
		s.latest[h] = teamRow{row: row, home: true}
		s.latest[a] = teamRow{row: row, home: false}
	}
	for id := range s.latest {
		s.known = append(s.known, id)
	}
	slices.Sort(s.known)
	return s
}

func (s *Scorer) ids(r *pipeline.Row) (string, string) {
	h, a := r.HomeID, r.AwayID
	if h == "" {
		h = s.resolver.Canonical(r.HomeTeam)
	}
	if a == "" {
		a = s.resolver.Canonical(r.AwayTeam)
	}
	return h, a
}

// resolve maps a feed name to a known team id.
func (s *Scorer) resolve(name string) (string, bool) {
	id := s.resolver.Canonical(name)
	if _, ok := s.latest[id]; ok {
		return id, true
	}
	if i := s.resolver.Pick(name, s.known); i >= 0 {
		return s.known[i], true
	}
	return "", false
}

// Lookup is the model input assembled for one fixture.
type Lookup struct {
	Features Features
	HomeID   string
	AwayID   string
	Exact    bool
}

// Lookup finds the fixture's features: the pair's own latest row when one
// exists, otherwise each team's latest row read from the side it played.
func (s *Scorer) Lookup(f Fixture) (Lookup, error) {
	h, ok := s.resolve(f.HomeTeam)
	if !ok {
		return Lookup{}, fmt.Errorf("%w: %s", ErrUnknownTeam, f.HomeTeam)
	}
	a, ok := s.resolve(f.AwayTeam)
	if !ok {
		return Lookup{}, fmt.Errorf("%w: %s", ErrUnknownTeam, f.AwayTeam)
	}

	out := Lookup{Features: make(Features, 2*len(s.suffixes)), HomeID: h, AwayID: a}
	if row, ok := s.pairs[pairKey{h, a}]; ok {
		out.Exact = true
		for _, suf := range s.suffixes {
			out.Features["Home_"+suf] = row.Side(true, suf)
			out.Features["Away_"+suf] = row.Side(false, suf)
		}
		return out, nil
	}

	hr, ar := s.latest[h], s.latest[a]
	for _, suf := range s.suffixes {
		out.Features["Home_"+suf] = hr.row.Side(hr.home, suf)
		out.Features["Away_"+suf] = ar.row.Side(ar.home, suf)
	}
	return out, nil
}

// Score runs the predictor and computes per-outcome expected values.
func (s *Scorer) Score(f Fixture) (Scored, error) {
	l, err := s.Lookup(f)
	if err != nil {
		return Scored{}, err
	}
	p, err := s.predictor.Predict(l.Features)
	if err != nil {
		return Scored{}, fmt.Errorf("predict %s v %s: %w", f.HomeTeam, f.AwayTeam, err)
	}

	out := Scored{Fixture: f, HomeID: l.HomeID, AwayID: l.AwayID, Exact: l.Exact, Model: p}
	if mh, md, ma, ok := odds.Fair(f.Odds); ok {
		out.Market = Probabilities{Home: mh, Draw: md, Away: ma}
		out.MarketOK = true
	}
	out.EVHome = odds.ExpectedValue(p.Home, f.Odds.Home)
	out.EVDraw = odds.ExpectedValue(p.Draw, f.Odds.Draw)
	out.EVAway = odds.ExpectedValue(p.Away, f.Odds.Away)

	out.Pick, out.Edge = match.HomeWin, out.EVHome
	if out.EVDraw > out.Edge {
		out.Pick, out.Edge = match.Draw, out.EVDraw
	}
	if out.EVAway > out.Edge {
		out.Pick, out.Edge = match.AwayWin, out.EVAway
	}
	out.Value = out.Edge > s.threshold
	return out, nil
}

// ScoreAll scores every fixture it can. Unknown teams are logged and skipped.
func (s *Scorer) ScoreAll(fs []Fixture) []Scored {
	out := make([]Scored, 0, len(fs))
	for _, f := range fs {
		sc, err := s.Score(f)
		if err != nil {
			telemetry.Metrics.FixturesUnscored.Inc()
			telemetry.Warnf("score: %v", err)
			continue
		}
		telemetry.Metrics.FixturesScored.Inc()
		if sc.Value {
			telemetry.Metrics.ValueBets.Inc()
		}
		out = append(out, sc)
	}
	return out
}
