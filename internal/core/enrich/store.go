// Package enrich resolves per-season static team attributes (overall rating
// and market value) from current and historical snapshots.
package enrich

import (
	"sort"

	"github.com/charleschow/match-features/internal/core/teams"
)

// Attributes are the static values attached to one side of a feature row.
type Attributes struct {
	Rating      int
	MarketValue float64 // millions

	// Defaulted is set when either value fell through to the configured default.
	Defaulted bool
}

// Defaults are used when no snapshot knows the team.
type Defaults struct {
	Rating      int
	MarketValue float64
}

func DefaultDefaults() Defaults {
	return Defaults{Rating: 75, MarketValue: 10.0}
}

// Snapshot is the raw static data keyed by source team name.
type Snapshot struct {
	// CurrentFrom is the first season year covered by the current snapshot.
	CurrentFrom    int
	CurrentRatings map[string]int
	CurrentValues  map[string]float64

	HistoricalRatings map[int]map[string]int
	HistoricalValues  map[int]map[string]float64
}

type entry struct {
	name  string
	value float64
}

// table is one attribute across all years, names kept in sorted order so
// resolver picks are deterministic.
type table struct {
	current map[string]float64 // canonical id → value
	years   []int
	hist    map[int][]entry
	names   map[int][]string
}

// Store answers Get lookups. Immutable after construction and safe for
// concurrent readers.
type Store struct {
	resolver    *teams.Resolver
	currentFrom int
	defaults    Defaults
	ratings     table
	values      table
}

func NewStore(r *teams.Resolver, snap Snapshot, d Defaults) *Store {
	ratingsCur := make(map[string]float64, len(snap.CurrentRatings))
	for k, v := range snap.CurrentRatings {
		ratingsCur[k] = float64(v)
	}
	ratingsHist := make(map[int]map[string]float64, len(snap.HistoricalRatings))
	for y, m := range snap.HistoricalRatings {
		conv := make(map[string]float64, len(m))
		for k, v := range m {
			conv[k] = float64(v)
		}
		ratingsHist[y] = conv
	}
	return &Store{
		resolver:    r,
		currentFrom: snap.CurrentFrom,
		defaults:    d,
		ratings:     buildTable(r, ratingsCur, ratingsHist),
		values:      buildTable(r, snap.CurrentValues, snap.HistoricalValues),
	}
}

func buildTable(r *teams.Resolver, current map[string]float64, hist map[int]map[string]float64) table {
	t := table{
		current: make(map[string]float64, len(current)),
		hist:    make(map[int][]entry, len(hist)),
		names:   make(map[int][]string, len(hist)),
	}
	for name, v := range current {
		t.current[r.Canonical(name)] = v
	}
	for y, m := range hist {
		es := make([]entry, 0, len(m))
		for name, v := range m {
			es = append(es, entry{name: name, value: v})
		}
		sort.Slice(es, func(i, j int) bool { return es[i].name < es[j].name })
		names := make([]string, len(es))
		for i, e := range es {
			names[i] = e.name
		}
		t.years = append(t.years, y)
		t.hist[y] = es
		t.names[y] = names
	}
	sort.Ints(t.years)
	return t
}

// Get returns team's attributes for the season starting in season. Rating
// and market value are resolved independently through the same order:
// current snapshot, historical exact year, nearest historical year,
// defaults.
func (s *Store) Get(team string, season int) Attributes {
	rating, okR := s.lookup(&s.ratings, team, season)
	value, okV := s.lookup(&s.values, team, season)

	out := Attributes{Rating: s.defaults.Rating, MarketValue: s.defaults.MarketValue}
	if okR {
		out.Rating = int(rating)
	}
	if okV {
		out.MarketValue = value
	}
	out.Defaulted = !okR || !okV
	return out
}

func (s *Store) lookup(t *table, team string, season int) (float64, bool) {
	if season >= s.currentFrom && len(t.current) > 0 {
		if v, ok := t.current[s.resolver.Canonical(team)]; ok {
			return v, true
		}
	}
	if v, ok := s.inYear(t, team, season); ok {
		return v, true
	}

	// Nearest year holding the team; ties go to the earlier year.
	best, bestDist, found := 0.0, 0, false
	for _, y := range t.years {
		if y == season {
			continue
		}
		d := y - season
		if d < 0 {
			d = -d
		}
		if found && d >= bestDist {
			continue
		}
		if v, ok := s.inYear(t, team, y); ok {
			best, bestDist, found = v, d, true
		}
	}
	return best, found
}

func (s *Store) inYear(t *table, team string, year int) (float64, bool) {
	es, ok := t.hist[year]
	if !ok {
		return 0, false
	}
	i := s.resolver.Pick(team, t.names[year])
	if i < 0 {
		return 0, false
	}
	return es[i].value, true
}
