// Package h2h tracks points earned in mutual meetings per unordered team pair.
package h2h

// Meeting records one played match between the pair.
type Meeting struct {
	Home       string
	HomePoints float64
	AwayPoints float64
}

// Params controls the lookback length and the no-history default.
type Params struct {
	Meetings int
	Default  float64
}

func DefaultParams() Params {
	return Params{Meetings: 3, Default: 1.5}
}

type pairKey struct{ lo, hi string }

func keyOf(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// Aggregator holds every pair's meeting history for one pipeline run.
type Aggregator struct {
	params  Params
	history map[pairKey][]Meeting
}

func NewAggregator(p Params) *Aggregator {
	if p.Meetings < 1 {
		p.Meetings = 1
	}
	return &Aggregator{params: p, history: make(map[pairKey][]Meeting)}
}

// Lookup returns the mean points earned by a and by b over their last
// meetings. Points are attributed by team identity, not by home/away role.
func (g *Aggregator) Lookup(a, b string) (ptsA, ptsB float64) {
	ms := g.history[keyOf(a, b)]
	if len(ms) == 0 {
		return g.params.Default, g.params.Default
	}
	if len(ms) > g.params.Meetings {
		ms = ms[len(ms)-g.params.Meetings:]
	}
	for _, m := range ms {
		if m.Home == a {
			ptsA += m.HomePoints
			ptsB += m.AwayPoints
		} else {
			ptsA += m.AwayPoints
			ptsB += m.HomePoints
		}
	}
	n := float64(len(ms))
	return ptsA / n, ptsB / n
}

// Record appends a played meeting. Only the trailing window is retained.
func (g *Aggregator) Record(home, away string, homePts, awayPts float64) {
	k := keyOf(home, away)
	ms := append(g.history[k], Meeting{Home: home, HomePoints: homePts, AwayPoints: awayPts})
	if len(ms) > g.params.Meetings {
		ms = ms[len(ms)-g.params.Meetings:]
	}
	g.history[k] = ms
}

// Pairs returns the number of pairs with at least one meeting.
func (g *Aggregator) Pairs() int { return len(g.history) }
