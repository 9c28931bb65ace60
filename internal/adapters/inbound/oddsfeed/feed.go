// Package oddsfeed reads the scraped 1X2 odds file consumed by fixture
// scoring.
package oddsfeed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charleschow/match-features/internal/core/match"
	"github.com/charleschow/match-features/internal/core/odds"
	"github.com/charleschow/match-features/internal/core/scoring"
	"github.com/charleschow/match-features/internal/telemetry"
)

// entry is one feed line. Prices are sometimes quoted ("2.10", "2,10") and
// sometimes bare numbers.
type entry struct {
	Home   string          `json:"home"`
	Away   string          `json:"away"`
	One    json.RawMessage `json:"1"`
	Draw   json.RawMessage `json:"X"`
	Two    json.RawMessage `json:"2"`
	Source string          `json:"source"`
}

// Read decodes a feed. Unreadable prices become odds.Neutral, which the
// scorer treats as "no market view" for that fixture.
func Read(r io.Reader) ([]scoring.Fixture, error) {
	var entries []entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode odds feed: %w", err)
	}

	out := make([]scoring.Fixture, 0, len(entries))
	for _, e := range entries {
		if e.Home == "" || e.Away == "" {
			continue
		}
		h, okH := price(e.One)
		d, okD := price(e.Draw)
		a, okA := price(e.Two)
		if !okH || !okD || !okA {
			telemetry.Metrics.OddsFallbacks.Inc()
			telemetry.Debugf("oddsfeed: %s v %s has unreadable prices (source=%s)", e.Home, e.Away, e.Source)
		}
		out = append(out, scoring.Fixture{
			HomeTeam: e.Home,
			AwayTeam: e.Away,
			Odds:     match.Odds{Home: h, Draw: d, Away: a},
		})
	}
	return out, nil
}

func price(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return odds.Neutral, false
	}
	if raw[0] == '"' {
		s, err := strconv.Unquote(string(raw))
		if err != nil {
			return odds.Neutral, false
		}
		return odds.ParseDecimal(s)
	}
	return odds.ParseDecimal(string(raw))
}
