// Package staticdata loads the SoFIFA and Transfermarkt snapshots that feed
// the enrichment store.
package staticdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charleschow/match-features/internal/core/enrich"
	"github.com/charleschow/match-features/internal/telemetry"
)

// File names inside the static directory.
const (
	RatingsHistoryFile = "sofifa_history.json"
	ValuesHistoryFile  = "transfermarkt_history.json"
	RatingsCurrentFile = "fifa_ratings_current.json"
	ValuesCurrentFile  = "market_values_current.json"
)

// historyEntry is one scraped team line. Ratings and values arrive as
// either JSON numbers or strings depending on the scraper run.
type historyEntry struct {
	Team  string    `json:"team"`
	OVA   flexValue `json:"ova"`
	Value flexValue `json:"value"`
}

type flexValue struct {
	raw string
	set bool
}

func (f *flexValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f.raw, f.set = s, s != ""
		return nil
	}
	f.raw, f.set = string(b), true
	return nil
}

func (f flexValue) rating() (int, bool) {
	if !f.set {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(f.raw), 64)
	if err != nil || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return int(v), true
}

func (f flexValue) millions() (float64, bool) {
	if !f.set {
		return 0, false
	}
	return enrich.ParseMarketValue(f.raw)
}

// Load reads every snapshot file under dir. Missing files leave their part
// of the snapshot empty so lookups fall through to defaults; malformed files
// are errors. Unparseable individual values are skipped.
func Load(dir string, currentFrom int) (enrich.Snapshot, error) {
	snap := enrich.Snapshot{
		CurrentFrom:       currentFrom,
		CurrentRatings:    map[string]int{},
		CurrentValues:     map[string]float64{},
		HistoricalRatings: map[int]map[string]int{},
		HistoricalValues:  map[int]map[string]float64{},
	}

	var ratingsHist, valuesHist map[string][]historyEntry
	var ratingsCur, valuesCur map[string]flexValue
	files := []struct {
		name string
		dst  any
	}{
		{RatingsHistoryFile, &ratingsHist},
		{ValuesHistoryFile, &valuesHist},
		{RatingsCurrentFile, &ratingsCur},
		{ValuesCurrentFile, &valuesCur},
	}
	for _, f := range files {
		found, err := readJSON(filepath.Join(dir, f.name), f.dst)
		if err != nil {
			return enrich.Snapshot{}, err
		}
		if !found {
			telemetry.Warnf("staticdata: %s not found, using defaults", f.name)
		}
	}

	skipped := 0
	for yearStr, entries := range ratingsHist {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			skipped += len(entries)
			continue
		}
		m := make(map[string]int, len(entries))
		for _, e := range entries {
			if v, ok := e.OVA.rating(); ok && e.Team != "" {
				m[e.Team] = v
			} else {
				skipped++
			}
		}
		snap.HistoricalRatings[year] = m
	}
	for yearStr, entries := range valuesHist {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			skipped += len(entries)
			continue
		}
		m := make(map[string]float64, len(entries))
		for _, e := range entries {
			if v, ok := e.Value.millions(); ok && e.Team != "" {
				m[e.Team] = v
			} else {
				skipped++
			}
		}
		snap.HistoricalValues[year] = m
	}
	for team, fv := range ratingsCur {
		if v, ok := fv.rating(); ok {
			snap.CurrentRatings[team] = v
		} else {
			skipped++
		}
	}
	for team, fv := range valuesCur {
		if v, ok := fv.millions(); ok {
			snap.CurrentValues[team] = v
		} else {
			skipped++
		}
	}

	telemetry.Infof("staticdata: %d current ratings, %d current values, %d rating years, %d value years (%d entries skipped)",
		len(snap.CurrentRatings), len(snap.CurrentValues),
		len(snap.HistoricalRatings), len(snap.HistoricalValues), skipped)
	return snap, nil
}

func readJSON(path string, dst any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return true, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return true, nil
}
