// Package footballdata reads football-data.co.uk season CSVs into match
// records and downloads them politely.
package footballdata

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/charleschow/match-features/internal/core/match"
	"github.com/charleschow/match-features/internal/telemetry"
)

// ErrNoFiles is returned by LoadDir when no CSV matches the division.
var ErrNoFiles = errors.New("no match files found")

var dateLayouts = []string{"02/01/2006", "02/01/06", "2006-01-02"}

var seasonInName = regexp.MustCompile(`(19|20)\d{2}`)

// Parse reads one CSV. season overrides the date-derived season when
// non-zero. Rows without a date or team names are skipped.
func Parse(r io.Reader, div string, season int) ([]match.Match, match.Capabilities, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, match.Capabilities{}, fmt.Errorf("read csv: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(raw) {
		// Older season files are Latin-1.
		if raw, err = charmap.ISO8859_1.NewDecoder().Bytes(raw); err != nil {
			return nil, match.Capabilities{}, fmt.Errorf("decode latin-1: %w", err)
		}
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, match.Capabilities{}, fmt.Errorf("read header: %w", err)
	}

	colIdx := make(map[string]int)
	for i, h := range header {
		colIdx[strings.TrimSpace(h)] = i
	}

	for _, r := range []string{"Date", "HomeTeam", "AwayTeam"} {
		if _, ok := colIdx[r]; !ok {
			return nil, match.Capabilities{}, fmt.Errorf("missing column: %s", r)
		}
	}
	caps := capabilities(colIdx)

	var matches []match.Match
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		m, ok := parseRow(row, colIdx, caps)
		if !ok {
			skipped++
			continue
		}
		if d := getCol(row, colIdx, "Div"); d != "" {
			m.Div = d
		} else {
			m.Div = div
		}
		m.Season = season
		m.Seq = len(matches)
		m.Caps = &caps
		matches = append(matches, m)
	}
	if skipped > 0 {
		telemetry.Debugf("footballdata: %s skipped %d unreadable rows", div, skipped)
	}
	return matches, caps, nil
}

func capabilities(idx map[string]int) match.Capabilities {
	has := func(cols ...string) bool {
		for _, c := range cols {
			if _, ok := idx[c]; !ok {
				return false
			}
		}
		return true
	}
	return match.Capabilities{
		Outcome:       has("FTHG", "FTAG", "FTR"),
		Shots:         has("HS", "AS"),
		ShotsOnTarget: has("HST", "AST"),
		Fouls:         has("HF", "AF"),
		Cards:         has("HY", "AY", "HR", "AR"),
		Corners:       has("HC", "AC"),
		Odds:          has("B365H", "B365D", "B365A"),
	}
}

func parseRow(row []string, idx map[string]int, caps match.Capabilities) (match.Match, bool) {
	var m match.Match
	date, ok := parseDate(getCol(row, idx, "Date"))
	if !ok {
		return m, false
	}
	m.Date = date
	m.HomeTeam = getCol(row, idx, "HomeTeam")
	m.AwayTeam = getCol(row, idx, "AwayTeam")
	if m.HomeTeam == "" || m.AwayTeam == "" {
		return m, false
	}

	if caps.Outcome {
		hg, okH := getColIntOK(row, idx, "FTHG")
		ag, okA := getColIntOK(row, idx, "FTAG")
		res := match.Result(getCol(row, idx, "FTR"))
		if okH && okA {
			m.Score = &match.Score{Home: hg, Away: ag}
			if !res.Valid() {
				res = resultOf(hg, ag)
			}
			m.Result = res
		}
	}

	m.Box = match.BoxScore{
		HomeShots:         getColFloat(row, idx, "HS"),
		AwayShots:         getColFloat(row, idx, "AS"),
		HomeShotsOnTarget: getColFloat(row, idx, "HST"),
		AwayShotsOnTarget: getColFloat(row, idx, "AST"),
		HomeFouls:         getColFloat(row, idx, "HF"),
		AwayFouls:         getColFloat(row, idx, "AF"),
		HomeYellows:       getColFloat(row, idx, "HY"),
		AwayYellows:       getColFloat(row, idx, "AY"),
		HomeReds:          getColFloat(row, idx, "HR"),
		AwayReds:          getColFloat(row, idx, "AR"),
		HomeCorners:       getColFloat(row, idx, "HC"),
		AwayCorners:       getColFloat(row, idx, "AC"),
	}

	if caps.Odds {
		h, d, a := getColFloat(row, idx, "B365H"), getColFloat(row, idx, "B365D"), getColFloat(row, idx, "B365A")
		if h > 0 && d > 0 && a > 0 {
			m.Odds = &match.Odds{Home: h, Draw: d, Away: a}
		}
	}
	return m, true
}

func resultOf(hg, ag int) match.Result {
	switch {
	case hg > ag:
		return match.HomeWin
	case hg < ag:
		return match.AwayWin
	default:
		return match.Draw
	}
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SeasonFromFilename extracts the season start year from names such as
// "E0-2024-25.csv". Zero when the name carries no year.
func SeasonFromFilename(name string) int {
	m := seasonInName.FindString(filepath.Base(name))
	if m == "" {
		return 0
	}
	y, _ := strconv.Atoi(m)
	return y
}

type dedupeKey struct {
	date       time.Time
	home, away string
}

// LoadDir parses every "<div>*.csv" file under dir, merges them in file-name
// order and keeps the last occurrence of each (date, home, away). The
// returned capabilities are those shared by every file; each match keeps
// its own file's set in Caps.
func LoadDir(dir, div string) ([]match.Match, match.Capabilities, error) {
	files, err := filepath.Glob(filepath.Join(dir, div+"*.csv"))
	if err != nil {
		return nil, match.Capabilities{}, fmt.Errorf("glob %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, match.Capabilities{}, fmt.Errorf("%w: %s/%s*.csv", ErrNoFiles, dir, div)
	}
	sort.Strings(files)

	var all []match.Match
	caps := match.Full()
	var union match.Capabilities
	perFile := make([]match.Capabilities, len(files))
	for i, f := range files {
		ms, c, err := parseFile(f, div)
		if err != nil {
			return nil, match.Capabilities{}, fmt.Errorf("%s: %w", filepath.Base(f), err)
		}
		perFile[i] = c
		caps = caps.Merge(c)
		union = union.Union(c)
		all = append(all, ms...)
	}
	for i, c := range perFile {
		if missing := c.Missing(union); len(missing) > 0 {
			telemetry.Warnf("footballdata: %s lacks %s; those features degrade for its rows only",
				filepath.Base(files[i]), strings.Join(missing, ", "))
		}
	}

	last := make(map[dedupeKey]int, len(all))
	for i, m := range all {
		last[dedupeKey{m.Date, m.HomeTeam, m.AwayTeam}] = i
	}
	out := make([]match.Match, 0, len(last))
	for i, m := range all {
		if last[dedupeKey{m.Date, m.HomeTeam, m.AwayTeam}] != i {
			continue
		}
		m.Seq = len(out)
		out = append(out, m)
	}
	telemetry.Infof("footballdata: %s loaded %d files, %d matches (%d duplicates dropped)",
		div, len(files), len(out), len(all)-len(out))
	return out, caps, nil
}

func parseFile(path, div string) ([]match.Match, match.Capabilities, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, match.Capabilities{}, err
	}
	defer f.Close()
	return Parse(f, div, SeasonFromFilename(path))
}

func getCol(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func getColIntOK(row []string, idx map[string]int, name string) (int, bool) {
	s := getCol(row, idx, name)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	// Some seasons store goals as "2.0".
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

func getColFloat(row []string, idx map[string]int, name string) float64 {
	s := getCol(row, idx, name)
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
