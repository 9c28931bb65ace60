package pipeline

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/charleschow/match-features/internal/core/match"
	"github.com/charleschow/match-features/internal/telemetry"
)

const dateLayout = "2006-01-02"

// Row is one match with its pre-match features.
type Row struct {
	Seq      int
	Div      string
	Date     time.Time
	Season   int
	HomeTeam string
	AwayTeam string
	HomeID   string
	AwayID   string
	Score    *match.Score
	Result   match.Result
	Odds     *match.Odds

	schema *schema
	values []float64
}

func newRow(m *match.Match, s *schema, values []float64) Row {
	return Row{
		Seq:      m.Seq,
		Div:      m.Div,
		Date:     m.Date,
		Season:   m.Season,
		HomeTeam: m.HomeTeam,
		AwayTeam: m.AwayTeam,
		HomeID:   m.HomeID,
		AwayID:   m.AwayID,
		Score:    m.Score,
		Result:   m.Result,
		Odds:     m.Odds,
		schema:   s,
		values:   values,
	}
}

// Played reports whether the row carries a final result.
func (r Row) Played() bool {
	return r.Score != nil && r.Result.Valid()
}

// Value returns the named feature.
func (r Row) Value(col string) (float64, bool) {
	if r.schema == nil {
		return 0, false
	}
	i, ok := r.schema.index[col]
	if !ok {
		return 0, false
	}
	return r.values[i], true
}

// Side returns the Home_ or Away_ variant of suffix for the given side.
func (r Row) Side(home bool, suffix string) float64 {
	side := "Away"
	if home {
		side = "Home"
	}
	v, _ := r.Value(sideCol(side, suffix))
	return v
}

// Record renders the row as CSV cells in Header order.
func (r Row) Record() []string {
	out := make([]string, 0, len(IdentityColumns)+len(r.values))
	var fthg, ftag, b365h, b365d, b365a string
	if r.Score != nil {
		fthg, ftag = strconv.Itoa(r.Score.Home), strconv.Itoa(r.Score.Away)
	}
	if r.Odds != nil {
		b365h, b365d, b365a = formatFloat(r.Odds.Home), formatFloat(r.Odds.Draw), formatFloat(r.Odds.Away)
	}
	out = append(out,
		r.Div, r.Date.Format(dateLayout), strconv.Itoa(r.Season),
		r.HomeTeam, r.AwayTeam, r.HomeID, r.AwayID,
		fthg, ftag, string(r.Result), b365h, b365d, b365a,
	)
	for _, v := range r.values {
		out = append(out, formatFloat(v))
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Table is the finished feature table, rows in processing order.
type Table struct {
	League string
	Rows   []Row

	schema *schema
}

// Columns returns the numeric feature columns.
func (t *Table) Columns() []string {
	return slices.Clone(t.schema.columns)
}

// Header is the full CSV header: identity columns then features.
func (t *Table) Header() []string {
	return append(slices.Clone(IdentityColumns), t.schema.columns...)
}

// Records renders every row.
func (t *Table) Records() [][]string {
	out := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Record()
	}
	return out
}

// Validate fails with ErrMissingFeature when any declared model feature is
// absent from the schema.
func (t *Table) Validate(features []string) error {
	var missing []string
	for _, f := range features {
		if _, ok := t.schema.index[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingFeature, missing)
	}
	return nil
}

// Split is a season-based train/test partition over played rows.
type Split struct {
	TestSeason  int
	Substituted bool
	Train       []Row
	Test        []Row
}

// SplitBySeason puts played rows of season test and later into Test. When no
// row belongs to test, the latest season minus one is used instead.
func (t *Table) SplitBySeason(test int) Split {
	latest, found := 0, false
	for _, r := range t.Rows {
		if !r.Played() {
			continue
		}
		if r.Season == test {
			found = true
		}
		latest = max(latest, r.Season)
	}

	s := Split{TestSeason: test}
	if !found && latest > 0 {
		s.TestSeason = latest - 1
		s.Substituted = true
		telemetry.Warnf("test season %d not in data, using %d", test, s.TestSeason)
	}
	for _, r := range t.Rows {
		if !r.Played() {
			continue
		}
		if r.Season >= s.TestSeason {
			s.Test = append(s.Test, r)
		} else {
			s.Train = append(s.Train, r)
		}
	}
	return s
}

// FromRecords rebuilds a table from exported CSV cells. Columns are located
// by header name; any post-match working column is ignored.
func FromRecords(header []string, records [][]string) (*Table, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	for _, c := range []string{"Date", "HomeTeam", "AwayTeam"} {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("feature table: missing column %s", c)
		}
	}

	identity := make(map[string]bool, len(IdentityColumns))
	for _, c := range IdentityColumns {
		identity[c] = true
	}
	var featureCols []string
	for _, h := range header {
		if !identity[h] {
			featureCols = append(featureCols, h)
		}
	}
	featureCols = dropLeaky(featureCols)
	s := newSchema(featureCols)
	src := make([]int, 0, len(featureCols))
	for i, h := range header {
		if _, ok := s.index[h]; ok && !identity[h] {
			src = append(src, i)
		}
	}

	get := func(rec []string, col string) string {
		if i, ok := idx[col]; ok && i < len(rec) {
			return rec[i]
		}
		return ""
	}

	t := &Table{schema: s, Rows: make([]Row, 0, len(records))}
	for n, rec := range records {
		date, err := time.Parse(dateLayout, get(rec, "Date"))
		if err != nil {
			return nil, fmt.Errorf("feature table row %d: %w", n+1, err)
		}
		r := Row{
			Seq:      n,
			Div:      get(rec, "Div"),
			Date:     date,
			HomeTeam: get(rec, "HomeTeam"),
			AwayTeam: get(rec, "AwayTeam"),
			HomeID:   get(rec, "HomeID"),
			AwayID:   get(rec, "AwayID"),
			Result:   match.Result(get(rec, "FTR")),
			schema:   s,
			values:   make([]float64, len(featureCols)),
		}
		r.Season, _ = strconv.Atoi(get(rec, "Season"))
		if r.Season == 0 {
			r.Season = match.SeasonYear(date)
		}
		hg, errH := strconv.Atoi(get(rec, "FTHG"))
		ag, errA := strconv.Atoi(get(rec, "FTAG"))
		if errH == nil && errA == nil {
			r.Score = &match.Score{Home: hg, Away: ag}
		}
		oh, errOH := strconv.ParseFloat(get(rec, "B365H"), 64)
		od, errOD := strconv.ParseFloat(get(rec, "B365D"), 64)
		oa, errOA := strconv.ParseFloat(get(rec, "B365A"), 64)
		if errOH == nil && errOD == nil && errOA == nil {
			r.Odds = &match.Odds{Home: oh, Draw: od, Away: oa}
		}
		for j, i := range src {
			if i < len(rec) {
				r.values[j], _ = strconv.ParseFloat(rec[i], 64)
			}
		}
		t.Rows = append(t.Rows, r)
	}
	return t, nil
}
