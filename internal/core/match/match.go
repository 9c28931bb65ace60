package match

import "time"

// Result is the full-time outcome code used by football-data.co.uk (FTR).
type Result string

const (
	HomeWin Result = "H"
	Draw    Result = "D"
	AwayWin Result = "A"
)

// Valid reports whether r is one of H, D, A.
func (r Result) Valid() bool {
	return r == HomeWin || r == Draw || r == AwayWin
}

// Score is the full-time scoreline.
type Score struct {
	Home int
	Away int
}

// BoxScore holds the optional per-match statistics. Columns missing from the
// source are left at zero; Capabilities records which ones were present.
type BoxScore struct {
	HomeShots, AwayShots                 float64 // HS, AS
	HomeShotsOnTarget, AwayShotsOnTarget float64 // HST, AST
	HomeFouls, AwayFouls                 float64 // HF, AF
	HomeYellows, AwayYellows             float64 // HY, AY
	HomeReds, AwayReds                   float64 // HR, AR
	HomeCorners, AwayCorners             float64 // HC, AC
}

// Odds holds pre-match decimal 1X2 odds (Bet365 columns).
type Odds struct {
	Home float64
	Draw float64
	Away float64
}

// Match is one row of the match log: either a played match or a future fixture.
type Match struct {
	Seq      int // position in the source log, used as the stable tie-break
	Div      string
	Date     time.Time
	Season   int // season start year; 0 means derive from Date
	HomeTeam string
	AwayTeam string

	// Canonical identifiers, filled in by the pipeline's normalization step.
	HomeID string
	AwayID string

	Score  *Score
	Result Result
	Box    BoxScore
	Odds   *Odds

	// Caps are the column groups of the file this row came from. Nil means
	// the log-level capabilities apply.
	Caps *Capabilities
}

// Played reports whether the match carries a final score and result.
// Anything else is a future fixture and must not move team state.
func (m *Match) Played() bool {
	return m.Score != nil && m.Result.Valid()
}

// Points returns the league points earned by each side. Zero for fixtures.
func (m *Match) Points() (home, away int) {
	switch {
	case !m.Played():
		return 0, 0
	case m.Result == HomeWin:
		return 3, 0
	case m.Result == AwayWin:
		return 0, 3
	default:
		return 1, 1
	}
}

// SeasonYear maps a match date to the season's start year. Dates after July
// belong to the season starting that calendar year.
func SeasonYear(d time.Time) int {
	if d.Month() > time.July {
		return d.Year()
	}
	return d.Year() - 1
}

// SeasonOf returns m.Season when set, otherwise the season derived from the date.
func (m *Match) SeasonOf() int {
	if m.Season != 0 {
		return m.Season
	}
	return SeasonYear(m.Date)
}

// Day truncates t to calendar-day precision in UTC.
func Day(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
