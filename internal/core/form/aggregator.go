package form

import (
	"math"
	"time"
)

// Params configures window sizes and empty-history defaults.
type Params struct {
	Window    int // xG, points, pressure, goal diff, field tilt, PPDA
	PDOWindow int

	DefaultFieldTilt float64
	DefaultPDO       float64
	DefaultPPDA      float64

	DefaultRestDays float64
	MaxRestDays     float64
}

func DefaultParams() Params {
	return Params{
		Window:           5,
		PDOWindow:        10,
		DefaultFieldTilt: 0.5,
		DefaultPDO:       1.0,
		DefaultPPDA:      10.0,
		DefaultRestDays:  7,
		MaxRestDays:      30,
	}
}

// Snapshot is a team's rolling form strictly before the match being described.
type Snapshot struct {
	XGAvg       float64
	PointsSum   float64
	PressureAvg float64
	GoalDiffSum float64
	FieldTilt   float64
	PDO         float64
	PPDA        float64
	RestDays    float64
}

type series struct {
	xg, points, pressure, goalDiff, fieldTilt, pdo, ppda *Window
	lastPlayed                                         time.Time
}

// Aggregator keeps the bounded per-team series for one pipeline run.
// Callers read with Snapshot before writing the same match with Record.
type Aggregator struct {
	params Params
	teams  map[string]*series
}

func NewAggregator(p Params) *Aggregator {
	return &Aggregator{params: p, teams: make(map[string]*series)}
}

func (a *Aggregator) newSeries() *series {
	w := a.params.Window
	return &series{
		xg:        NewWindow(w),
		points:    NewWindow(w),
		pressure:  NewWindow(w),
		goalDiff:  NewWindow(w),
		fieldTilt: NewWindow(w),
		pdo:       NewWindow(a.params.PDOWindow),
		ppda:      NewWindow(w),
	}
}

// Snapshot returns team's form entering a match on date.
func (a *Aggregator) Snapshot(team string, date time.Time) Snapshot {
	s, ok := a.teams[team]
	if !ok {
		return Snapshot{
			FieldTilt: a.params.DefaultFieldTilt,
			PDO:       a.params.DefaultPDO,
			PPDA:      a.params.DefaultPPDA,
			RestDays:  a.params.DefaultRestDays,
		}
	}
	return Snapshot{
		XGAvg:       s.xg.Mean(0),
		PointsSum:   s.points.SumOr(0),
		PressureAvg: s.pressure.Mean(0),
		GoalDiffSum: s.goalDiff.SumOr(0),
		FieldTilt:   s.fieldTilt.Mean(a.params.DefaultFieldTilt),
		PDO:         s.pdo.Mean(a.params.DefaultPDO),
		PPDA:        s.ppda.Mean(a.params.DefaultPPDA),
		RestDays:    a.restDays(s.lastPlayed, date),
	}
}

func (a *Aggregator) restDays(last, date time.Time) float64 {
	if last.IsZero() {
		return a.params.DefaultRestDays
	}
	days := math.Round(date.Sub(last).Hours() / 24)
	return math.Min(days, a.params.MaxRestDays)
}

// Record appends a played match's metrics to team's series.
func (a *Aggregator) Record(team string, date time.Time, m SideMetrics) {
	s, ok := a.teams[team]
	if !ok {
		s = a.newSeries()
		a.teams[team] = s
	}
	s.xg.Push(m.XG)
	s.points.Push(m.Points)
	s.pressure.Push(m.Pressure)
	s.goalDiff.Push(m.GoalDiff)
	s.fieldTilt.Push(m.FieldTilt)
	s.pdo.Push(m.PDO)
	s.ppda.Push(m.PPDA)
	s.lastPlayed = date
}

// History returns the number of recorded matches for team.
func (a *Aggregator) History(team string) int {
	if s, ok := a.teams[team]; ok {
		return s.points.Len()
	}
	return 0
}
