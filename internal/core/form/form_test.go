package form

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/match-features/internal/core/match"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDeriveFullBox(t *testing.T) {
	m := &match.Match{
		Score:  &match.Score{Home: 2, Away: 1},
		Result: match.HomeWin,
		Box: match.BoxScore{
			HomeShots: 10, AwayShots: 6,
			HomeShotsOnTarget: 4, AwayShotsOnTarget: 2,
			HomeFouls: 8, AwayFouls: 12,
			HomeYellows: 1, AwayYellows: 2,
			HomeCorners: 6, AwayCorners: 2,
		},
	}
	got := Derive(m, match.Full(), DefaultCoefficients())

	assert.InDelta(t, 10*0.09+4*0.29, got.Home.XG, 1e-9)
	assert.InDelta(t, 6*0.09+2*0.29, got.Away.XG, 1e-9)
	assert.Equal(t, 3.0, got.Home.Points)
	assert.Equal(t, 0.0, got.Away.Points)
	assert.Equal(t, 1.0, got.Home.GoalDiff)
	assert.Equal(t, -1.0, got.Away.GoalDiff)
	assert.InDelta(t, 18.0, got.Home.Pressure, 1e-9)
	assert.InDelta(t, 28.0, got.Away.Pressure, 1e-9)
	assert.InDelta(t, 16.0/24.0, got.Home.FieldTilt, 1e-6)
	assert.InDelta(t, 1.0, got.Home.FieldTilt+got.Away.FieldTilt, 1e-6)
	assert.InDelta(t, 2.0/4.0+(1-1.0/2.0), got.Home.PDO, 1e-9)
	assert.InDelta(t, 8.0/10.0, got.Home.PPDA, 1e-9)
	assert.InDelta(t, 16.0/15.0, got.Away.PPDA, 1e-9)
}

func TestDeriveWithoutOptionalColumns(t *testing.T) {
	m := &match.Match{
		Score:  &match.Score{Home: 1, Away: 1},
		Result: match.Draw,
		Box:    match.BoxScore{HomeShots: 99, HomeFouls: 99},
	}
	got := Derive(m, match.Capabilities{Outcome: true}, DefaultCoefficients())

	assert.InDelta(t, 0.9, got.Home.XG, 1e-9, "goal fallback")
	assert.Equal(t, 1.0, got.Home.Pressure)
	assert.InDelta(t, 0.0, got.Home.FieldTilt, 1e-6)
	assert.InDelta(t, 1.0, got.Home.PDO, 1e-9)
	assert.Equal(t, 0.0, got.Home.PPDA)
	assert.Equal(t, 1.0, got.Away.Points)
}

func TestDeriveShotsRatioPressure(t *testing.T) {
	m := &match.Match{
		Score:  &match.Score{Home: 0, Away: 0},
		Result: match.Draw,
		Box:    match.BoxScore{HomeShots: 9, AwayShots: 3, HomeShotsOnTarget: 3, AwayShotsOnTarget: 1},
	}
	caps := match.Capabilities{Outcome: true, Shots: true, ShotsOnTarget: true}
	got := Derive(m, caps, DefaultCoefficients())
	assert.InDelta(t, 12.0/5.0, got.Home.Pressure, 1e-9)
	assert.InDelta(t, 4.0/13.0, got.Away.Pressure, 1e-9)
}

func TestAggregatorFirstAppearance(t *testing.T) {
	a := NewAggregator(DefaultParams())
	s := a.Snapshot("arsenal", day(2023, 8, 12))

	assert.Equal(t, Snapshot{FieldTilt: 0.5, PDO: 1.0, PPDA: 10.0, RestDays: 7}, s)
	assert.Equal(t, 0, a.History("arsenal"))
}

func TestAggregatorRestDays(t *testing.T) {
	a := NewAggregator(DefaultParams())
	a.Record("arsenal", day(2023, 8, 12), SideMetrics{})

	assert.Equal(t, 4.0, a.Snapshot("arsenal", day(2023, 8, 16)).RestDays)
	assert.Equal(t, 30.0, a.Snapshot("arsenal", day(2024, 8, 16)).RestDays)
}

func TestAggregatorShiftByOne(t *testing.T) {
	a := NewAggregator(DefaultParams())
	points := []float64{3, 3, 3, 0, 0, 1, 3, 0, 1, 3}
	start := day(2023, 8, 1)

	var streaks []float64
	for i, p := range points {
		d := start.AddDate(0, 0, 7*i)
		streaks = append(streaks, a.Snapshot("b", d).PointsSum)
		a.Record("b", d, SideMetrics{Points: p, PDO: float64(i)})
	}
	require.Len(t, streaks, 10)
	assert.Equal(t, 7.0, streaks[7])

	// PDO keeps ten entries, the other series five.
	s := a.Snapshot("b", start.AddDate(0, 0, 100))
	assert.InDelta(t, 4.5, s.PDO, 1e-9)
	assert.Equal(t, 8.0, s.PointsSum)
}
