package form

import (
	"math"

	"github.com/charleschow/match-features/internal/core/match"
)

// Coefficients for the expected-goals proxy. League variants differ slightly
// (0.09/0.29 for La Liga, 0.10/0.35 for the Premier League).
type Coefficients struct {
	ShotWeight         float64
	ShotOnTargetWeight float64
	GoalsFallback      float64 // xG = goals × this when no shot columns exist
	PossessionEstimate float64 // assumed opponent possession share
}

func DefaultCoefficients() Coefficients {
	return Coefficients{
		ShotWeight:         0.09,
		ShotOnTargetWeight: 0.29,
		GoalsFallback:      0.9,
		PossessionEstimate: 0.5,
	}
}

const tiltEpsilon = 1e-6

// SideMetrics are one team's post-match values for a played match. They feed
// the rolling windows and never appear in the feature table themselves.
type SideMetrics struct {
	XG        float64
	Points    float64
	Pressure  float64
	GoalDiff  float64
	FieldTilt float64
	PDO       float64
	PPDA      float64
}

// MatchMetrics holds both sides' post-match metrics.
type MatchMetrics struct {
	Home SideMetrics
	Away SideMetrics
}

// Derive computes the post-match base metrics of a played match. Column
// groups absent from caps are treated as zero.
func Derive(m *match.Match, caps match.Capabilities, c Coefficients) MatchMetrics {
	b := m.Box
	if !caps.Shots {
		b.HomeShots, b.AwayShots = 0, 0
	}
	if !caps.ShotsOnTarget {
		b.HomeShotsOnTarget, b.AwayShotsOnTarget = 0, 0
	}
	if !caps.Fouls {
		b.HomeFouls, b.AwayFouls = 0, 0
	}
	if !caps.Cards {
		b.HomeYellows, b.AwayYellows, b.HomeReds, b.AwayReds = 0, 0, 0, 0
	}
	if !caps.Corners {
		b.HomeCorners, b.AwayCorners = 0, 0
	}

	var hg, ag float64
	if m.Score != nil {
		hg, ag = float64(m.Score.Home), float64(m.Score.Away)
	}
	hp, ap := m.Points()

	var out MatchMetrics
	out.Home.Points, out.Away.Points = float64(hp), float64(ap)
	out.Home.GoalDiff = hg - ag
	out.Away.GoalDiff = -out.Home.GoalDiff

	// Expected-goals proxy.
	if caps.Shots || caps.ShotsOnTarget {
		out.Home.XG = b.HomeShots*c.ShotWeight + b.HomeShotsOnTarget*c.ShotOnTargetWeight
		out.Away.XG = b.AwayShots*c.ShotWeight + b.AwayShotsOnTarget*c.ShotOnTargetWeight
	} else {
		out.Home.XG = hg * c.GoalsFallback
		out.Away.XG = ag * c.GoalsFallback
	}

	// Pressure proxy: defensive actions against a floored possession estimate,
	// or the shots-ratio variant when only shot columns exist.
	switch {
	case caps.Fouls || caps.Cards:
		poss := math.Max(c.PossessionEstimate, 0.1)
		out.Home.Pressure = (b.HomeFouls + b.HomeYellows + b.HomeReds) / poss
		out.Away.Pressure = (b.AwayFouls + b.AwayYellows + b.AwayReds) / poss
	case caps.Shots:
		out.Home.Pressure = (b.HomeShots + b.HomeShotsOnTarget) / (b.AwayShots + b.AwayShotsOnTarget + 1)
		out.Away.Pressure = (b.AwayShots + b.AwayShotsOnTarget) / (b.HomeShots + b.HomeShotsOnTarget + 1)
	default:
		out.Home.Pressure, out.Away.Pressure = 1, 1
	}

	// Field tilt: share of combined shot + corner volume.
	homeVol := b.HomeShots + b.HomeCorners
	awayVol := b.AwayShots + b.AwayCorners
	total := homeVol + awayVol + tiltEpsilon
	out.Home.FieldTilt = homeVol / total
	out.Away.FieldTilt = awayVol / total

	// PDO: finishing plus saving efficiency on shots on target.
	hSoT := floorOne(b.HomeShotsOnTarget)
	aSoT := floorOne(b.AwayShotsOnTarget)
	out.Home.PDO = hg/hSoT + (1 - ag/aSoT)
	out.Away.PDO = ag/aSoT + (1 - hg/hSoT)

	// Pressing intensity: opponent volume allowed per own defensive action.
	out.Home.PPDA = awayVol / (b.HomeFouls + b.HomeYellows + b.HomeReds + 1)
	out.Away.PPDA = homeVol / (b.AwayFouls + b.AwayYellows + b.AwayReds + 1)

	return out
}

func floorOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
