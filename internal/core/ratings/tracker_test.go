package ratings

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/charleschow/match-features/internal/core/match"
)

func played(home, away string, hg, ag int) *match.Match {
	res := match.Draw
	switch {
	case hg > ag:
		res = match.HomeWin
	case ag > hg:
		res = match.AwayWin
	}
	return &match.Match{HomeID: home, AwayID: away, Score: &match.Score{Home: hg, Away: ag}, Result: res}
}

func TestSnapshotDefaults(t *testing.T) {
	tr := NewTracker(DefaultParams())
	h, a := tr.Snapshot("arsenal", "chelsea")

	assert.Equal(t, Rating{Elo: 1500, Attack: 1, Defense: 1}, h)
	assert.Equal(t, Rating{Elo: 1500, Attack: 1, Defense: 1}, a)
	assert.Zero(t, tr.Teams())
}

func TestEloZeroSum(t *testing.T) {
	tr := NewTracker(DefaultParams())
	matches := []*match.Match{
		played("a", "b", 2, 0),
		played("b", "c", 1, 1),
		played("c", "a", 0, 3),
		played("a", "b", 0, 1),
	}
	for _, m := range matches {
		h0, a0 := tr.Snapshot(m.HomeID, m.AwayID)
		tr.Update(m)
		h1, a1 := tr.Snapshot(m.HomeID, m.AwayID)

		dh := h1.Elo - h0.Elo
		da := a1.Elo - a0.Elo
		assert.InDelta(t, math.Abs(dh), math.Abs(da), 1e-9)
		assert.InDelta(t, 0, dh+da, 1e-9)
	}
}

func TestEloHomeAdvantage(t *testing.T) {
	tr := NewTracker(DefaultParams())
	e := tr.ExpectedHome(1500, 1500)
	// 70 points of home advantage: 1 / (1 + 10^(-70/400))
	assert.InDelta(t, 0.5994, e, 1e-4)

	tr.Update(played("h", "a", 1, 1))
	h := tr.Get("h")
	assert.InDelta(t, 1500+20*(0.5-e), h.Elo, 1e-9)
	assert.Less(t, h.Elo, 1500.0, "a home draw at equal ratings costs Elo")
}

func TestAttackDefenseUpdate(t *testing.T) {
	tr := NewTracker(DefaultParams())
	tr.Update(played("h", "a", 3, 0))

	h, a := tr.Snapshot("h", "a")
	// errH = 3 - 1*1 = 2 ; errA = 0 - 1*1 = -1
	assert.InDelta(t, 1.02, h.Attack, 1e-12)
	assert.InDelta(t, 0.99, h.Defense, 1e-12)
	assert.InDelta(t, 0.99, a.Attack, 1e-12)
	assert.InDelta(t, 1.02, a.Defense, 1e-12)
}

func TestFixtureDoesNotMoveState(t *testing.T) {
	tr := NewTracker(DefaultParams())
	tr.Update(played("h", "a", 2, 1))
	before := tr.Get("h")

	tr.Update(&match.Match{HomeID: "h", AwayID: "a"})
	tr.Update(&match.Match{HomeID: "h", AwayID: "a", Score: &match.Score{Home: 1}, Result: ""})

	assert.Equal(t, before, tr.Get("h"))
	assert.Equal(t, 2, tr.Teams())
}
