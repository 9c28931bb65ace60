package h2h

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstMeetingDefault(t *testing.T) {
	g := NewAggregator(DefaultParams())
	a, b := g.Lookup("a", "b")
	assert.Equal(t, 1.5, a)
	assert.Equal(t, 1.5, b)
}

func TestAttributionFollowsTeamIdentity(t *testing.T) {
	g := NewAggregator(DefaultParams())

	// A beats B 3-0 at home.
	g.Record("a", "b", 3, 0)

	// Return fixture: B at home.
	b, a := g.Lookup("b", "a")
	assert.Equal(t, 0.0, b)
	assert.Equal(t, 3.0, a)
}

func TestLastThreeMeetingsOnly(t *testing.T) {
	g := NewAggregator(DefaultParams())
	g.Record("a", "b", 3, 0)
	g.Record("b", "a", 1, 1)
	g.Record("a", "b", 0, 3)
	g.Record("b", "a", 3, 0)

	a, b := g.Lookup("a", "b")
	assert.InDelta(t, 1.0/3.0, a, 1e-9)
	assert.InDelta(t, 7.0/3.0, b, 1e-9)
	assert.Equal(t, 1, g.Pairs())
}

func TestPairsAreIndependent(t *testing.T) {
	g := NewAggregator(DefaultParams())
	g.Record("a", "b", 3, 0)

	a, c := g.Lookup("a", "c")
	assert.Equal(t, 1.5, a)
	assert.Equal(t, 1.5, c)
}
