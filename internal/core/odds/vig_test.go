package odds

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/charleschow/match-features/internal/core/match"
)

func TestRemoveVig3SumsToOne(t *testing.T) {
	h, d, a := RemoveVig3(2.0, 3.4, 3.8)
	assert.InDelta(t, 1.0, h+d+a, 1e-12)
	assert.Greater(t, h, a)
}

func TestFairRejectsNeutral(t *testing.T) {
	_, _, _, ok := Fair(match.Odds{Home: 1.0, Draw: 3.2, Away: 4.0})
	assert.False(t, ok)

	_, _, _, ok = Fair(match.Odds{Home: math.NaN(), Draw: 3.2, Away: 4.0})
	assert.False(t, ok)
	_, _, _, ok = Fair(match.Odds{Home: 2.0, Draw: math.Inf(1), Away: 4.0})
	assert.False(t, ok)

	h, _, _, ok := Fair(match.Odds{Home: 2.0, Draw: 4.0, Away: 4.0})
	assert.True(t, ok)
	assert.InDelta(t, 0.5, h, 1e-12)
}

func TestOverround(t *testing.T) {
	assert.InDelta(t, 0.0, Overround(match.Odds{Home: 2, Draw: 4, Away: 4}), 1e-12)
	assert.InDelta(t, 0.05, Overround(match.Odds{Home: 1.0 / 0.55, Draw: 4, Away: 4}), 1e-9)
}

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"2.10", 2.10, true},
		{" 3,45 ", 3.45, true},
		{"", Neutral, false},
		{"SUSP", Neutral, false},
		{"0", Neutral, false},
		{"NaN", Neutral, false},
		{"inf", Neutral, false},
		{"+Infinity", Neutral, false},
	}
	for _, c := range cases {
		got, ok := ParseDecimal(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		assert.InDelta(t, c.want, got, 1e-12, c.in)
	}
}

func TestExpectedValue(t *testing.T) {
	assert.InDelta(t, 0.1, ExpectedValue(0.5, 2.2), 1e-12)
	assert.InDelta(t, -0.1, ExpectedValue(0.3, 3.0), 1e-12)
}

func TestMarketWisdom(t *testing.T) {
	assert.InDelta(t, 0.5, MarketWisdom(2.0, true, 0.33), 1e-12)
	assert.InDelta(t, 1.0/3.0, MarketWisdom(0, true, 0.33), 1e-12)
	assert.Equal(t, 0.33, MarketWisdom(0, false, 0.33))
}
