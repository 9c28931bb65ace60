package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowDropsOldest(t *testing.T) {
	w := NewWindow(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		w.Push(v)
	}
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, []float64{3, 4, 5}, w.Values())
	assert.InDelta(t, 12, w.Sum(), 1e-9)
	assert.InDelta(t, 4, w.Mean(0), 1e-9)
}

func TestWindowEmptyDefaults(t *testing.T) {
	w := NewWindow(5)
	assert.Equal(t, 0.5, w.Mean(0.5))
	assert.Equal(t, 7.0, w.SumOr(7))

	w.Push(2)
	assert.Equal(t, 2.0, w.Mean(0.5), "min_periods=1: a single entry yields a value")
}

func TestWindowBoundedStreak(t *testing.T) {
	points := []float64{3, 3, 3, 0, 0, 1, 3, 0, 1, 3}
	w := NewWindow(5)

	var streaks []float64
	for _, p := range points {
		streaks = append(streaks, w.SumOr(0)) // read before push
		w.Push(p)
	}

	// Match 8 sees matches 3..7 only.
	assert.Equal(t, 7.0, streaks[7])
	assert.Equal(t, 0.0, streaks[0])
	assert.Equal(t, 9.0, streaks[3])
}
