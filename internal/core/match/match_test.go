package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSeasonYearJulyCutoff(t *testing.T) {
	cases := []struct {
		date string
		want int
	}{
		{"2023-07-31", 2022},
		{"2023-08-01", 2023},
		{"2023-12-31", 2023},
		{"2024-01-15", 2023},
		{"2024-06-30", 2023},
	}
	for _, c := range cases {
		t.Run(c.date, func(t *testing.T) {
			assert.Equal(t, c.want, SeasonYear(day(c.date)))
		})
	}
}

func TestSeasonOfPrefersExplicitSeason(t *testing.T) {
	m := Match{Date: day("2023-07-31")}
	assert.Equal(t, 2022, m.SeasonOf())

	m.Season = 2023
	assert.Equal(t, 2023, m.SeasonOf())
}

func TestPlayedAndPoints(t *testing.T) {
	fixture := Match{Date: day("2024-05-19")}
	assert.False(t, fixture.Played())
	h, a := fixture.Points()
	assert.Zero(t, h+a)

	noResult := Match{Score: &Score{Home: 1, Away: 1}}
	assert.False(t, noResult.Played())

	draw := Match{Score: &Score{Home: 1, Away: 1}, Result: Draw}
	h, a = draw.Points()
	assert.Equal(t, [2]int{1, 1}, [2]int{h, a})

	away := Match{Score: &Score{Home: 0, Away: 2}, Result: AwayWin}
	h, a = away.Points()
	assert.Equal(t, [2]int{0, 3}, [2]int{h, a})
}

func TestCapabilitiesMerge(t *testing.T) {
	legacy := Capabilities{Outcome: true, Shots: true}
	got := Full().Merge(legacy)
	assert.Equal(t, legacy, got)
}

func TestCapabilitiesMissing(t *testing.T) {
	legacy := Capabilities{Outcome: true, Odds: true}
	assert.Equal(t, []string{"shots", "shots on target", "fouls", "cards", "corners"}, legacy.Missing(Full()))
	assert.Empty(t, Full().Missing(legacy))
	assert.Equal(t, Full(), legacy.Union(Full()))
}
