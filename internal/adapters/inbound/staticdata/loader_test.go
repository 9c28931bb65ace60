package staticdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/match-features/internal/core/enrich"
	"github.com/charleschow/match-features/internal/core/teams"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadMixedEncodings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, RatingsHistoryFile, `{
		"2019": [{"team": "Arsenal FC", "ova": "79"}, {"team": "Everton", "ova": 77}, {"team": "Ghost", "ova": null}, {"team": "Void", "ova": "NaN"}],
		"2021": [{"team": "Arsenal FC", "ova": 80}]
	}`)
	writeFile(t, dir, ValuesHistoryFile, `{
		"2019": [{"team": "Arsenal FC", "value": "€1.05bn"}, {"team": "Everton", "value": "€500Th."}, {"team": "Broken", "value": "n/a"}, {"team": "Endless", "value": "€Infm"}]
	}`)
	writeFile(t, dir, RatingsCurrentFile, `{"Arsenal": 84, "Everton": "78", "Chelsea": "inf"}`)
	writeFile(t, dir, ValuesCurrentFile, `{"Arsenal": "€1.12bn", "Everton": 410.5, "Chelsea": "nan"}`)

	snap, err := Load(dir, 2025)
	require.NoError(t, err)

	assert.Equal(t, 2025, snap.CurrentFrom)
	assert.Equal(t, map[string]int{"Arsenal": 84, "Everton": 78}, snap.CurrentRatings)
	assert.InDelta(t, 1120.0, snap.CurrentValues["Arsenal"], 1e-9)
	assert.InDelta(t, 410.5, snap.CurrentValues["Everton"], 1e-9)

	assert.Equal(t, map[string]int{"Arsenal FC": 79, "Everton": 77}, snap.HistoricalRatings[2019])
	assert.Equal(t, 80, snap.HistoricalRatings[2021]["Arsenal FC"])
	assert.InDelta(t, 1050.0, snap.HistoricalValues[2019]["Arsenal FC"], 1e-9)
	assert.InDelta(t, 0.5, snap.HistoricalValues[2019]["Everton"], 1e-9)
	assert.NotContains(t, snap.HistoricalValues[2019], "Broken")
	assert.NotContains(t, snap.HistoricalValues[2019], "Endless")
	assert.NotContains(t, snap.CurrentValues, "Chelsea")
}

func TestLoadFeedsStore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, RatingsHistoryFile, `{"2019": [{"team": "Arsenal FC", "ova": 79}]}`)

	snap, err := Load(dir, 2025)
	require.NoError(t, err)

	store := enrich.NewStore(teams.NewResolver(teams.DefaultAliases()), snap, enrich.DefaultDefaults())
	got := store.Get("Arsenal", 2019)
	assert.Equal(t, 79, got.Rating)
	assert.Equal(t, 10.0, got.MarketValue)
	assert.True(t, got.Defaulted)
}

func TestLoadMissingDirectoryIsEmpty(t *testing.T) {
	snap, err := Load(filepath.Join(t.TempDir(), "absent"), 2025)
	require.NoError(t, err)
	assert.Empty(t, snap.CurrentRatings)
	assert.Empty(t, snap.HistoricalValues)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ValuesCurrentFile, `{"Arsenal": `)
	_, err := Load(dir, 2025)
	assert.ErrorContains(t, err, ValuesCurrentFile)
}
