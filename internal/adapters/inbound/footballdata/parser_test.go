package footballdata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/match-features/internal/core/match"
)

const modernCSV = `Div,Date,HomeTeam,AwayTeam,FTHG,FTAG,FTR,HS,AS,HST,AST,HF,AF,HC,AC,HY,AY,HR,AR,B365H,B365D,B365A
E0,11/08/2023,Burnley,Man City,0,3,A,6,17,1,8,11,8,6,5,0,0,1,0,8.0,5.5,1.33
E0,12/08/2023,Arsenal,Nott'm Forest,2,1,H,15,6,7,2,12,12,8,3,2,2,0,0,1.18,7.5,15
E0,19/08/23,Man City,Newcastle,,,,,,,,,,,,,,,,2.0,3.8,3.9
`

func TestParseModernFile(t *testing.T) {
	ms, caps, err := Parse(strings.NewReader(modernCSV), "E0", 2023)
	require.NoError(t, err)
	assert.Equal(t, match.Full(), caps)
	require.Len(t, ms, 3)

	first := ms[0]
	assert.Equal(t, time.Date(2023, 8, 11, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "Man City", first.AwayTeam)
	assert.True(t, first.Played())
	assert.Equal(t, match.AwayWin, first.Result)
	assert.Equal(t, 17.0, first.Box.AwayShots)
	assert.Equal(t, 1.0, first.Box.HomeReds)
	assert.Equal(t, &match.Odds{Home: 8.0, Draw: 5.5, Away: 1.33}, first.Odds)
	assert.Equal(t, 2023, first.Season)

	fixture := ms[2]
	assert.False(t, fixture.Played())
	assert.Equal(t, time.Date(2023, 8, 19, 0, 0, 0, 0, time.UTC), fixture.Date)
	assert.Equal(t, 2, fixture.Seq)
}

func TestParseOldFileCapabilities(t *testing.T) {
	csvData := "Date,HomeTeam,AwayTeam,FTHG,FTAG\n14/08/93,Arsenal,Coventry,0,3\n"
	ms, caps, err := Parse(strings.NewReader(csvData), "E0", 0)
	require.NoError(t, err)
	assert.False(t, caps.Outcome, "FTR column absent")
	assert.False(t, caps.Shots)
	require.Len(t, ms, 1)
	assert.Nil(t, ms[0].Score)
}

func TestParseDerivesMissingResult(t *testing.T) {
	csvData := "Date,HomeTeam,AwayTeam,FTHG,FTAG,FTR\n14/08/2010,Aston Villa,West Ham,3,0,\n"
	ms, _, err := Parse(strings.NewReader(csvData), "E0", 0)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, match.HomeWin, ms[0].Result)
}

func TestParseLatin1(t *testing.T) {
	// "Alavés" in ISO-8859-1.
	data := []byte("Date,HomeTeam,AwayTeam,FTHG,FTAG,FTR\n20/08/2016,Alav\xe9s,Barcelona,1,2,A\n")
	ms, _, err := Parse(strings.NewReader(string(data)), "SP1", 2016)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "Alavés", ms[0].HomeTeam)
}

func TestParseMissingRequired(t *testing.T) {
	_, _, err := Parse(strings.NewReader("Date,HomeTeam\n"), "E0", 0)
	assert.ErrorContains(t, err, "AwayTeam")
}

func TestSeasonFromFilename(t *testing.T) {
	assert.Equal(t, 2024, SeasonFromFilename("/data/raw/E0-2024-25.csv"))
	assert.Equal(t, 1999, SeasonFromFilename("SP1_1999.csv"))
	assert.Equal(t, 0, SeasonFromFilename("E0.csv"))
	assert.Equal(t, "E0-2024-25.csv", FileName("E0", 2024))
	assert.Equal(t, "E0-1999-00.csv", FileName("E0", 1999))
}

func TestLoadDirDedupesKeepingLast(t *testing.T) {
	dir := t.TempDir()
	older := "Date,HomeTeam,AwayTeam,FTHG,FTAG,FTR,HS,AS\n12/08/2023,Arsenal,Chelsea,,,,,\n19/08/2023,Chelsea,Everton,1,0,H,10,4\n"
	newer := "Date,HomeTeam,AwayTeam,FTHG,FTAG,FTR\n12/08/2023,Arsenal,Chelsea,2,2,D\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "E0-2023-24.csv"), []byte(older), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "E0-2023-24b.csv"), []byte(newer), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SP1-2023-24.csv"), []byte(newer), 0o644))

	ms, caps, err := LoadDir(dir, "E0")
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.False(t, caps.Shots, "shared capabilities only")
	assert.True(t, caps.Outcome)

	assert.Equal(t, "Chelsea", ms[0].HomeTeam)
	assert.Equal(t, 0, ms[0].Seq)
	assert.True(t, ms[1].Played(), "later file wins")
	assert.Equal(t, 1, ms[1].Seq)

	require.NotNil(t, ms[0].Caps)
	assert.True(t, ms[0].Caps.Shots, "row keeps its own file's columns")
	require.NotNil(t, ms[1].Caps)
	assert.False(t, ms[1].Caps.Shots)
}

func TestLoadDirEmpty(t *testing.T) {
	_, _, err := LoadDir(t.TempDir(), "E0")
	assert.ErrorIs(t, err, ErrNoFiles)
}
