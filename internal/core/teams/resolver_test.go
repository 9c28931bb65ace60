package teams

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	aliases := DefaultAliases().Aliases

	tests := []struct {
		in   string
		want string
	}{
		{"Man United", "manchester united"},
		{"  Man   City ", "manchester city"},
		{"Nott'm Forest", "nottingham forest"},
		{"Atlético Madrid", "atletico de madrid"},
		{"Alavés", "deportivo alaves"},
		{"Arsenal", "arsenal"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in, aliases))
		})
	}
}

func TestDefaultAliasesVersioned(t *testing.T) {
	table := DefaultAliases()
	assert.Positive(t, table.Version)
	assert.Equal(t, "wolverhampton wanderers", table.Aliases["wolves"])
}

func TestResolverSame(t *testing.T) {
	r := NewResolver(DefaultAliases())

	assert.True(t, r.Same("Spurs", "Tottenham Hotspur"))
	assert.True(t, r.Same("Real Madrid CF", "Real Madrid"))
	assert.True(t, r.Same("Tottenham", "Tottenham Hotspur"))
	assert.False(t, r.Same("Arsenal", "Chelsea"))
	assert.False(t, r.Same("", "Chelsea"))
}

func TestResolverPickPrefersExact(t *testing.T) {
	r := NewResolver(DefaultAliases())

	// "manchester united" contains nothing of "manchester city", but a naive
	// containment on "manchester" must not be reachable: exact wins first.
	candidates := []string{"Manchester United", "Manchester City", "Man City FC"}
	assert.Equal(t, 1, r.Pick("Man City", candidates))

	// Containment fallback keeps the first hit.
	assert.Equal(t, 0, r.Pick("Leganes", []string{"CD Leganés B", "Getafe"}))
	assert.Equal(t, -1, r.Pick("Barcelona", []string{"Getafe"}))
}

func TestLoadAliasesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	body := "version: 7\naliases:\n  Bayern Munich: FC Bayern München\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	table, err := LoadAliases(path)
	require.NoError(t, err)
	assert.Equal(t, 7, table.Version)
	assert.Equal(t, "fc bayern munchen", table.Aliases["bayern munich"])

	_, err = LoadAliases(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
