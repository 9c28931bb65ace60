package ratings

import (
	"math"

	"github.com/charleschow/match-features/internal/core/match"
)

// Params configures the Elo and attack/defense updates.
type Params struct {
	InitialElo     float64
	K              float64
	HomeAdvantage  float64 // rating points added to the home side for the expectation only
	InitialAttack  float64
	InitialDefense float64
	LearningRate   float64
}

func DefaultParams() Params {
	return Params{
		InitialElo:     1500,
		K:              20,
		HomeAdvantage:  70,
		InitialAttack:  1.0,
		InitialDefense: 1.0,
		LearningRate:   0.01,
	}
}

// Rating is one team's pre-match strength.
// Expected goals for a side are modeled as Attack × opponent Defense.
type Rating struct {
	Elo     float64
	Attack  float64
	Defense float64
}

// Tracker owns the per-team rating state for one pipeline run.
// Not safe for concurrent use; a pipeline pass is strictly sequential.
type Tracker struct {
	params Params
	teams  map[string]*Rating
}

func NewTracker(p Params) *Tracker {
	return &Tracker{params: p, teams: make(map[string]*Rating)}
}

// Snapshot returns the current ratings of both teams without creating state.
// Unseen teams report the initial values.
func (t *Tracker) Snapshot(home, away string) (Rating, Rating) {
	return t.get(home), t.get(away)
}

// Get returns the current rating for a single team.
func (t *Tracker) Get(team string) Rating {
	return t.get(team)
}

func (t *Tracker) get(team string) Rating {
	if r, ok := t.teams[team]; ok {
		return *r
	}
	return Rating{Elo: t.params.InitialElo, Attack: t.params.InitialAttack, Defense: t.params.InitialDefense}
}

// ExpectedHome is the home side's expected score given both Elo ratings.
func (t *Tracker) ExpectedHome(homeElo, awayElo float64) float64 {
	return ExpectedScore(homeElo, awayElo, t.params.HomeAdvantage)
}

// ExpectedScore is the logistic Elo expectation for the home side with the
// home-advantage offset applied to its effective rating.
func ExpectedScore(homeElo, awayElo, homeAdvantage float64) float64 {
	dr := awayElo - (homeElo + homeAdvantage)
	return 1 / (1 + math.Pow(10, dr/400))
}

// Update applies one played match. Callers must take the match's Snapshot
// first; fixtures are ignored.
func (t *Tracker) Update(m *match.Match) {
	if !m.Played() {
		return
	}
	h, a := t.get(m.HomeID), t.get(m.AwayID)

	var score float64
	switch m.Result {
	case match.HomeWin:
		score = 1
	case match.Draw:
		score = 0.5
	}
	e := t.ExpectedHome(h.Elo, a.Elo)
	delta := t.params.K * (score - e)

	hg, ag := float64(m.Score.Home), float64(m.Score.Away)
	errH := hg - h.Attack*a.Defense
	errA := ag - a.Attack*h.Defense
	lr := t.params.LearningRate

	// Every multiplier below is the opponent's pre-match value.
	t.teams[m.HomeID] = &Rating{
		Elo:     h.Elo + delta,
		Attack:  h.Attack + lr*errH*a.Defense,
		Defense: h.Defense + lr*errA*a.Attack,
	}
	t.teams[m.AwayID] = &Rating{
		Elo:     a.Elo - delta,
		Attack:  a.Attack + lr*errA*h.Defense,
		Defense: a.Defense + lr*errH*h.Attack,
	}
}

// Teams returns the number of teams with recorded state.
func (t *Tracker) Teams() int { return len(t.teams) }
