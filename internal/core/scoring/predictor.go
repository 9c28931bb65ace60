package scoring

import (
	"fmt"
	"math"

	"github.com/charleschow/match-features/internal/core/ratings"
)

// Features is one fixture's model input, keyed by feature column.
type Features map[string]float64

// Probabilities are 1X2 outcome probabilities.
type Probabilities struct {
	Home float64
	Draw float64
	Away float64
}

// Predictor is the model boundary. The trained classifier lives outside this
// repository and plugs in here; EloPredictor is the built-in baseline.
type Predictor interface {
	Predict(f Features) (Probabilities, error)
}

// EloPredictor derives 1X2 probabilities from pre-match Elo alone. The draw
// share shrinks as the expected score moves away from even.
type EloPredictor struct {
	HomeAdvantage float64
	DrawBase      float64
}

func NewEloPredictor(homeAdvantage float64) *EloPredictor {
	return &EloPredictor{HomeAdvantage: homeAdvantage, DrawBase: 0.28}
}

func (p *EloPredictor) Predict(f Features) (Probabilities, error) {
	he, ok1 := f["Home_Elo"]
	ae, ok2 := f["Away_Elo"]
	if !ok1 || !ok2 {
		return Probabilities{}, fmt.Errorf("elo predictor: missing Home_Elo/Away_Elo")
	}
	e := ratings.ExpectedScore(he, ae, p.HomeAdvantage)
	draw := p.DrawBase * (1 - math.Abs(2*e-1))
	home := math.Max(e-draw/2, 0)
	away := math.Max(1-e-draw/2, 0)
	total := home + draw + away
	return Probabilities{Home: home / total, Draw: draw / total, Away: away / total}, nil
}
