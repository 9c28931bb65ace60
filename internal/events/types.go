package events

// RunCompletedEvent is published after a league's feature table is persisted.
type RunCompletedEvent struct {
	League     string `json:"league"`
	RunID      string `json:"run_id"`
	Rows       int    `json:"rows"`
	Played     int    `json:"played"`
	Fixtures   int    `json:"fixtures"`
	DurationMS int64  `json:"duration_ms"`
}

// FixtureScoredEvent carries one scored fixture. The same payload is reused
// for EventValueBet when the best expected value clears the threshold.
type FixtureScoredEvent struct {
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`
	HomeID   string `json:"home_id"`
	AwayID   string `json:"away_id"`
	Exact    bool   `json:"exact"` // features from the pair's own row

	OddsHome float64 `json:"odds_home"`
	OddsDraw float64 `json:"odds_draw"`
	OddsAway float64 `json:"odds_away"`

	ModelHome float64 `json:"model_home"`
	ModelDraw float64 `json:"model_draw"`
	ModelAway float64 `json:"model_away"`

	// Vig-free market probabilities, nil when the line had neutral prices.
	MarketHome *float64 `json:"market_home,omitempty"`
	MarketDraw *float64 `json:"market_draw,omitempty"`
	MarketAway *float64 `json:"market_away,omitempty"`

	EVHome float64 `json:"ev_home"`
	EVDraw float64 `json:"ev_draw"`
	EVAway float64 `json:"ev_away"`

	Value bool    `json:"value"`
	Pick  string  `json:"pick"` // "H", "D" or "A"
	Edge  float64 `json:"edge"`
}
