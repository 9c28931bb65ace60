package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/charleschow/match-features/internal/core/enrich"
	"github.com/charleschow/match-features/internal/core/form"
	"github.com/charleschow/match-features/internal/core/h2h"
	"github.com/charleschow/match-features/internal/core/pipeline"
	"github.com/charleschow/match-features/internal/core/ratings"
)

//go:embed pipeline.yaml
var defaultPipelineYAML []byte

type RatingsConfig struct {
	InitialElo     float64 `yaml:"initial_elo"`
	K              float64 `yaml:"k"`
	HomeAdvantage  float64 `yaml:"home_advantage"`
	InitialAttack  float64 `yaml:"initial_attack"`
	InitialDefense float64 `yaml:"initial_defense"`
	LearningRate   float64 `yaml:"learning_rate"`
}

type FormConfig struct {
	Window           int     `yaml:"window"`
	PDOWindow        int     `yaml:"pdo_window"`
	DefaultFieldTilt float64 `yaml:"default_field_tilt"`
	DefaultPDO       float64 `yaml:"default_pdo"`
	DefaultPPDA      float64 `yaml:"default_ppda"`
	DefaultRestDays  float64 `yaml:"default_rest_days"`
	MaxRestDays      float64 `yaml:"max_rest_days"`
}

type H2HConfig struct {
	Meetings int     `yaml:"meetings"`
	Default  float64 `yaml:"default"`
}

type StaticConfig struct {
	CurrentFrom        int     `yaml:"current_from"`
	DefaultRating      int     `yaml:"default_rating"`
	DefaultMarketValue float64 `yaml:"default_market_value"`
}

type XGConfig struct {
	ShotWeight         float64 `yaml:"shot_weight"`
	ShotOnTargetWeight float64 `yaml:"shot_on_target_weight"`
	GoalsFallback      float64 `yaml:"goals_fallback"`
	PossessionEstimate float64 `yaml:"possession_estimate"`
}

type LeagueConfig struct {
	Name        string   `yaml:"name"`
	URLTemplate string   `yaml:"url_template"`
	FirstSeason int      `yaml:"first_season"`
	LastSeason  int      `yaml:"last_season"`
	XG          XGConfig `yaml:"xg"`
}

// PipelineConfig is the YAML-backed set of pipeline constants.
type PipelineConfig struct {
	Ratings             RatingsConfig           `yaml:"ratings"`
	Form                FormConfig              `yaml:"form"`
	H2H                 H2HConfig               `yaml:"h2h"`
	Static              StaticConfig            `yaml:"static"`
	MarketWisdomDefault float64                 `yaml:"market_wisdom_default"`
	AliasesPath         string                  `yaml:"aliases_path"`
	Leagues             map[string]LeagueConfig `yaml:"leagues"`
	ModelFeatures       []string                `yaml:"model_features"`
	TestSeason          int                     `yaml:"test_season"`
	ValueThreshold      float64                 `yaml:"value_threshold"`
}

// LoadPipeline reads the pipeline YAML at path. An empty path or a missing
// file yields the embedded default.
func LoadPipeline(path string) (PipelineConfig, error) {
	data := defaultPipelineYAML
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			data = b
		case !os.IsNotExist(err):
			return PipelineConfig{}, fmt.Errorf("read pipeline config: %w", err)
		}
	}

	var pc PipelineConfig
	if err := yaml.Unmarshal(data, &pc); err != nil {
		return PipelineConfig{}, fmt.Errorf("parse pipeline config: %w", err)
	}
	if err := pc.validate(); err != nil {
		return PipelineConfig{}, err
	}
	return pc, nil
}

func (pc PipelineConfig) validate() error {
	var problems []string
	if pc.Ratings.K <= 0 {
		problems = append(problems, "ratings.k must be positive")
	}
	if pc.Form.Window < 1 || pc.Form.PDOWindow < 1 {
		problems = append(problems, "form windows must be at least 1")
	}
	if pc.H2H.Meetings < 1 {
		problems = append(problems, "h2h.meetings must be at least 1")
	}
	if len(pc.Leagues) == 0 {
		problems = append(problems, "no leagues configured")
	}
	for code, l := range pc.Leagues {
		if l.FirstSeason > l.LastSeason {
			problems = append(problems, fmt.Sprintf("league %s: first_season after last_season", code))
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("invalid pipeline config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// LeagueCodes returns configured league codes in sorted order.
func (pc PipelineConfig) LeagueCodes() []string {
	codes := make([]string, 0, len(pc.Leagues))
	for c := range pc.Leagues {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Pipeline returns the pipeline constants for one league. Unknown leagues
// use the package default xG coefficients.
func (pc PipelineConfig) Pipeline(league string) pipeline.Config {
	coeffs := form.DefaultCoefficients()
	if l, ok := pc.Leagues[league]; ok {
		coeffs = form.Coefficients{
			ShotWeight:         l.XG.ShotWeight,
			ShotOnTargetWeight: l.XG.ShotOnTargetWeight,
			GoalsFallback:      l.XG.GoalsFallback,
			PossessionEstimate: l.XG.PossessionEstimate,
		}
	}
	return pipeline.Config{
		Ratings: ratings.Params{
			InitialElo:     pc.Ratings.InitialElo,
			K:              pc.Ratings.K,
			HomeAdvantage:  pc.Ratings.HomeAdvantage,
			InitialAttack:  pc.Ratings.InitialAttack,
			InitialDefense: pc.Ratings.InitialDefense,
			LearningRate:   pc.Ratings.LearningRate,
		},
		Form: form.Params{
			Window:           pc.Form.Window,
			PDOWindow:        pc.Form.PDOWindow,
			DefaultFieldTilt: pc.Form.DefaultFieldTilt,
			DefaultPDO:       pc.Form.DefaultPDO,
			DefaultPPDA:      pc.Form.DefaultPPDA,
			DefaultRestDays:  pc.Form.DefaultRestDays,
			MaxRestDays:      pc.Form.MaxRestDays,
		},
		H2H:                 h2h.Params{Meetings: pc.H2H.Meetings, Default: pc.H2H.Default},
		Coefficients:        coeffs,
		MarketWisdomDefault: pc.MarketWisdomDefault,
	}
}

// StaticDefaults returns the enrichment fallbacks.
func (pc PipelineConfig) StaticDefaults() enrich.Defaults {
	return enrich.Defaults{Rating: pc.Static.DefaultRating, MarketValue: pc.Static.DefaultMarketValue}
}

// SeasonCode renders a season start year as football-data's four-digit
// code: 2024 → "2425".
func SeasonCode(season int) string {
	return fmt.Sprintf("%02d%02d", season%100, (season+1)%100)
}

// SeasonURLs lists the download URLs for every configured season of league.
func (l LeagueConfig) SeasonURLs() map[int]string {
	out := make(map[int]string, l.LastSeason-l.FirstSeason+1)
	for s := l.FirstSeason; s <= l.LastSeason; s++ {
		out[s] = strings.ReplaceAll(l.URLTemplate, "{season}", SeasonCode(s))
	}
	return out
}
