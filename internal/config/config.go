package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Inputs
	DataDir   string
	Leagues   []string
	Download  bool
	StaticDir string

	// Outputs
	OutputCSVDir   string
	FeaturesDBPath string
	KeepRuns       int

	// Scoring
	OddsFeedPath  string
	ScoreInterval time.Duration

	PipelineConfigPath string

	// Alerts / dashboard
	DiscordWebhookURL string
	FanoutPort        int

	// Telemetry
	LogLevel string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DataDir:   envStr("DATA_DIR", "data/raw"),
		Leagues:   envList("LEAGUES", []string{"E0", "SP1"}),
		Download:  envStr("DOWNLOAD", "false") == "true",
		StaticDir: envStr("STATIC_DIR", "data/static"),

		OutputCSVDir:   envStr("OUTPUT_CSV_DIR", "data/processed"),
		FeaturesDBPath: envStr("FEATURES_DB_PATH", "data/features.db"),
		KeepRuns:       envInt("KEEP_RUNS", 5),

		OddsFeedPath:  envStr("ODDS_FEED_PATH", "data/odds/live_odds.json"),
		ScoreInterval: time.Duration(envInt("SCORE_INTERVAL_SEC", 300)) * time.Second,

		PipelineConfigPath: envStr("PIPELINE_CONFIG_PATH", "internal/config/pipeline.yaml"),

		DiscordWebhookURL: envStr("DISCORD_WEBHOOK_URL", ""),
		FanoutPort:        envInt("FANOUT_PORT", 8090),

		LogLevel: envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
