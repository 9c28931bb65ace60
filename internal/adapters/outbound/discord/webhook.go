package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charleschow/match-features/internal/events"
	"github.com/charleschow/match-features/internal/telemetry"
)

type Notifier struct {
	webhookURL string
	httpClient *http.Client
}

func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Notifier) Enabled() bool { return n.webhookURL != "" }

type Embed struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Color       int     `json:"color,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type webhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

func (n *Notifier) SendText(ctx context.Context, msg string) error {
	return n.send(ctx, webhookPayload{Content: msg})
}

func (n *Notifier) SendEmbed(ctx context.Context, embed Embed) error {
	if embed.Timestamp == "" {
		embed.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return n.send(ctx, webhookPayload{Embeds: []Embed{embed}})
}

func (n *Notifier) send(ctx context.Context, payload webhookPayload) error {
	if !n.Enabled() {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		telemetry.Warnf("discord: rate limited")
		return fmt.Errorf("discord rate limited")
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook: status=%d", resp.StatusCode)
	}

	return nil
}

// --- Convenience methods for common alert types ---

const (
	ColorGreen  = 0x2ECC71
	ColorRed    = 0xE74C3C
)

var pickNames = map[string]string{"H": "Home", "D": "Draw", "A": "Away"}

// ValueBet posts a scored fixture whose best expected value cleared the threshold.
func (n *Notifier) ValueBet(ctx context.Context, league string, f events.FixtureScoredEvent) error {
	price, model := f.OddsHome, f.ModelHome
	switch f.Pick {
	case "D":
		price, model = f.OddsDraw, f.ModelDraw
	case "A":
		price, model = f.OddsAway, f.ModelAway
	}
	fields := []Field{
		{Name: "Pick", Value: pickNames[f.Pick], Inline: true},
		{Name: "Odds", Value: fmt.Sprintf("%.2f", price), Inline: true},
		{Name: "Model", Value: fmt.Sprintf("%.1f%%", model*100), Inline: true},
		{Name: "EV", Value: fmt.Sprintf("%+.1f%%", f.Edge*100), Inline: true},
	}
	if f.MarketHome != nil {
		fields = append(fields, Field{
			Name:   "Market (no vig)",
			Value:  fmt.Sprintf("%.0f / %.0f / %.0f", *f.MarketHome*100, *f.MarketDraw*100, *f.MarketAway*100),
			Inline: false,
		})
	}
	return n.SendEmbed(ctx, Embed{
		Title:       fmt.Sprintf("Value Bet: %s", league),
		Description: fmt.Sprintf("%s v %s", f.HomeTeam, f.AwayTeam),
		Color:       ColorGreen,
		Fields:      fields,
	})
}

// RunFailed reports a league whose feature build aborted.
func (n *Notifier) RunFailed(ctx context.Context, league string, err error) error {
	return n.SendEmbed(ctx, Embed{
		Title:       fmt.Sprintf("Feature build failed: %s", league),
		Description: err.Error(),
		Color:       ColorRed,
	})
}
