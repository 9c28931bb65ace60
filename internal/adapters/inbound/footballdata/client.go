package footballdata

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/charleschow/match-features/internal/telemetry"
)

const (
	userAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	maxAttempts = 3
	minBackoff  = 1 * time.Second
	maxBytes    = 8 << 20
)

// Client downloads season files, spacing requests with a token bucket.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	backoff time.Duration
}

// NewClient allows one request per interval with no bursting.
func NewClient(interval time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		backoff: minBackoff,
	}
}

// Fetch GETs url, retrying transport errors and 5xx responses.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		start := time.Now()
		body, retry, err := c.get(ctx, url)
		telemetry.Metrics.DownloadLatency.Record(time.Since(start))
		if err == nil {
			telemetry.Metrics.Downloads.Inc()
			return body, nil
		}
		telemetry.Metrics.DownloadErrors.Inc()
		lastErr = err
		if !retry {
			break
		}

		wait := time.Duration(float64(c.backoff) * math.Pow(2, float64(attempt-1)))
		telemetry.Warnf("footballdata: %s attempt %d: %v, retrying in %s", url, attempt, err, wait)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

func (c *Client) get(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode >= 500, fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}
	return body, false, nil
}

// FileName is the on-disk name LoadDir expects for a season file.
func FileName(div string, season int) string {
	return fmt.Sprintf("%s-%d-%02d.csv", div, season, (season+1)%100)
}

// DownloadLeague fetches every season URL into dir. A failed season is
// logged and skipped; the error reports only when nothing was written.
func (c *Client) DownloadLeague(ctx context.Context, dir, div string, urls map[int]string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create data dir: %w", err)
	}
	seasons := make([]int, 0, len(urls))
	for s := range urls {
		seasons = append(seasons, s)
	}
	sort.Ints(seasons)

	written := 0
	for _, s := range seasons {
		body, err := c.Fetch(ctx, urls[s])
		if err != nil {
			if ctx.Err() != nil {
				return written, ctx.Err()
			}
			telemetry.Warnf("footballdata: %s %d: %v", div, s, err)
			continue
		}
		path := filepath.Join(dir, FileName(div, s))
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written++
	}
	if written == 0 && len(seasons) > 0 {
		return 0, fmt.Errorf("footballdata: no season of %s downloaded", div)
	}
	telemetry.Infof("footballdata: %s downloaded %d/%d seasons", div, written, len(seasons))
	return written, nil
}
