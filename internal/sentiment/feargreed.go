// Package sentiment fetches the external indicators: the Crypto Fear & Greed index and Reddit headline sentiment.
package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"sentibot-go/internal/signal"
)

const defaultFearGreedBaseURL = "https://api.alternative.me"

type fearGreedResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
		Timestamp      string `json:"timestamp"`
	} `json:"data"`
	Metadata struct {
		Error any `json:"error"`
	} `json:"metadata"`
}

// FearGreedClient reads the latest Fear & Greed index value.
type FearGreedClient struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
}

// NewFearGreedClient targets baseURL, or the public alternative.me API when empty.
func NewFearGreedClient(baseURL string, timeout time.Duration) *FearGreedClient {
	if baseURL == "" {
		baseURL = defaultFearGreedBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FearGreedClient{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

// Fetch returns the most recent index sample.
func (c *FearGreedClient) Fetch(ctx context.Context) (signal.FearGreed, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return signal.FearGreed{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/fng/?limit=1", nil)
	if err != nil {
		return signal.FearGreed{}, fmt.Errorf("fear&greed request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return signal.FearGreed{}, fmt.Errorf("fear&greed get: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return signal.FearGreed{}, fmt.Errorf("fear&greed status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload fearGreedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return signal.FearGreed{}, fmt.Errorf("fear&greed decode: %w", err)
	}
	if len(payload.Data) == 0 {
		return signal.FearGreed{}, fmt.Errorf("fear&greed: empty data")
	}
	entry := payload.Data[0]
	value, err := strconv.Atoi(strings.TrimSpace(entry.Value))
	if err != nil {
		return signal.FearGreed{}, fmt.Errorf("fear&greed value %q: %w", entry.Value, err)
	}
	if value < 0 || value > 100 {
		return signal.FearGreed{}, fmt.Errorf("fear&greed value %d out of range", value)
	}
	ts := time.Now()
	if secs, err := strconv.ParseInt(entry.Timestamp, 10, 64); err == nil {
		ts = time.Unix(secs, 0)
	}
	return signal.FearGreed{Value: value, Classification: entry.Classification, Ts: ts}, nil
}
