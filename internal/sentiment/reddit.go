package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"sentibot-go/internal/signal"
)

const (
	defaultRedditPublicURL = "https://www.reddit.com"
	defaultRedditOAuthURL  = "https://oauth.reddit.com"
	defaultRedditUserAgent = "sentibot-go/0.1"
	maxRedditListing       = 100
)

// RedditConfig holds endpoints and app-only OAuth credentials. Without credentials the public JSON listing is used.
type RedditConfig struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	PublicURL    string
	OAuthURL     string
	Timeout      time.Duration
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title string `json:"title"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// RedditClient averages the compound sentiment of hot post titles in a subreddit.
type RedditClient struct {
	http      *http.Client
	cfg       RedditConfig
	scorer    Scorer
	limiter   *rate.Limiter
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewRedditClient builds a client scoring titles with scorer (VADER when nil).
func NewRedditClient(cfg RedditConfig, scorer Scorer) *RedditClient {
	if cfg.PublicURL == "" {
		cfg.PublicURL = defaultRedditPublicURL
	}
	if cfg.OAuthURL == "" {
		cfg.OAuthURL = defaultRedditOAuthURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultRedditUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.PublicURL = strings.TrimSuffix(cfg.PublicURL, "/")
	cfg.OAuthURL = strings.TrimSuffix(cfg.OAuthURL, "/")
	if scorer == nil {
		scorer = NewVaderScorer()
	}
	return &RedditClient{
		http:    &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		scorer:  scorer,
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

func (c *RedditClient) authenticated() bool {
	return c.cfg.ClientID != "" && c.cfg.ClientSecret != ""
}

// Fetch scores up to sampleSize hot posts from subreddit. No posts yields a score of 0.
func (c *RedditClient) Fetch(ctx context.Context, subreddit string, sampleSize int) (signal.Sentiment, error) {
	subreddit = strings.Trim(strings.TrimSpace(subreddit), "/")
	subreddit = strings.TrimPrefix(subreddit, "r/")
	if subreddit == "" {
		return signal.Sentiment{}, fmt.Errorf("reddit: subreddit required")
	}
	if sampleSize <= 0 || sampleSize > maxRedditListing {
		sampleSize = maxRedditListing
	}

	titles, err := c.hotTitles(ctx, subreddit, sampleSize)
	if err != nil {
		return signal.Sentiment{}, err
	}
	return signal.Sentiment{Score: c.average(titles), Samples: len(titles), Ts: time.Now()}, nil
}

func (c *RedditClient) average(titles []string) float64 {
	if len(titles) == 0 {
		return 0
	}
	var total float64
	for _, title := range titles {
		total += c.scorer.Compound(title)
	}
	return total / float64(len(titles))
}

func (c *RedditClient) hotTitles(ctx context.Context, subreddit string, limit int) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{"limit": {strconv.Itoa(limit)}}
	endpoint := fmt.Sprintf("%s/r/%s/hot.json?%s", c.cfg.PublicURL, url.PathEscape(subreddit), q.Encode())
	var bearer string
	if c.authenticated() {
		tok, err := c.accessToken(ctx)
		if err != nil {
			return nil, err
		}
		bearer = tok
		endpoint = fmt.Sprintf("%s/r/%s/hot?%s", c.cfg.OAuthURL, url.PathEscape(subreddit), q.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("reddit request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if bearer != "" {
		req.Header.Set("Authorization", "bearer "+bearer)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reddit get: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateToken()
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("reddit status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("reddit decode: %w", err)
	}
	titles := make([]string, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		title := strings.TrimSpace(child.Data.Title)
		if title == "" {
			continue
		}
		titles = append(titles, title)
		if len(titles) == limit {
			break
		}
	}
	return titles, nil
}

func (c *RedditClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.expiresAt) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.PublicURL+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("reddit token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("reddit token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reddit token status %d", resp.StatusCode)
	}
	var tok redditToken
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("reddit token decode: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("reddit token: empty access token")
	}
	ttl := time.Duration(tok.ExpiresIn) * time.Second
	if ttl <= time.Minute {
		ttl = 10 * time.Minute
	}
	c.token = tok.AccessToken
	c.expiresAt = time.Now().Add(ttl - time.Minute)
	return c.token, nil
}

func (c *RedditClient) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}
