// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultCommissionRate = 0.001
	defaultMinHistory     = 50
	defaultLongWindow     = 50
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"` // json|console
}

// Exchange describes the trade stream for the single tracked pair.
type Exchange struct {
	Provider       string `yaml:"provider"` // stub|binance
	Symbol         string `yaml:"symbol"`
	StreamURL      string `yaml:"stream_url"`
	MaxReconnects  int    `yaml:"max_reconnects"`
	StubIntervalMs int    `yaml:"stub_interval_ms"`
	TickBuffer     int    `yaml:"tick_buffer"`
}

// FearGreed configures the market-wide sentiment index poller.
type FearGreed struct {
	Enabled             bool   `yaml:"enabled"`
	BaseURL             string `yaml:"base_url"`
	RefreshIntervalSecs int    `yaml:"refresh_interval_secs"`
}

// Reddit configures the social sentiment poller. Credentials usually come from the environment.
type Reddit struct {
	Enabled             bool   `yaml:"enabled"`
	Subreddit           string `yaml:"subreddit"`
	SampleSize          int    `yaml:"sample_size"`
	RefreshIntervalSecs int    `yaml:"refresh_interval_secs"`
	ClientID            string `yaml:"client_id"`
	ClientSecret        string `yaml:"client_secret"`
	UserAgent           string `yaml:"user_agent"`
}

// Indicators groups the external indicator sources.
type Indicators struct {
	FearGreed        FearGreed `yaml:"fear_greed"`
	Reddit           Reddit    `yaml:"reddit"`
	FetchTimeoutSecs int       `yaml:"fetch_timeout_secs"`
	MaxAgeSecs       int       `yaml:"max_age_secs"`
}

// StrategyParams groups the scoring thresholds. Zero values take the engine defaults.
type StrategyParams struct {
	ShortWindow           int     `yaml:"short_window"`
	LongWindow            int     `yaml:"long_window"`
	MinHistory            int     `yaml:"min_history"`
	TradeThreshold        float64 `yaml:"trade_threshold"`
	ExtremeFear           int     `yaml:"extreme_fear"`
	Fear                  int     `yaml:"fear"`
	Greed                 int     `yaml:"greed"`
	ExtremeGreed          int     `yaml:"extreme_greed"`
	StrongFearGreedWeight float64 `yaml:"strong_fear_greed_weight"`
	MildFearGreedWeight   float64 `yaml:"mild_fear_greed_weight"`
	StrongSentiment       float64 `yaml:"strong_sentiment"`
	MildSentiment         float64 `yaml:"mild_sentiment"`
	StrongSentimentWeight float64 `yaml:"strong_sentiment_weight"`
	MildSentimentWeight   float64 `yaml:"mild_sentiment_weight"`
}

// Strategy wraps the parameter bundle.
type Strategy struct {
	Params StrategyParams `yaml:"params"`
}

// Paper captures paper-account settings.
type Paper struct {
	StartingCash   float64  `yaml:"starting_cash"`
	CommissionRate *float64 `yaml:"commission_rate"` // unset takes the default; an explicit 0 trades fee-free
	Asset          string   `yaml:"asset"`
	WindowCapacity int      `yaml:"window_capacity"`
	MaxTradeRows   int      `yaml:"max_trade_rows"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App        App        `yaml:"app"`
	Exchange   Exchange   `yaml:"exchange"`
	Indicators Indicators `yaml:"indicators"`
	Strategy   Strategy   `yaml:"strategy"`
	Paper      Paper      `yaml:"paper"`
}

// Load reads a YAML file from disk, applies .env / environment overrides, and fills defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // optional .env in the working directory

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	applyEnvOverrides(&config)
	setDefaults(&config)
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// StubInterval returns the synthetic feed cadence.
func (e Exchange) StubInterval() time.Duration {
	return time.Duration(e.StubIntervalMs) * time.Millisecond
}

func envFirst(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func applyEnvOverrides(cfg *Config) {
	if v := envFirst("LOG_LEVEL"); v != "" {
		cfg.App.LogLevel = v
	}
	if v := envFirst("REDDIT_CLIENT_ID", "CLIENT_ID"); v != "" {
		cfg.Indicators.Reddit.ClientID = v
	}
	if v := envFirst("REDDIT_CLIENT_SECRET", "CLIENT_SECRET"); v != "" {
		cfg.Indicators.Reddit.ClientSecret = v
	}
	if v := envFirst("REDDIT_USER_AGENT", "USER_AGENT"); v != "" {
		cfg.Indicators.Reddit.UserAgent = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "sentibot"
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.App.LogFormat == "" {
		cfg.App.LogFormat = "json"
	}
	if cfg.Exchange.Provider == "" {
		cfg.Exchange.Provider = "stub"
	}
	if cfg.Exchange.Symbol == "" {
		cfg.Exchange.Symbol = "BTCUSDT"
	}
	if cfg.Exchange.TickBuffer <= 0 {
		cfg.Exchange.TickBuffer = 1024
	}
	if cfg.Indicators.FearGreed.RefreshIntervalSecs <= 0 {
		cfg.Indicators.FearGreed.RefreshIntervalSecs = 600
	}
	if cfg.Indicators.Reddit.Subreddit == "" {
		cfg.Indicators.Reddit.Subreddit = "Bitcoin"
	}
	if cfg.Indicators.Reddit.SampleSize <= 0 {
		cfg.Indicators.Reddit.SampleSize = 100
	}
	if cfg.Indicators.Reddit.RefreshIntervalSecs <= 0 {
		cfg.Indicators.Reddit.RefreshIntervalSecs = 60
	}
	if cfg.Indicators.Reddit.UserAgent == "" {
		cfg.Indicators.Reddit.UserAgent = "SentimentCollector"
	}
	if cfg.Indicators.FetchTimeoutSecs <= 0 {
		cfg.Indicators.FetchTimeoutSecs = 15
	}
	if cfg.Paper.StartingCash <= 0 {
		cfg.Paper.StartingCash = 10000
	}
	if cfg.Paper.CommissionRate == nil || *cfg.Paper.CommissionRate < 0 {
		rate := defaultCommissionRate
		cfg.Paper.CommissionRate = &rate
	}
	if cfg.Paper.Asset == "" {
		cfg.Paper.Asset = "BTC"
	}
	if cfg.Paper.WindowCapacity <= 0 {
		cfg.Paper.WindowCapacity = 100
	}
	// A window shorter than the required history would hold forever.
	if need := cfg.Strategy.Params.RequiredHistory(); cfg.Paper.WindowCapacity < need {
		cfg.Paper.WindowCapacity = need
	}
}

// Commission returns the configured fee fraction, or the default when unset.
func (p Paper) Commission() float64 {
	if p.CommissionRate == nil {
		return defaultCommissionRate
	}
	return *p.CommissionRate
}

// RequiredHistory is the sample count the engine waits for before scoring:
// the larger of min_history and long_window, each falling back to its default.
func (p StrategyParams) RequiredHistory() int {
	need := p.MinHistory
	if need <= 0 {
		need = defaultMinHistory
	}
	long := p.LongWindow
	if long <= 0 {
		long = defaultLongWindow
	}
	if long > need {
		need = long
	}
	return need
}
