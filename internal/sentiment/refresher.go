package sentiment

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"sentibot-go/internal/metrics"
	"sentibot-go/internal/signal"
)

// FearGreedFetcher returns the current market-wide index.
type FearGreedFetcher interface {
	Fetch(ctx context.Context) (signal.FearGreed, error)
}

// SocialFetcher returns the mean sentiment over up to sampleSize recent posts of topic.
type SocialFetcher interface {
	Fetch(ctx context.Context, topic string, sampleSize int) (signal.Sentiment, error)
}

// RefresherConfig sets the polling cadence for each indicator.
type RefresherConfig struct {
	FearGreedInterval time.Duration
	SentimentInterval time.Duration
	FetchTimeout      time.Duration
	MaxAge            time.Duration // readings older than this read as absent; 0 disables
	Topic             string
	SampleSize        int
}

func (c RefresherConfig) withDefaults() RefresherConfig {
	if c.FearGreedInterval <= 0 {
		c.FearGreedInterval = 10 * time.Minute
	}
	if c.SentimentInterval <= 0 {
		c.SentimentInterval = time.Minute
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 15 * time.Second
	}
	if c.Topic == "" {
		c.Topic = "Bitcoin"
	}
	if c.SampleSize <= 0 {
		c.SampleSize = 100
	}
	return c
}

// Refresher polls both indicators on their own cadence and publishes each reading with a single atomic swap.
// A failed fetch clears the reading so evaluation treats it as absent.
type Refresher struct {
	fearGreed FearGreedFetcher
	social    SocialFetcher
	cfg       RefresherConfig
	log       zerolog.Logger
	now       func() time.Time

	fg        atomic.Pointer[stamped[signal.FearGreed]]
	sentiment atomic.Pointer[stamped[signal.Sentiment]]
}

// stamped pairs a reading with the time it was fetched; staleness is judged on fetch time.
type stamped[T any] struct {
	value     T
	fetchedAt time.Time
}

// NewRefresher builds a refresher. A nil fetcher leaves that indicator permanently absent.
func NewRefresher(fg FearGreedFetcher, social SocialFetcher, cfg RefresherConfig, log zerolog.Logger) *Refresher {
	return &Refresher{
		fearGreed: fg,
		social:    social,
		cfg:       cfg.withDefaults(),
		log:       log,
		now:       time.Now,
	}
}

// Run refreshes both indicators immediately and then on their intervals until ctx is canceled.
func (r *Refresher) Run(ctx context.Context) error {
	r.RefreshFearGreed(ctx)
	r.RefreshSentiment(ctx)

	fgTicker := time.NewTicker(r.cfg.FearGreedInterval)
	defer fgTicker.Stop()
	sentTicker := time.NewTicker(r.cfg.SentimentInterval)
	defer sentTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-fgTicker.C:
			r.RefreshFearGreed(ctx)
		case <-sentTicker.C:
			r.RefreshSentiment(ctx)
		}
	}
}

// RefreshFearGreed fetches the index once. A fetch cut short by parent cancellation changes nothing.
func (r *Refresher) RefreshFearGreed(parent context.Context) {
	if r.fearGreed == nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, r.cfg.FetchTimeout)
	defer cancel()

	v, err := r.fearGreed.Fetch(ctx)
	if err != nil {
		if parent.Err() != nil {
			return
		}
		r.fg.Store(nil)
		metrics.IndicatorFetchErrors.WithLabelValues("fear_greed").Inc()
		r.log.Warn().Err(err).Msg("fear & greed fetch failed, treating as absent")
		return
	}
	now := r.now()
	if v.Ts.IsZero() {
		v.Ts = now
	}
	r.fg.Store(&stamped[signal.FearGreed]{value: v, fetchedAt: now})
	r.log.Info().Int("value", v.Value).Str("class", v.Classification).Msg("fear & greed refreshed")
}

// RefreshSentiment fetches social sentiment once.
func (r *Refresher) RefreshSentiment(parent context.Context) {
	if r.social == nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, r.cfg.FetchTimeout)
	defer cancel()

	v, err := r.social.Fetch(ctx, r.cfg.Topic, r.cfg.SampleSize)
	if err != nil {
		if parent.Err() != nil {
			return
		}
		r.sentiment.Store(nil)
		metrics.IndicatorFetchErrors.WithLabelValues("social_sentiment").Inc()
		r.log.Warn().Err(err).Str("topic", r.cfg.Topic).Msg("social sentiment fetch failed, treating as absent")
		return
	}
	now := r.now()
	if v.Ts.IsZero() {
		v.Ts = now
	}
	r.sentiment.Store(&stamped[signal.Sentiment]{value: v, fetchedAt: now})
	r.log.Info().Float64("score", v.Score).Int("samples", v.Samples).Msg("social sentiment refreshed")
}

// FearGreed returns the latest index reading.
func (r *Refresher) FearGreed() signal.Reading[signal.FearGreed] {
	v := r.fg.Load()
	if v == nil || r.stale(v.fetchedAt) {
		return signal.Absent[signal.FearGreed]()
	}
	return signal.Present(v.value)
}

// Sentiment returns the latest social sentiment reading.
func (r *Refresher) Sentiment() signal.Reading[signal.Sentiment] {
	v := r.sentiment.Load()
	if v == nil || r.stale(v.fetchedAt) {
		return signal.Absent[signal.Sentiment]()
	}
	return signal.Present(v.value)
}

func (r *Refresher) stale(ts time.Time) bool {
	return r.cfg.MaxAge > 0 && r.now().Sub(ts) > r.cfg.MaxAge
}
