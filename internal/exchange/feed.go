// Package exchange delivers trade ticks for the single tracked pair.
package exchange

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sentibot-go/internal/metrics"
	"sentibot-go/internal/signal"
)

const (
	// ProviderStub emits a deterministic synthetic random walk (useful for tests/offline work).
	ProviderStub = "stub"
	// ProviderBinance streams live trades from the Binance public websocket.
	ProviderBinance = "binance"
)

const (
	defaultBinanceStreamURL = "wss://stream.binance.com:9443/ws"
	defaultStubInterval     = 500 * time.Millisecond
	defaultBackoff          = time.Second
	maxBackoff              = 30 * time.Second
)

// Feed is a pluggable trade stream for one symbol. Stop halts delivery; in-flight ticks already
// handed to the consumer are not recalled.
type Feed struct {
	provider      string
	symbol        string
	log           zerolog.Logger
	streamURL     string
	stubInterval  time.Duration
	stubStart     float64
	stubSeed      int64
	backoff       time.Duration
	maxReconnects int

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Option configures Feed construction parameters.
type Option func(*Feed)

// WithStreamURL overrides the websocket base URL (the "/<symbol>@trade" path is appended).
func WithStreamURL(url string) Option {
	return func(f *Feed) {
		if url != "" {
			f.streamURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithStubInterval sets the synthetic tick cadence.
func WithStubInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.stubInterval = d
		}
	}
}

// WithStubWalk seeds the synthetic random walk.
func WithStubWalk(start float64, seed int64) Option {
	return func(f *Feed) {
		if start > 0 {
			f.stubStart = start
		}
		f.stubSeed = seed
	}
}

// WithBackoff sets the initial reconnect delay.
func WithBackoff(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.backoff = d
		}
	}
}

// WithMaxReconnects bounds consecutive failed reconnects before Run gives up (0 retries forever).
func WithMaxReconnects(n int) Option {
	return func(f *Feed) {
		if n >= 0 {
			f.maxReconnects = n
		}
	}
}

// NewFeed constructs a feed backed by the requested provider.
func NewFeed(provider, symbol string, log zerolog.Logger, opts ...Option) *Feed {
	if provider == "" {
		provider = ProviderStub
	}
	f := &Feed{
		provider:     strings.ToLower(provider),
		symbol:       strings.ToUpper(strings.TrimSpace(symbol)),
		log:          log,
		streamURL:    defaultBinanceStreamURL,
		stubInterval: defaultStubInterval,
		stubStart:    100,
		stubSeed:     1,
		backoff:      defaultBackoff,
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Symbol returns the tracked pair.
func (f *Feed) Symbol() string { return f.symbol }

// Stop ends delivery. Run returns nil once it observes the stop. Safe to call more than once.
func (f *Feed) Stop() {
	f.stopOnce.Do(func() { close(f.stopCh) })
}

// Run pushes ticks onto out until ctx is canceled, Stop is called, or the provider gives up.
func (f *Feed) Run(ctx context.Context, out chan<- signal.Tick) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-f.stopCh:
			cancel()
		case <-runCtx.Done():
		}
	}()

	var err error
	switch f.provider {
	case ProviderBinance:
		err = f.runBinance(runCtx, out)
	default:
		err = f.runStub(runCtx, out)
	}
	if f.stopped() {
		return nil
	}
	return err
}

func (f *Feed) stopped() bool {
	select {
	case <-f.stopCh:
		return true
	default:
		return false
	}
}

// emit validates a tick at the boundary; non-positive or non-finite prices never reach the consumer.
func (f *Feed) emit(ctx context.Context, out chan<- signal.Tick, tick signal.Tick) error {
	if tick.Price <= 0 || math.IsNaN(tick.Price) || math.IsInf(tick.Price, 0) {
		metrics.DroppedTicksTotal.WithLabelValues(tick.Symbol).Inc()
		f.log.Warn().Float64("px", tick.Price).Msg("dropping malformed tick")
		return nil
	}
	select {
	case out <- tick:
		metrics.TicksTotal.WithLabelValues(tick.Symbol).Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Feed) runStub(ctx context.Context, out chan<- signal.Tick) error {
	ticker := time.NewTicker(f.stubInterval)
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(f.stubSeed))
	px := f.stubStart
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			px *= 1 + (rng.Float64()-0.5)*0.004
			side := 1
			if rng.Intn(2) == 0 {
				side = -1
			}
			tick := signal.Tick{Symbol: f.symbol, Price: px, Size: rng.Float64(), Side: side, Ts: ts}
			if err := f.emit(ctx, out, tick); err != nil {
				return err
			}
		}
	}
}
