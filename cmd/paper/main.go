package main

import (
	"context"
	"errors"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"sentibot-go/internal/config"
	"sentibot-go/internal/engine"
	"sentibot-go/internal/exchange"
	"sentibot-go/internal/execution"
	"sentibot-go/internal/metrics"
	"sentibot-go/internal/paper"
	"sentibot-go/internal/report"
	"sentibot-go/internal/sentiment"
	sig "sentibot-go/internal/signal"
	"sentibot-go/internal/util"
	"sentibot-go/internal/window"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to config file")
	provider := flag.String("provider", "", "price feed provider: stub|binance (overrides config)")
	statusEvery := flag.Int("status-every", 50, "print a status line every N ticks (0 disables)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := util.NewLogger("info")
		boot.Fatal().Err(err).Str("path", *configPath).Msg("load config")
	}
	if *provider != "" {
		cfg.Exchange.Provider = *provider
	}
	log := util.NewLoggerTo(os.Stdout, cfg.App.LogLevel, cfg.App.LogFormat)

	if srv := metrics.Serve(cfg.App.MetricsAddr); srv != nil {
		defer srv.Close()
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	refresher := buildRefresher(cfg, log.With().Str("component", "indicators").Logger())
	go func() {
		if err := refresher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("indicator refresher stopped")
		}
	}()

	feed := exchange.NewFeed(cfg.Exchange.Provider, cfg.Exchange.Symbol, log.With().Str("component", "feed").Logger(),
		exchange.WithStreamURL(cfg.Exchange.StreamURL),
		exchange.WithStubInterval(cfg.Exchange.StubInterval()),
		exchange.WithMaxReconnects(cfg.Exchange.MaxReconnects),
	)
	ticks := make(chan sig.Tick, cfg.Exchange.TickBuffer)
	go func() {
		defer close(ticks)
		if err := feed.Run(ctx, ticks); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("feed stopped")
			cancel()
		}
	}()

	sessionLog := log.With().Str("component", "engine").Logger()
	session := engine.NewSession(
		cfg.Exchange.Symbol,
		engine.New(policyFromConfig(cfg.Strategy.Params), sessionLog),
		paper.NewAccount(cfg.Paper.StartingCash, cfg.Paper.Commission(), cfg.Paper.Asset),
		window.New(cfg.Paper.WindowCapacity),
		refresher,
		engine.WithLedger(paper.NewLedger(cfg.Paper.MaxTradeRows)),
		engine.WithSubmitter(execution.NewExecutor(log.With().Str("component", "execution").Logger())),
		engine.WithLogger(sessionLog),
	)

	log.Info().
		Str("symbol", cfg.Exchange.Symbol).
		Str("provider", cfg.Exchange.Provider).
		Float64("starting_cash", cfg.Paper.StartingCash).
		Msg("paper engine started")

	n := 0
	err = session.Run(ctx, ticks, func(d engine.Decision) {
		n++
		if *statusEvery > 0 && (n%*statusEvery == 0 || d.Action != engine.Hold) {
			log.Info().Msg(report.StatusLine(session.Snapshot()))
		}
	})
	feed.Stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("session stopped")
	}
	log.Info().Msg("shutting down")
	report.WriteSummary(os.Stdout, session.Snapshot())
}

func buildRefresher(cfg *config.Config, log zerolog.Logger) *sentiment.Refresher {
	ind := cfg.Indicators
	timeout := time.Duration(ind.FetchTimeoutSecs) * time.Second

	var fg sentiment.FearGreedFetcher
	if ind.FearGreed.Enabled {
		fg = sentiment.NewFearGreedClient(ind.FearGreed.BaseURL, timeout)
	}
	var social sentiment.SocialFetcher
	if ind.Reddit.Enabled {
		social = sentiment.NewRedditClient(sentiment.RedditConfig{
			ClientID:     ind.Reddit.ClientID,
			ClientSecret: ind.Reddit.ClientSecret,
			UserAgent:    ind.Reddit.UserAgent,
			Timeout:      timeout,
		}, nil)
	}
	return sentiment.NewRefresher(fg, social, sentiment.RefresherConfig{
		FearGreedInterval: time.Duration(ind.FearGreed.RefreshIntervalSecs) * time.Second,
		SentimentInterval: time.Duration(ind.Reddit.RefreshIntervalSecs) * time.Second,
		FetchTimeout:      timeout,
		MaxAge:            time.Duration(ind.MaxAgeSecs) * time.Second,
		Topic:             ind.Reddit.Subreddit,
		SampleSize:        ind.Reddit.SampleSize,
	}, log)
}

func policyFromConfig(p config.StrategyParams) engine.Policy {
	return engine.Policy{
		ShortWindow:           p.ShortWindow,
		LongWindow:            p.LongWindow,
		MinHistory:            p.MinHistory,
		TradeThreshold:        p.TradeThreshold,
		ExtremeFear:           p.ExtremeFear,
		Fear:                  p.Fear,
		Greed:                 p.Greed,
		ExtremeGreed:          p.ExtremeGreed,
		StrongFG:              p.StrongFearGreedWeight,
		MildFG:                p.MildFearGreedWeight,
		StrongSentiment:       p.StrongSentiment,
		MildSentiment:         p.MildSentiment,
		StrongSentimentWeight: p.StrongSentimentWeight,
		MildSentimentWeight:   p.MildSentimentWeight,
	}.WithDefaults()
}
