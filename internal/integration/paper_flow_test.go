package integration

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sentibot-go/internal/engine"
	"sentibot-go/internal/exchange"
	"sentibot-go/internal/execution"
	"sentibot-go/internal/paper"
	"sentibot-go/internal/report"
	"sentibot-go/internal/sentiment"
	sig "sentibot-go/internal/signal"
	"sentibot-go/internal/window"
)

type bullishScorer struct{}

func (bullishScorer) Compound(string) float64 { return 0.9 }

func indicatorServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/fng/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"value":"12","value_classification":"Extreme Fear","timestamp":"1700000000"}]}`))
	})
	mux.HandleFunc("/r/Bitcoin/hot.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"children":[{"data":{"title":"ETF inflows"}},{"data":{"title":"new highs"}}]}}`))
	})
	return httptest.NewServer(mux)
}

func TestPaperFlowBuysOnceHistoryFills(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := indicatorServer(t)
	defer server.Close()

	refresher := sentiment.NewRefresher(
		sentiment.NewFearGreedClient(server.URL, time.Second),
		sentiment.NewRedditClient(sentiment.RedditConfig{PublicURL: server.URL, Timeout: time.Second}, bullishScorer{}),
		sentiment.RefresherConfig{Topic: "Bitcoin", SampleSize: 10},
		zerolog.Nop(),
	)
	refresher.RefreshFearGreed(ctx)
	refresher.RefreshSentiment(ctx)
	if !refresher.FearGreed().IsPresent() || !refresher.Sentiment().IsPresent() {
		t.Fatalf("expected both indicators to be present after refresh")
	}

	feed := exchange.NewFeed(exchange.ProviderStub, "BTCUSDT", zerolog.Nop(), exchange.WithStubInterval(time.Millisecond))
	ticks := make(chan sig.Tick, 8)
	go func() {
		defer close(ticks)
		_ = feed.Run(ctx, ticks)
	}()
	defer feed.Stop()

	var buf bytes.Buffer
	session := engine.NewSession(
		"BTCUSDT",
		engine.New(engine.DefaultPolicy(), zerolog.Nop()),
		paper.NewAccount(10000, paper.DefaultCommissionRate, "BTC"),
		window.New(100),
		refresher,
		engine.WithLedger(paper.NewLedger(0)),
		engine.WithSubmitter(execution.NewExecutor(zerolog.New(&buf))),
	)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	var decisions []engine.Decision
	_ = session.Run(runCtx, ticks, func(d engine.Decision) {
		if runCtx.Err() != nil {
			return
		}
		decisions = append(decisions, d)
		if d.Action == engine.Buy {
			stop()
		}
	})

	if len(decisions) != 50 {
		t.Fatalf("expected the buy on the 50th tick, got %d decisions", len(decisions))
	}
	for i, d := range decisions[:49] {
		if !d.InsufficientHistory || d.Action != engine.Hold {
			t.Fatalf("decision %d should hold on insufficient history: %+v", i, d)
		}
	}
	buy := decisions[49]
	if buy.Trade == nil || buy.Scores.FearGreedScore != 5 || buy.Scores.SentimentScore != 3 {
		t.Fatalf("unexpected buy decision: %+v", buy)
	}

	snap := session.Snapshot()
	if snap.Account.Cash != 0 || snap.Account.Position <= 0 {
		t.Fatalf("expected a fully positioned account, got %+v", snap.Account)
	}
	if len(snap.Trades) != 1 {
		t.Fatalf("expected one recorded trade, got %d", len(snap.Trades))
	}
	if !strings.Contains(buf.String(), "paper order filled") {
		t.Fatalf("expected executor log, got %q", buf.String())
	}

	var out bytes.Buffer
	report.WriteSummary(&out, snap)
	if !strings.Contains(out.String(), "Buy") {
		t.Fatalf("summary should list the buy, got:\n%s", out.String())
	}
}
