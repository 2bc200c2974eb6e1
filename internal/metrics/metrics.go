// Package metrics exposes Prometheus instruments for the feed, the indicators, and the decision engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_total", Help: "Count of market ticks ingested"},
		[]string{"symbol"},
	)
	DroppedTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dropped_ticks_total", Help: "Malformed ticks rejected at the feed boundary"},
		[]string{"symbol"},
	)
	FeedReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "feed_reconnects_total", Help: "Price feed reconnect attempts"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Paper orders filled"},
		[]string{"symbol", "side"},
	)
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "decisions_total", Help: "Decisions by action"},
		[]string{"action"},
	)
	IndicatorFetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "indicator_fetch_errors_total", Help: "Failed indicator fetches by source"},
		[]string{"source"},
	)
	BuyScore = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "buy_score", Help: "Buy score of the latest evaluation"},
	)
	SellScore = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "sell_score", Help: "Sell score of the latest evaluation"},
	)
	Equity = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "paper_equity", Help: "Cash plus position marked at the last price"},
	)
)

func init() {
	prometheus.MustRegister(
		TicksTotal, DroppedTicksTotal, FeedReconnectsTotal, OrdersTotal,
		DecisionsTotal, IndicatorFetchErrors, BuyScore, SellScore, Equity,
	)
}

// Serve exposes /metrics on addr in the background. An empty addr disables the listener.
func Serve(addr string) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
