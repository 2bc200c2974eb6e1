package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"sentibot-go/internal/metrics"
	"sentibot-go/internal/signal"
)

type binanceTrade struct {
	Event        string `json:"e"`
	Symbol       string `json:"s"`
	Price        string `json:"p"`
	Quantity     string `json:"q"`
	TradeTime    int64  `json:"T"`
	IsBuyerMaker bool   `json:"m"`
}

func (f *Feed) binanceURL() string {
	return fmt.Sprintf("%s/%s@trade", f.streamURL, strings.ToLower(f.symbol))
}

func (f *Feed) runBinance(ctx context.Context, out chan<- signal.Tick) error {
	if f.symbol == "" {
		return fmt.Errorf("binance feed requires a symbol")
	}

	url := f.binanceURL()
	backoff := f.backoff
	failures := 0

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		received, err := f.consumeBinanceStream(ctx, url, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			return nil
		}
		if received {
			failures = 0
			backoff = f.backoff
		}
		failures++
		if f.maxReconnects > 0 && failures > f.maxReconnects {
			return fmt.Errorf("binance feed: giving up after %d reconnects: %w", f.maxReconnects, err)
		}
		metrics.FeedReconnectsTotal.Inc()
		f.log.Warn().Err(err).Dur("backoff", backoff).Int("attempt", failures).Msg("binance feed disconnected, retrying")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
	}
}

// consumeBinanceStream reads until the connection fails. received reports whether any trade arrived.
func (f *Feed) consumeBinanceStream(ctx context.Context, url string, out chan<- signal.Tick) (received bool, err error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	f.log.Info().Str("provider", ProviderBinance).Str("symbol", f.symbol).Msg("connected market data feed")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					f.log.Warn().Err(err).Msg("binance ping failed")
					return
				}
			case <-pingCtx.Done():
				// unblock ReadMessage on cancel
				_ = conn.Close()
				return
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return received, err
		}
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))

		tick, ok := f.decodeBinanceTrade(message)
		if !ok {
			metrics.DroppedTicksTotal.WithLabelValues(f.symbol).Inc()
			continue
		}
		received = true
		if err := f.emit(ctx, out, tick); err != nil {
			return received, err
		}
	}
}

func (f *Feed) decodeBinanceTrade(message []byte) (signal.Tick, bool) {
	var trade binanceTrade
	if err := json.Unmarshal(message, &trade); err != nil {
		f.log.Warn().Err(err).Msg("failed to decode binance message")
		return signal.Tick{}, false
	}
	if trade.Event != "" && trade.Event != "trade" {
		return signal.Tick{}, false
	}
	px, err := strconv.ParseFloat(trade.Price, 64)
	if err != nil {
		f.log.Warn().Err(err).Msg("invalid price from binance")
		return signal.Tick{}, false
	}
	qty, err := strconv.ParseFloat(trade.Quantity, 64)
	if err != nil {
		f.log.Warn().Err(err).Msg("invalid quantity from binance")
		return signal.Tick{}, false
	}
	side := 1
	if trade.IsBuyerMaker {
		side = -1
	}
	symbol := strings.ToUpper(trade.Symbol)
	if symbol == "" {
		symbol = f.symbol
	}
	ts := time.Now()
	if trade.TradeTime > 0 {
		ts = time.UnixMilli(trade.TradeTime)
	}
	return signal.Tick{Symbol: symbol, Price: px, Size: qty, Side: side, Ts: ts}, true
}
