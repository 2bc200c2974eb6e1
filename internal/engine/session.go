package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sentibot-go/internal/execution"
	"sentibot-go/internal/metrics"
	"sentibot-go/internal/paper"
	"sentibot-go/internal/signal"
	"sentibot-go/internal/window"
)

// IndicatorSource supplies the latest external readings. Implementations must be safe for concurrent reads.
type IndicatorSource interface {
	FearGreed() signal.Reading[signal.FearGreed]
	Sentiment() signal.Reading[signal.Sentiment]
}

// Submitter receives every filled paper order.
type Submitter interface {
	Submit(execution.Order) error
}

// SessionOption configures optional Session collaborators.
type SessionOption func(*Session)

// WithLedger records executed trades into l.
func WithLedger(l *paper.Ledger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.ledger = l
		}
	}
}

// WithSubmitter forwards executed trades to sub.
func WithSubmitter(sub Submitter) SessionOption {
	return func(s *Session) { s.submitter = sub }
}

// WithLogger overrides the session logger.
func WithLogger(log zerolog.Logger) SessionOption {
	return func(s *Session) { s.log = log }
}

// Session owns the price window and the account. OnTick is the only writer;
// readers get copies through Snapshot.
type Session struct {
	mu        sync.Mutex
	symbol    string
	engine    *Engine
	window    *window.PriceWindow
	account   *paper.Account
	ledger    *paper.Ledger
	source    IndicatorSource
	submitter Submitter
	log       zerolog.Logger

	lastPrice    float64
	lastDecision Decision
	ticks        int
}

// SessionSnapshot is an immutable view for presentation layers.
type SessionSnapshot struct {
	Symbol       string
	Account      paper.Snapshot
	LastPrice    float64
	Samples      int
	Ticks        int
	FearGreed    signal.Reading[signal.FearGreed]
	Sentiment    signal.Reading[signal.Sentiment]
	LastDecision Decision
	Trades       []paper.Trade
}

// NewSession wires the engine to its state. A nil source yields absent readings on every tick.
func NewSession(symbol string, eng *Engine, acct *paper.Account, w *window.PriceWindow, source IndicatorSource, opts ...SessionOption) *Session {
	s := &Session{
		symbol:  symbol,
		engine:  eng,
		window:  w,
		account: acct,
		ledger:  paper.NewLedger(0),
		source:  source,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if need := eng.Policy().MinHistory; w.Cap() < need {
		s.log.Warn().Int("capacity", w.Cap()).Int("min_history", need).
			Msg("price window cannot reach min history, every tick will hold")
	}
	return s
}

// OnTick pushes the tick price and evaluates once. Calls are serialized; a tick never observes
// a partially applied transition from the previous one.
func (s *Session) OnTick(tk signal.Tick) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.window.Push(tk.Price)
	s.lastPrice = tk.Price
	s.ticks++

	ts := tk.Ts
	if ts.IsZero() {
		ts = time.Now()
	}
	fg, sentiment := s.readings()
	ind := IndicatorsFrom(s.window, s.engine.Policy(), fg, sentimentScore(sentiment), ts)
	d := s.engine.Evaluate(ind, s.account)
	s.lastDecision = d

	if d.Trade != nil {
		s.ledger.Record(*d.Trade)
		s.submit(*d.Trade)
		s.log.Info().
			Str("action", string(d.Action)).
			Float64("px", d.Price).
			Float64("buy_score", d.Scores.BuyScore).
			Float64("sell_score", d.Scores.SellScore).
			Str("trade", d.Trade.Description).
			Msg(d.Reason)
	}

	metrics.DecisionsTotal.WithLabelValues(string(d.Action)).Inc()
	metrics.BuyScore.Set(d.Scores.BuyScore)
	metrics.SellScore.Set(d.Scores.SellScore)
	metrics.Equity.Set(s.account.Snapshot(tk.Price).Equity)
	return d
}

// Run consumes ticks until ctx is canceled or the channel closes. onDecision, if set, sees every decision.
func (s *Session) Run(ctx context.Context, ticks <-chan signal.Tick, onDecision func(Decision)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tk, ok := <-ticks:
			if !ok {
				return nil
			}
			d := s.OnTick(tk)
			if onDecision != nil {
				onDecision(d)
			}
		}
	}
}

// Snapshot copies the session state under the writer lock.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	fg, sentiment := s.readings()
	return SessionSnapshot{
		Symbol:       s.symbol,
		Account:      s.account.Snapshot(s.lastPrice),
		LastPrice:    s.lastPrice,
		Samples:      s.window.Len(),
		Ticks:        s.ticks,
		FearGreed:    fg,
		Sentiment:    sentiment,
		LastDecision: s.lastDecision,
		Trades:       s.ledger.Snapshot(),
	}
}

func (s *Session) readings() (signal.Reading[signal.FearGreed], signal.Reading[signal.Sentiment]) {
	if s.source == nil {
		return signal.Absent[signal.FearGreed](), signal.Absent[signal.Sentiment]()
	}
	return s.source.FearGreed(), s.source.Sentiment()
}

func (s *Session) submit(trade paper.Trade) {
	if s.submitter == nil {
		return
	}
	order := execution.Order{
		ID:     trade.ID,
		Symbol: s.symbol,
		Side:   trade.Side,
		Qty:    trade.Qty,
		Price:  trade.Price,
		Fee:    trade.Fee,
	}
	if err := s.submitter.Submit(order); err != nil {
		s.log.Warn().Err(err).Str("id", trade.ID).Msg("order report failed")
	}
}

func sentimentScore(r signal.Reading[signal.Sentiment]) signal.Reading[float64] {
	if v, ok := r.Get(); ok {
		return signal.Present(v.Score)
	}
	return signal.Absent[float64]()
}
