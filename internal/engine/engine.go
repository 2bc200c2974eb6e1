// Package engine turns the rolling price window and the latest indicator readings into paper trades.
package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"sentibot-go/internal/paper"
	"sentibot-go/internal/signal"
	"sentibot-go/internal/window"
)

// Action is the outcome of one evaluation.
type Action string

const (
	Hold Action = "Hold"
	Buy  Action = "Buy"
	Sell Action = "Sell"
)

// ReasonInsufficientHistory is reported while the window is shorter than Policy.MinHistory.
const ReasonInsufficientHistory = "insufficient history"

// Indicators is the snapshot one evaluation scores against.
type Indicators struct {
	Samples     int
	LatestPrice float64
	SMAShort    signal.Reading[float64]
	SMALong     signal.Reading[float64]
	FearGreed   signal.Reading[signal.FearGreed]
	Sentiment   signal.Reading[float64]
	Ts          time.Time
}

// IndicatorsFrom derives the moving averages from w and attaches the external readings.
func IndicatorsFrom(w *window.PriceWindow, p Policy, fg signal.Reading[signal.FearGreed], sentiment signal.Reading[float64], ts time.Time) Indicators {
	ind := Indicators{
		Samples:   w.Len(),
		FearGreed: fg,
		Sentiment: sentiment,
		Ts:        ts,
	}
	if px, ok := w.Last(); ok {
		ind.LatestPrice = px
	}
	if v, ok := w.MovingAverage(p.ShortWindow); ok {
		ind.SMAShort = signal.Present(v)
	}
	if v, ok := w.MovingAverage(p.LongWindow); ok {
		ind.SMALong = signal.Present(v)
	}
	return ind
}

// Decision is the record returned for every evaluation.
type Decision struct {
	Action              Action
	Reason              string
	Scores              Scores
	Price               float64
	Ts                  time.Time
	InsufficientHistory bool
	Trade               *paper.Trade
}

// Engine scores indicators and flips the account between flat and positioned.
// It is not reentrant; Session serializes calls.
type Engine struct {
	policy Policy
	log    zerolog.Logger
}

// New builds an engine; zero policy fields take the defaults.
func New(policy Policy, log zerolog.Logger) *Engine {
	return &Engine{policy: policy.WithDefaults(), log: log}
}

// Policy returns the effective thresholds.
func (e *Engine) Policy() Policy { return e.policy }

// Evaluate performs at most one transition on acct: Flat→Positioned via Buy or Positioned→Flat via Sell.
// It panics if the account rejects a transition the threshold checks allowed.
func (e *Engine) Evaluate(ind Indicators, acct *paper.Account) Decision {
	d := Decision{Action: Hold, Price: ind.LatestPrice, Ts: ind.Ts}

	if ind.Samples < e.policy.MinHistory || !ind.SMAShort.IsPresent() || !ind.SMALong.IsPresent() {
		d.Reason = ReasonInsufficientHistory
		d.InsufficientHistory = true
		return d
	}

	d.Scores = e.policy.Score(ind)
	buy, sell := d.Scores.BuyScore, d.Scores.SellScore
	thr := e.policy.TradeThreshold
	cash, position := acct.Cash(), acct.Position()

	if ind.LatestPrice <= 0 {
		d.Reason = "Hold: no valid price"
		return d
	}

	switch {
	case buy >= thr && position == 0 && cash > 0:
		trade, err := acct.BuyAll(ind.LatestPrice, ind.Ts)
		if err != nil {
			panic(fmt.Sprintf("engine: buy gated on flat account was rejected: %v", err))
		}
		d.Action = Buy
		d.Trade = &trade
		d.Reason = fmt.Sprintf("Buy executed with a score of %.2f (%s)", buy, strings.Join(d.Scores.drivers, ", "))
	case sell >= thr && position > 0:
		trade, err := acct.SellAll(ind.LatestPrice, ind.Ts)
		if err != nil {
			panic(fmt.Sprintf("engine: sell gated on positioned account was rejected: %v", err))
		}
		d.Action = Sell
		d.Trade = &trade
		d.Reason = fmt.Sprintf("Sell executed with a score of %.2f (%s)", sell, strings.Join(d.Scores.drivers, ", "))
	case position > 0:
		d.Reason = fmt.Sprintf("Hold: Insufficient sell score (%.2f < %.2f)", sell, thr)
	case cash > 0:
		d.Reason = fmt.Sprintf("Hold: Insufficient buy score (%.2f < %.2f)", buy, thr)
	default:
		d.Reason = "Hold: account holds neither cash nor position"
	}

	e.log.Debug().
		Str("action", string(d.Action)).
		Float64("buy", buy).
		Float64("sell", sell).
		Float64("sma", d.Scores.SMAScore).
		Float64("fg", d.Scores.FearGreedScore).
		Float64("sentiment", d.Scores.SentimentScore).
		Msg("evaluated")
	return d
}
