// Package execution reports orders produced by the decision engine.
package execution

import (
	"sentibot-go/internal/metrics"

	"github.com/rs/zerolog"
)

// Side enumerates order directions used by the executor.
type Side string

const (
	// Buy converts the full cash balance into the asset.
	Buy Side = "BUY"
	// Sell converts the full position back into cash.
	Sell Side = "SELL"
)

// Order is an all-in or all-out market order against the paper account.
type Order struct {
	ID     string
	Symbol string
	Side   Side
	Qty    float64
	Price  float64
	Fee    float64
}

// Executor is a logger-backed sink for filled paper orders.
type Executor struct{ log zerolog.Logger }

// NewExecutor wraps a zerolog logger for order reporting.
func NewExecutor(log zerolog.Logger) *Executor { return &Executor{log: log} }

// Submit records the order in metrics and the log. Paper fills happen on the account, never on a venue.
func (executor *Executor) Submit(order Order) error {
	metrics.OrdersTotal.WithLabelValues(order.Symbol, string(order.Side)).Inc()
	executor.log.Info().
		Str("id", order.ID).
		Str("sym", order.Symbol).
		Str("side", string(order.Side)).
		Float64("qty", order.Qty).
		Float64("px", order.Price).
		Float64("fee", order.Fee).
		Msg("paper order filled")
	return nil
}
