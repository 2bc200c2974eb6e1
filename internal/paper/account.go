// Package paper simulates a single-position, all-in/all-out trading account.
package paper

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"sentibot-go/internal/execution"
)

// NoTrade is the last-trade description before any fill.
const NoTrade = "No trade executed."

// DefaultCommissionRate is charged on the traded amount of every fill.
const DefaultCommissionRate = 0.001

// ErrInvariant reports a transition that would break position exclusivity.
// Callers gate on position state, so hitting it is a programming error.
var ErrInvariant = errors.New("paper account invariant violated")

// Trade is one executed fill together with the balances it left behind.
type Trade struct {
	ID            string
	Side          execution.Side
	Price         float64
	Qty           float64
	Fee           float64
	CashAfter     float64
	PositionAfter float64
	Description   string
	Ts            time.Time
}

// Account holds either cash or the asset, never both.
type Account struct {
	mu             sync.Mutex
	asset          string
	startingCash   float64
	cash           float64
	position       float64
	commissionRate float64
	lastTrade      string
}

// Snapshot is a read-only copy of the account marked at a given price.
type Snapshot struct {
	Asset          string
	StartingCash   float64
	Cash           float64
	Position       float64
	CommissionRate float64
	LastTrade      string
	Mark           float64
	Equity         float64
	ProfitPct      float64
}

// NewAccount starts flat with startingCash. A negative commission rate falls back to the default.
func NewAccount(startingCash, commissionRate float64, asset string) *Account {
	if commissionRate < 0 || commissionRate >= 1 {
		commissionRate = DefaultCommissionRate
	}
	if startingCash < 0 {
		startingCash = 0
	}
	if asset == "" {
		asset = "units"
	}
	return &Account{
		asset:          asset,
		startingCash:   startingCash,
		cash:           startingCash,
		commissionRate: commissionRate,
		lastTrade:      NoTrade,
	}
}

// BuyAll converts the whole cash balance into the asset at price, net of commission.
func (a *Account) BuyAll(price float64, ts time.Time) (Trade, error) {
	if price <= 0 {
		return Trade{}, fmt.Errorf("buy at %.8f: price must be positive", price)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.position != 0 || a.cash <= 0 {
		return Trade{}, fmt.Errorf("buy with cash=%.2f position=%.8f: %w", a.cash, a.position, ErrInvariant)
	}
	fee := a.cash * a.commissionRate
	qty := a.cash * (1 - a.commissionRate) / price
	a.position = qty
	a.cash = 0
	a.lastTrade = fmt.Sprintf("Simulated Buy: %.6f %s at $%.2f", qty, a.asset, price)
	if err := a.checkInvariant(); err != nil {
		return Trade{}, err
	}
	return a.trade(execution.Buy, price, qty, fee, ts), nil
}

// SellAll converts the whole position back to cash at price, net of commission.
func (a *Account) SellAll(price float64, ts time.Time) (Trade, error) {
	if price <= 0 {
		return Trade{}, fmt.Errorf("sell at %.8f: price must be positive", price)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.position <= 0 {
		return Trade{}, fmt.Errorf("sell with position=%.8f: %w", a.position, ErrInvariant)
	}
	qty := a.position
	gross := qty * price
	fee := gross * a.commissionRate
	a.cash = gross * (1 - a.commissionRate)
	a.position = 0
	a.lastTrade = fmt.Sprintf("Simulated Sell: Converted to $%.2f USD at $%.2f", a.cash, price)
	if err := a.checkInvariant(); err != nil {
		return Trade{}, err
	}
	return a.trade(execution.Sell, price, qty, fee, ts), nil
}

func (a *Account) trade(side execution.Side, price, qty, fee float64, ts time.Time) Trade {
	return Trade{
		ID:            uuid.New().String(),
		Side:          side,
		Price:         price,
		Qty:           qty,
		Fee:           fee,
		CashAfter:     a.cash,
		PositionAfter: a.position,
		Description:   a.lastTrade,
		Ts:            ts,
	}
}

// checkInvariant must be called with mu held.
func (a *Account) checkInvariant() error {
	if a.cash < 0 || a.position < 0 || (a.cash > 0 && a.position > 0) {
		return fmt.Errorf("cash=%.8f position=%.8f: %w", a.cash, a.position, ErrInvariant)
	}
	return nil
}

// Snapshot returns a copy of balances marked at the supplied price (0 leaves the position unvalued).
func (a *Account) Snapshot(mark float64) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	equity := a.cash
	if mark > 0 {
		equity += a.position * mark
	}
	var profit float64
	if a.startingCash > 0 {
		profit = (equity - a.startingCash) / a.startingCash * 100
	}
	return Snapshot{
		Asset:          a.asset,
		StartingCash:   a.startingCash,
		Cash:           a.cash,
		Position:       a.position,
		CommissionRate: a.commissionRate,
		LastTrade:      a.lastTrade,
		Mark:           mark,
		Equity:         equity,
		ProfitPct:      profit,
	}
}

// Cash reports the free cash balance.
func (a *Account) Cash() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cash
}

// Position reports the held asset quantity.
func (a *Account) Position() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.position
}

// Flat reports whether the account holds no asset.
func (a *Account) Flat() bool { return a.Position() == 0 }

// CommissionRate returns the fee fraction charged per fill.
func (a *Account) CommissionRate() float64 { return a.commissionRate }

// StartingCash returns the initial bankroll.
func (a *Account) StartingCash() float64 { return a.startingCash }

// LastTrade describes the most recent fill, or NoTrade.
func (a *Account) LastTrade() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastTrade
}
