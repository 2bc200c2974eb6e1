package paper

import "sync"

// Ledger keeps executed trades in memory for the lifetime of the process.
type Ledger struct {
	mu     sync.Mutex
	max    int
	trades []Trade
}

// NewLedger creates an empty ledger retaining at most max trades (0 keeps everything).
func NewLedger(max int) *Ledger {
	if max < 0 {
		max = 0
	}
	return &Ledger{max: max}
}

// Record appends a trade, dropping the oldest once the retention cap is hit.
func (l *Ledger) Record(trade Trade) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trades = append(l.trades, trade)
	if l.max > 0 && len(l.trades) > l.max {
		l.trades = append(l.trades[:0], l.trades[len(l.trades)-l.max:]...)
	}
}

// Snapshot returns a copy of the recorded trades, oldest first.
func (l *Ledger) Snapshot() []Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Len reports the number of retained trades.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.trades)
}

// Reset clears all stored trades.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.trades = l.trades[:0]
	l.mu.Unlock()
}
