// Package window keeps the rolling price history the decision engine scores against.
package window

import (
	"sync"

	"github.com/markcheno/go-talib"
)

// DefaultCapacity bounds the history when no capacity is configured.
const DefaultCapacity = 100

// PriceWindow is an append-only, capacity-bounded sequence of prices, most recent last.
// When full, pushing evicts the oldest entry.
type PriceWindow struct {
	mu       sync.RWMutex
	capacity int
	prices   []float64
}

// New returns an empty window. Non-positive capacity falls back to DefaultCapacity.
func New(capacity int) *PriceWindow {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &PriceWindow{
		capacity: capacity,
		prices:   make([]float64, 0, capacity),
	}
}

// Push appends price, discarding the oldest sample on overflow.
func (w *PriceWindow) Push(price float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.prices) == w.capacity {
		copy(w.prices, w.prices[1:])
		w.prices = w.prices[:len(w.prices)-1]
	}
	w.prices = append(w.prices, price)
}

// MovingAverage returns the mean of the last n prices. ok is false while fewer than n samples exist.
func (w *PriceWindow) MovingAverage(n int) (avg float64, ok bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if n <= 0 || len(w.prices) < n {
		return 0, false
	}
	tail := w.prices[len(w.prices)-n:]
	out := talib.Sma(tail, n)
	return out[len(out)-1], true
}

// Len reports the number of samples held.
func (w *PriceWindow) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.prices)
}

// Cap reports the configured capacity.
func (w *PriceWindow) Cap() int { return w.capacity }

// Last returns the most recent price, or false if the window is empty.
func (w *PriceWindow) Last() (float64, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if len(w.prices) == 0 {
		return 0, false
	}
	return w.prices[len(w.prices)-1], true
}

// Values returns a copy of the held prices, oldest first.
func (w *PriceWindow) Values() []float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]float64, len(w.prices))
	copy(out, w.prices)
	return out
}
