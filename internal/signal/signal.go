// Package signal standardizes payloads shared between data ingestion, indicator fetchers, and the decision engine.
package signal

import "time"

// Tick models one observed trade on the tracked pair.
type Tick struct {
	Symbol string
	Price  float64
	Size   float64
	Side   int // +1 buy, -1 sell (aggressor)
	Ts     time.Time
}

// Reading is either a present value or absent. Absent readings contribute nothing to scoring.
type Reading[T any] struct {
	value T
	ok    bool
}

// Present wraps an available value.
func Present[T any](v T) Reading[T] { return Reading[T]{value: v, ok: true} }

// Absent returns an empty reading.
func Absent[T any]() Reading[T] { return Reading[T]{} }

// Get returns the value and whether it is present.
func (r Reading[T]) Get() (T, bool) { return r.value, r.ok }

// IsPresent reports whether a value is available.
func (r Reading[T]) IsPresent() bool { return r.ok }

// OrZero returns the value, or the zero value of T when absent.
func (r Reading[T]) OrZero() T { return r.value }

// FearGreed is one sample of the market-wide Fear & Greed index.
type FearGreed struct {
	Value          int // 0..100
	Classification string
	Ts             time.Time
}

// Sentiment is the mean compound score of a batch of social posts.
type Sentiment struct {
	Score   float64 // -1..1
	Samples int
	Ts      time.Time
}
