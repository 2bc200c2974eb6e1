package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushEvictsOldestFIFO(t *testing.T) {
	w := New(100)
	for i := 1; i <= 105; i++ {
		w.Push(float64(i))
		require.LessOrEqual(t, w.Len(), 100)
	}

	values := w.Values()
	require.Len(t, values, 100)
	for i := 1; i <= 5; i++ {
		assert.NotContains(t, values, float64(i))
	}
	for i := 6; i <= 105; i++ {
		assert.Contains(t, values, float64(i))
	}
	assert.Equal(t, 6.0, values[0])
	last, ok := w.Last()
	require.True(t, ok)
	assert.Equal(t, 105.0, last)
}

func TestMovingAverageAbsentUntilWindowFills(t *testing.T) {
	w := New(100)
	for i := 1; i < 20; i++ {
		w.Push(float64(i))
		_, ok := w.MovingAverage(20)
		assert.False(t, ok, "sma(20) should be absent with %d samples", i)
	}

	w.Push(20)
	avg, ok := w.MovingAverage(20)
	require.True(t, ok)
	assert.InDelta(t, 10.5, avg, 1e-9)

	for i := 21; i <= 30; i++ {
		w.Push(float64(i))
	}
	avg, ok = w.MovingAverage(20)
	require.True(t, ok)
	assert.InDelta(t, 20.5, avg, 1e-9) // mean of 11..30
}

func TestMovingAverageRejectsBadSize(t *testing.T) {
	w := New(10)
	w.Push(1)
	_, ok := w.MovingAverage(0)
	assert.False(t, ok)
}

func TestNewDefaultsCapacity(t *testing.T) {
	w := New(0)
	assert.Equal(t, DefaultCapacity, w.Cap())
	_, ok := w.Last()
	assert.False(t, ok)
}

func TestValuesIsCopy(t *testing.T) {
	w := New(3)
	w.Push(1)
	vals := w.Values()
	vals[0] = 99
	last, _ := w.Last()
	assert.Equal(t, 1.0, last)
}
