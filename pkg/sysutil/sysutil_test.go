package sysutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestElapsedMS(t *testing.T) {
	t.Run("normal_increase", func(t *testing.T) {
		assert.Equal(t, uint32(10), ElapsedMS(110, 100))
	})
	t.Run("no_change", func(t *testing.T) {
		assert.Equal(t, uint32(0), ElapsedMS(100, 100))
	})
	t.Run("wraps_around_2_32", func(t *testing.T) {
		var prev uint32 = math.MaxUint32 - 4
		var now uint32 = 5 // wrapped past 0
		assert.Equal(t, uint32(10), ElapsedMS(now, prev))
	})
}

func TestSafeDiv(t *testing.T) {
	t.Run("regular", func(t *testing.T) {
		assert.InDelta(t, 2.5, SafeDiv(5, 2, 1e-6), 1e-9)
	})
	t.Run("zero_denominator", func(t *testing.T) {
		assert.Equal(t, 0.0, SafeDiv(1, 0, 1e-6))
	})
	t.Run("denominator_within_eps", func(t *testing.T) {
		assert.Equal(t, 0.0, SafeDiv(1, 5e-7, 1e-6))
		assert.Equal(t, 0.0, SafeDiv(1, -5e-7, 1e-6))
	})
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-1))
	assert.Equal(t, 1.0, Clamp01(2))
	assert.Equal(t, 0.5, Clamp01(0.5))
	assert.Equal(t, 0.0, Clamp01(math.NaN()))
}

func TestClampI16(t *testing.T) {
	assert.Equal(t, int16(math.MaxInt16), ClampI16(1<<20))
	assert.Equal(t, int16(math.MinInt16), ClampI16(-(1 << 20)))
	assert.Equal(t, int16(42), ClampI16(42))
}
