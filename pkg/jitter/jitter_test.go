package jitter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCapped(t *testing.T) {
	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{"first attempt", 0, time.Second},
		{"negative attempt", -3, time.Second},
		{"third attempt", 2, 4 * time.Second},
		{"hits cap", 10, 30 * time.Second},
		{"overflow guarded", 200, 30 * time.Second},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, capped(time.Second, 30*time.Second, tc.attempt))
		})
	}
}

func TestDurationWithRand_Bounds(t *testing.T) {
	d := 10 * time.Second

	assert.Equal(t, d, DurationWithRand(d, 0.5, func() float64 { return 0 }))
	assert.Equal(t, 15*time.Second, DurationWithRand(d, 0.5, func() float64 { return 1 }))
	assert.Equal(t, d, DurationWithRand(d, 0, func() float64 { return 1 }))
}

func TestExponentialBackoff_StaysWithinJitterRange(t *testing.T) {
	for attempt := 0; attempt < 8; attempt++ {
		base := capped(time.Second, 20*time.Second, attempt)
		got := ExponentialBackoff(time.Second, 20*time.Second, attempt, DefaultJitter)
		assert.GreaterOrEqual(t, got, base)
		assert.LessOrEqual(t, got, base+base/2)
	}
}
