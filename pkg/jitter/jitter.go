// Package jitter рассчитывает задержки повторных попыток с элементом случайности,
// чтобы воркеры не повторяли запросы к брокеру синхронно.
package jitter

import (
	"math/rand"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

// Duration возвращает d, увеличенную на случайную долю в диапазоне [0, jitterFactor).
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	return DurationWithRand(d, jitterFactor, rand.Float64)
}

// DurationWithRand позволяет подставить источник случайности (например, в тестах).
func DurationWithRand(d time.Duration, jitterFactor float64, float64Fn func() float64) time.Duration {
	if d <= 0 || jitterFactor <= 0 {
		return d
	}
	return d + time.Duration(float64Fn()*jitterFactor*float64(d))
}

// ExponentialBackoff возвращает base*2^attempt, ограниченную max, с джиттером.
// attempt нумеруется с нуля; отрицательные значения трактуются как ноль.
func ExponentialBackoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	return Duration(capped(base, max, attempt), jitterFactor)
}

func capped(base, max time.Duration, attempt int) time.Duration {
	backoff := base
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff >= max || backoff <= 0 {
			return max
		}
	}
	if backoff > max {
		return max
	}
	return backoff
}
