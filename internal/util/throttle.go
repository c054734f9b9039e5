package util

import (
	"context"
	"math/rand"
	"time"
)

// Jitter returns a duration drawn uniformly from [0.5d, 1.5d]. Spreading the
// inter-symbol delay avoids a fixed request cadence against the data source.
func Jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := float64(d) / 2
	return time.Duration(half + rand.Float64()*float64(d))
}

// SleepJitter sleeps for a jittered multiple of d, returning early if the
// context is cancelled.
func SleepJitter(ctx context.Context, d time.Duration) error {
	j := Jitter(d)
	if j <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(j):
		return nil
	}
}
