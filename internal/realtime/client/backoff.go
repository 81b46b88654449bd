package client

import (
	"math"
	"time"
)

// Backoff is the reconnect schedule: BaseDelay * Multiplier^attempt, for at
// most MaxAttempts automatic attempts.
type Backoff struct {
	BaseDelay   time.Duration
	Multiplier  float64
	MaxAttempts int
}

func DefaultBackoff() Backoff {
	return Backoff{
		BaseDelay:   2 * time.Second,
		Multiplier:  1.5,
		MaxAttempts: 5,
	}
}

func (b Backoff) normalized() Backoff {
	def := DefaultBackoff()
	if b.BaseDelay <= 0 {
		b.BaseDelay = def.BaseDelay
	}
	if b.Multiplier < 1 {
		b.Multiplier = def.Multiplier
	}
	if b.MaxAttempts < 0 {
		b.MaxAttempts = 0
	}
	return b
}

// Delay returns the wait before the reconnect following attempt prior failures.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return time.Duration(float64(b.BaseDelay) * math.Pow(b.Multiplier, float64(attempt)))
}
