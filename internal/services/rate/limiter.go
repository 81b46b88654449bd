package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	swipesMinuteWindow = time.Minute
	swipes10SecWindow  = 10 * time.Second
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// TooFastError is returned when the caller exhausted one of the swipe windows.
type TooFastError struct {
	RetryAfterSec int64
}

func (e *TooFastError) Error() string {
	return fmt.Sprintf("too many swipes, retry after %ds", e.RetryAfterSec)
}

// Limiter throttles swipe submissions with two fixed windows. A zero limit
// disables its window.
type Limiter struct {
	store     WindowStore
	perMinute int
	per10Sec  int
}

func NewLimiter(store WindowStore, perMinute, per10Sec int) *Limiter {
	if perMinute < 0 {
		perMinute = 0
	}
	if per10Sec < 0 {
		per10Sec = 0
	}

	return &Limiter{
		store:     store,
		perMinute: perMinute,
		per10Sec:  per10Sec,
	}
}

// AllowSwipe counts one swipe and returns *TooFastError when it exceeds a window.
func (l *Limiter) AllowSwipe(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, w := range l.windows(userID) {
		count, ttl, err := l.store.IncrementWindow(ctx, w.key, w.size)
		if err != nil {
			return err
		}
		if count > int64(w.limit) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return &TooFastError{RetryAfterSec: retryAfterSec}
	}
	return nil
}

type window struct {
	key   string
	size  time.Duration
	limit int
}

func (l *Limiter) windows(userID uuid.UUID) []window {
	out := make([]window, 0, 2)
	if l.perMinute > 0 {
		out = append(out, window{key: "rate:swipes:min:" + userID.String(), size: swipesMinuteWindow, limit: l.perMinute})
	}
	if l.per10Sec > 0 {
		out = append(out, window{key: "rate:swipes:10s:" + userID.String(), size: swipes10SecWindow, limit: l.per10Sec})
	}
	return out
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
