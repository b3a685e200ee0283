package payment

import (
	"context"
	"fmt"
	"time"
)

// Expired is the terminal countdown display value.
const Expired = "Expired"

// Remaining formats the time left until the deadline as HH:MM:SS. Once the
// deadline passes it always returns the Expired label, never a negative
// duration.
func Remaining(deadline, now time.Time) string {
	left := deadline.Sub(now)
	if left <= 0 {
		return Expired
	}
	total := int64(left / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// CountdownParams configure a deadline countdown.
type CountdownParams struct {
	Deadline time.Time
	OnTick   func(display string)

	// Interval defaults to one second; Now defaults to time.Now. Both exist
	// for tests.
	Interval time.Duration
	Now      func() time.Time
}

// Countdown emits a wall-clock display of the time left to pay. Every tick
// recomputes from the deadline rather than decrementing, so a paused or slow
// ticker cannot drift the display.
type Countdown struct {
	deadline time.Time
	onTick   func(string)
	interval time.Duration
	now      func() time.Time
}

// NewCountdown builds a countdown for the given payment deadline.
func NewCountdown(params CountdownParams) (*Countdown, error) {
	if params.Deadline.IsZero() {
		return nil, fmt.Errorf("deadline is required")
	}
	if params.OnTick == nil {
		return nil, fmt.Errorf("tick callback is required")
	}
	if params.Interval <= 0 {
		params.Interval = time.Second
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Countdown{
		deadline: params.Deadline,
		onTick:   params.OnTick,
		interval: params.Interval,
		now:      params.Now,
	}, nil
}

// Run emits the current display immediately and then on every tick until the
// deadline passes or the context is cancelled. The Expired label is emitted
// exactly once before returning.
func (c *Countdown) Run(ctx context.Context) error {
	display := Remaining(c.deadline, c.now())
	c.onTick(display)
	if display == Expired {
		return nil
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			display := Remaining(c.deadline, c.now())
			c.onTick(display)
			if display == Expired {
				return nil
			}
		}
	}
}
