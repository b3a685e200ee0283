package payment

import (
	"context"
	"testing"
	"time"
)

func TestRemainingFormatting(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name     string
		deadline time.Time
		want     string
	}{
		{"full day", base.Add(24 * time.Hour), "24:00:00"},
		{"mixed", base.Add(2*time.Hour + 5*time.Minute + 9*time.Second), "02:05:09"},
		{"under a minute", base.Add(42 * time.Second), "00:00:42"},
		{"sub-second remainder floors", base.Add(90*time.Second + 400*time.Millisecond), "00:01:30"},
		{"exactly now", base, Expired},
		{"already past", base.Add(-time.Minute), Expired},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Remaining(tc.deadline, base); got != tc.want {
				t.Fatalf("Remaining = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCountdownRecomputesFromDeadline(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base

	var displays []string
	countdown, err := NewCountdown(CountdownParams{
		Deadline: base.Add(3 * time.Second),
		OnTick: func(display string) {
			displays = append(displays, display)
		},
		Interval: time.Millisecond,
		Now: func() time.Time {
			// Each observation advances the clock by a full second, so the
			// display must follow wall time, not tick count.
			current := now
			now = now.Add(time.Second)
			return current
		},
	})
	if err != nil {
		t.Fatalf("new countdown: %v", err)
	}
	if err := countdown.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{"00:00:03", "00:00:02", "00:00:01", Expired}
	if len(displays) != len(want) {
		t.Fatalf("unexpected displays %v", displays)
	}
	for i, display := range want {
		if displays[i] != display {
			t.Fatalf("display[%d] = %q, want %q (all: %v)", i, displays[i], display, displays)
		}
	}
}

func TestCountdownPastDeadlineEmitsExpiredOnce(t *testing.T) {
	t.Parallel()
	var displays []string
	countdown, err := NewCountdown(CountdownParams{
		Deadline: time.Now().Add(-time.Hour),
		OnTick: func(display string) {
			displays = append(displays, display)
		},
	})
	if err != nil {
		t.Fatalf("new countdown: %v", err)
	}
	if err := countdown.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(displays) != 1 || displays[0] != Expired {
		t.Fatalf("expected single expired emission, got %v", displays)
	}
}

func TestCountdownStopsOnCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	countdown, err := NewCountdown(CountdownParams{
		Deadline: time.Now().Add(time.Hour),
		OnTick:   func(string) {},
		Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("new countdown: %v", err)
	}
	cancel()
	if err := countdown.Run(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewCountdownValidation(t *testing.T) {
	t.Parallel()
	if _, err := NewCountdown(CountdownParams{OnTick: func(string) {}}); err == nil {
		t.Fatal("expected error for zero deadline")
	}
	if _, err := NewCountdown(CountdownParams{Deadline: time.Now()}); err == nil {
		t.Fatal("expected error for missing callback")
	}
}
