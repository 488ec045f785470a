package ratelimit

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

// fakeClock drives the limiter deterministically. Sleeps advance the clock
// instead of blocking.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter() (*Limiter, *fakeClock) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := New(log)
	l.now = clock.Now
	l.sleep = clock.Sleep
	return l, clock
}

func TestThrottleEnforcesSpacing(t *testing.T) {
	l, clock := newTestLimiter()

	l.Throttle()
	l.RecordRequest()

	// Second call immediately after should sleep the remainder of the floor
	clock.Advance(200 * time.Millisecond)
	l.Throttle()

	if len(clock.sleeps) != 1 {
		t.Fatalf("expected 1 sleep, got %d", len(clock.sleeps))
	}
	if got, want := clock.sleeps[0], 800*time.Millisecond; got != want {
		t.Errorf("expected spacing sleep of %v, got %v", want, got)
	}
}

func TestThrottleNoSpacingWhenEnoughElapsed(t *testing.T) {
	l, clock := newTestLimiter()

	l.Throttle()
	l.RecordRequest()

	clock.Advance(2 * time.Second)
	l.Throttle()

	if len(clock.sleeps) != 0 {
		t.Errorf("expected no sleeps, got %v", clock.sleeps)
	}
}

func TestThrottleDangerZoneWaitsForReset(t *testing.T) {
	l, clock := newTestLimiter()

	resetAt := clock.now.Add(10 * time.Minute)
	l.remaining = 2 // at/below danger threshold
	l.resetAt = resetAt

	l.Throttle()

	if len(clock.sleeps) != 1 {
		t.Fatalf("expected 1 sleep, got %d", len(clock.sleeps))
	}
	if got, want := clock.sleeps[0], 10*time.Minute+resetBuffer; got != want {
		t.Errorf("expected wait of %v, got %v", want, got)
	}
	if l.remaining != DefaultCeiling {
		t.Errorf("expected budget reset to ceiling after wait, got %d", l.remaining)
	}
	if !l.resetAt.IsZero() {
		t.Error("expected resetAt cleared after waiting out the window")
	}
}

func TestThrottleWindowRolloverResetsBudget(t *testing.T) {
	l, clock := newTestLimiter()

	l.remaining = 1
	l.resetAt = clock.now.Add(-time.Second) // window already rolled over

	l.Throttle()

	if len(clock.sleeps) != 0 {
		t.Errorf("expected no sleep after rollover, got %v", clock.sleeps)
	}
	if l.remaining != DefaultCeiling {
		t.Errorf("expected budget back at ceiling, got %d", l.remaining)
	}
}

func TestRecordRequestDecrementsWithFloor(t *testing.T) {
	l, _ := newTestLimiter()

	l.remaining = 1
	l.RecordRequest()
	if l.remaining != 0 {
		t.Errorf("expected remaining 0, got %d", l.remaining)
	}
	l.RecordRequest()
	if l.remaining != 0 {
		t.Errorf("expected floor at 0, got %d", l.remaining)
	}
	if l.lastRequest.IsZero() {
		t.Error("expected lastRequest stamped")
	}
}

func TestRecordResponseAdoptsHeaders(t *testing.T) {
	l, _ := newTestLimiter()

	h := http.Header{}
	h.Set("x-rate-limit-remaining", "42")
	h.Set("x-rate-limit-reset", "1748781000")
	l.RecordResponse(h)

	if l.remaining != 42 {
		t.Errorf("expected remaining 42, got %d", l.remaining)
	}
	if got, want := l.resetAt, time.Unix(1748781000, 0); !got.Equal(want) {
		t.Errorf("expected resetAt %v, got %v", want, got)
	}
}

func TestRecordResponseIgnoresMissingAndMalformed(t *testing.T) {
	l, _ := newTestLimiter()
	l.remaining = 7

	l.RecordResponse(http.Header{})
	if l.remaining != 7 {
		t.Errorf("missing headers should not change estimate, got %d", l.remaining)
	}

	h := http.Header{}
	h.Set("x-rate-limit-remaining", "not-a-number")
	l.RecordResponse(h)
	if l.remaining != 7 {
		t.Errorf("malformed header should not change estimate, got %d", l.remaining)
	}
}

// Ten simulated calls against a ceiling of three must never exceed three
// dispatches inside a single window, and must wait across at least one
// window boundary.
func TestComplianceUnderTinyCeiling(t *testing.T) {
	l, clock := newTestLimiter()
	l.ceiling = 3
	l.remaining = 3
	l.warnAt = 1
	l.dangerAt = 0

	windowLen := Window
	windowStart := clock.now
	l.resetAt = windowStart.Add(windowLen)

	perWindow := map[time.Time]int{}
	crossedBoundary := false

	for i := 0; i < 10; i++ {
		before := len(clock.sleeps)
		l.Throttle()
		l.RecordRequest()

		// Re-anchor the window if the limiter waited past its end.
		for !clock.now.Before(windowStart.Add(windowLen)) {
			windowStart = windowStart.Add(windowLen)
			crossedBoundary = true
		}
		if len(clock.sleeps) > before {
			// A danger-zone wait resets the tracked window.
			l.resetAt = windowStart.Add(windowLen)
		}
		perWindow[windowStart]++
	}

	for start, n := range perWindow {
		if n > 3 {
			t.Errorf("window starting %v saw %d calls, want <= 3", start, n)
		}
	}
	if !crossedBoundary {
		t.Error("expected at least one wait spanning a window boundary")
	}
}
