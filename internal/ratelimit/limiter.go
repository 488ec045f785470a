// Package ratelimit gates outbound calls to the X API. The bookmarks
// endpoint enforces a per-window request quota; the limiter tracks a local
// estimate of the remaining budget, adopts the authoritative values from
// response headers, and sleeps instead of letting a call go out when the
// budget is nearly exhausted.
package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultCeiling is the per-window request quota for the bookmarks
	// endpoint (180 requests per 15-minute window).
	DefaultCeiling = 180
	// Window is the quota window length.
	Window = 15 * time.Minute

	// minInterval is a fixed spacing floor between consecutive requests,
	// independent of the remaining quota.
	minInterval = 1 * time.Second

	// dangerThreshold pauses until the window resets; warnThreshold only
	// logs and proceeds.
	dangerThreshold = 3
	warnThreshold   = 10

	// resetBuffer pads the reset time to absorb clock skew between us and
	// the API.
	resetBuffer = 5 * time.Second
)

// Limiter tracks the request budget for one API credential. It is owned by
// the source client and never shared across runs. It never returns errors;
// it only delays.
type Limiter struct {
	log logrus.FieldLogger

	ceiling     int
	warnAt      int
	dangerAt    int
	remaining   int
	resetAt     time.Time
	lastRequest time.Time

	// injectable for tests
	now   func() time.Time
	sleep func(time.Duration)
}

func New(log logrus.FieldLogger) *Limiter {
	return NewWithClock(log, time.Now, time.Sleep)
}

// NewWithClock builds a limiter with an injected clock, for callers that
// simulate time.
func NewWithClock(log logrus.FieldLogger, now func() time.Time, sleep func(time.Duration)) *Limiter {
	return &Limiter{
		log:       log,
		ceiling:   DefaultCeiling,
		warnAt:    warnThreshold,
		dangerAt:  dangerThreshold,
		remaining: DefaultCeiling,
		now:       now,
		sleep:     sleep,
	}
}

// Throttle blocks until it is safe to issue the next request. Called before
// every outbound call.
func (l *Limiter) Throttle() {
	now := l.now()

	// Fixed spacing between consecutive requests.
	if !l.lastRequest.IsZero() {
		if elapsed := now.Sub(l.lastRequest); elapsed < minInterval {
			l.sleep(minInterval - elapsed)
			now = l.now()
		}
	}

	// Window rolled over with no response observed since; assume a fresh
	// budget until headers say otherwise.
	if !l.resetAt.IsZero() && now.After(l.resetAt) {
		l.remaining = l.ceiling
		l.resetAt = time.Time{}
		return
	}

	switch {
	case l.remaining <= l.dangerAt:
		wait := resetBuffer
		if !l.resetAt.IsZero() {
			wait = l.resetAt.Sub(now) + resetBuffer
		}
		if wait < 0 {
			wait = resetBuffer
		}
		l.log.WithFields(logrus.Fields{
			"remaining": l.remaining,
			"wait":      wait.String(),
		}).Warn("rate limit nearly exhausted, waiting for window reset")
		l.sleep(wait)
		l.remaining = l.ceiling
		l.resetAt = time.Time{}
	case l.remaining <= l.warnAt:
		l.log.WithField("remaining", l.remaining).Warn("rate limit running low")
	}
}

// RecordRequest decrements the local budget estimate and stamps the request
// time. Called right after dispatch regardless of outcome.
func (l *Limiter) RecordRequest() {
	if l.remaining > 0 {
		l.remaining--
	}
	l.lastRequest = l.now()
}

// RecordResponse adopts the authoritative budget from rate-limit response
// headers when present. Missing or malformed headers leave the local
// estimates untouched.
func (l *Limiter) RecordResponse(h http.Header) {
	if v := h.Get("x-rate-limit-remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			l.remaining = n
		}
	}
	if v := h.Get("x-rate-limit-reset"); v != "" {
		if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
			l.resetAt = time.Unix(sec, 0)
		}
	}
}

// Remaining reports the current budget estimate.
func (l *Limiter) Remaining() int {
	return l.remaining
}

// ResetAt reports when the current window rolls over, zero if unknown.
func (l *Limiter) ResetAt() time.Time {
	return l.resetAt
}
