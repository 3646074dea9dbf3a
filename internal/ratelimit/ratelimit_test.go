package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)}
}

func TestAllowUpToBurst(t *testing.T) {
	clock := newClock()
	l := New(5, 5*time.Minute, WithClock(clock.Now))

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "attempt %d", i+1)
	}
	assert.False(t, l.Allow("10.0.0.1"))

	// Other keys are independent.
	assert.True(t, l.Allow("10.0.0.2"))
}

func TestAllowRefillsOverWindow(t *testing.T) {
	clock := newClock()
	l := New(5, 5*time.Minute, WithClock(clock.Now))

	for i := 0; i < 5; i++ {
		l.Allow("k")
	}
	assert.False(t, l.Allow("k"))

	clock.Advance(61 * time.Second)
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))

	clock.Advance(5 * time.Minute)
	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("k"), "attempt %d after full window", i+1)
	}
}

func TestReset(t *testing.T) {
	clock := newClock()
	l := New(2, time.Hour, WithClock(clock.Now))

	l.Allow("user")
	l.Allow("user")
	assert.False(t, l.Allow("user"))

	l.Reset("user")
	assert.True(t, l.Allow("user"))
}

func TestSweep(t *testing.T) {
	clock := newClock()
	l := New(100, time.Hour, WithClock(clock.Now))

	l.Allow("old")
	clock.Advance(30 * time.Minute)
	l.Allow("recent")
	assert.Equal(t, 2, l.Len())

	clock.Advance(30 * time.Minute)
	assert.Equal(t, 1, l.Sweep(clock.Now()))
	assert.Equal(t, 1, l.Len())
}

func TestDisabled(t *testing.T) {
	l := New(0, time.Hour)
	for i := 0; i < 1000; i++ {
		if !l.Allow("k") {
			t.Fatal("disabled limiter rejected a request")
		}
	}

	var nilLimiter *Limiter
	assert.True(t, nilLimiter.Allow("k"))
	nilLimiter.Reset("k")
	assert.Equal(t, 0, nilLimiter.Sweep(time.Now()))
}
