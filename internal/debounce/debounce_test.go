// ABOUTME: Tests for the debouncer
// ABOUTME: Validates coalescing, cancellation and pending state

package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrigger_RunsLastOnly(t *testing.T) {
	d := New(30 * time.Millisecond)

	var mu sync.Mutex
	var calls []string
	record := func(s string) func() {
		return func() {
			mu.Lock()
			calls = append(calls, s)
			mu.Unlock()
		}
	}

	d.Trigger(record("al"))
	d.Trigger(record("ali"))
	d.Trigger(record("alice"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"alice"}, calls)
	assert.False(t, d.Pending())
}

func TestTrigger_WaitsForDelay(t *testing.T) {
	d := New(50 * time.Millisecond)
	var fired atomic.Bool

	d.Trigger(func() { fired.Store(true) })
	assert.True(t, d.Pending())
	time.Sleep(10 * time.Millisecond)
	assert.False(t, fired.Load(), "must not fire before the delay")

	require.Eventually(t, fired.Load, time.Second, 5*time.Millisecond)
}

func TestCancel(t *testing.T) {
	d := New(20 * time.Millisecond)
	var fired atomic.Bool

	d.Trigger(func() { fired.Store(true) })
	d.Cancel()

	assert.False(t, d.Pending())
	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestCancel_Idle(t *testing.T) {
	d := New(time.Millisecond)
	d.Cancel()
	assert.False(t, d.Pending())
}

func TestNew_NegativeDelay(t *testing.T) {
	d := New(-time.Second)
	assert.Equal(t, time.Duration(0), d.delay)

	done := make(chan struct{})
	d.Trigger(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("zero-delay trigger never fired")
	}
}
