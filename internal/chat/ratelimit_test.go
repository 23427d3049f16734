package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterPerKeyBurst(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)
	defer rl.Close()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("192.0.2.1"), "request %d", i)
	}
	assert.False(t, rl.Allow("192.0.2.1"))
	assert.True(t, rl.Allow("198.51.100.7"), "other clients have their own bucket")
}

func TestRateLimiterCloseIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	assert.True(t, rl.Allow("192.0.2.1"))
	rl.Close()
	rl.Close()
}

func TestSessionLocksSerialiseSameSession(t *testing.T) {
	var locks sessionLocks
	unlock := locks.Lock("chat_a")

	acquired := make(chan struct{})
	go func() {
		u := locks.Lock("chat_a")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first was held")
	case <-time.After(50 * time.Millisecond):
	}
	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired")
	}
}
