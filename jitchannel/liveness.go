package jitchannel

import (
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"
)

// clientLiveness tracks when a client was last heard from and whether it
// has latched offline.
type clientLiveness struct {
	lastMessage     time.Time
	offlineDetected bool
}

// Liveness implements the offline-detection supplement to the trigger
// conditions of component H: a client observed offline for longer than
// JIT_OFFLINE_TIMEOUT_SEC is a candidate for a JIT fallback the same way a
// factory-EXPIRED client is. It is not itself a spec.md §4.H trigger
// condition by name, but a concrete input that feeds one.
type Liveness struct {
	mu      sync.Mutex
	clients map[uint64]*clientLiveness
	timeout time.Duration
	clock   clock.Clock
}

// NewLiveness builds a Liveness tracker with the given offline timeout.
func NewLiveness(timeout time.Duration, c clock.Clock) *Liveness {
	if c == nil {
		c = clock.NewDefaultClock()
	}
	return &Liveness{
		clients: make(map[uint64]*clientLiveness),
		timeout: timeout,
		clock:   c,
	}
}

// Touch records that a message was just received from clientIdx, resetting
// its offline latch.
func (l *Liveness) Touch(clientIdx uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[clientIdx]
	if !ok {
		c = &clientLiveness{}
		l.clients[clientIdx] = c
	}
	c.lastMessage = l.clock.Now()
	c.offlineDetected = false
}

// CheckOffline reports whether clientIdx has gone silent for longer than
// the configured timeout, latching offlineDetected true on the transition
// so repeated calls don't re-fire the trigger every tick.
func (l *Liveness) CheckOffline(clientIdx uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[clientIdx]
	if !ok {
		return false
	}
	if c.offlineDetected {
		return true
	}
	if l.clock.Now().Sub(c.lastMessage) >= l.timeout {
		c.offlineDetected = true
		return true
	}
	return false
}

// LastMessageTime returns the last time a message was recorded for
// clientIdx, and whether any message has ever been recorded.
func (l *Liveness) LastMessageTime(clientIdx uint64) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[clientIdx]
	if !ok {
		return time.Time{}, false
	}
	return c.lastMessage, true
}
