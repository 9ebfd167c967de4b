package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"click-merchant-api/internal/metrics"
)

// ReplayTracker remembers signed callbacks already seen. Click re-delivers
// callbacks on timeouts; a repeat is legal and still processed, the tracker
// only makes it visible in logs and metrics.
type ReplayTracker struct {
	seen            map[string]time.Time
	mutex           sync.Mutex
	cleanupInterval time.Duration
	ttl             time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// NewReplayTracker creates a tracker keeping entries for ttl and starts its
// cleanup goroutine. Call Stop when done.
func NewReplayTracker(ttl time.Duration) *ReplayTracker {
	rt := &ReplayTracker{
		seen:            make(map[string]time.Time),
		cleanupInterval: time.Hour,
		ttl:             ttl,
		stopCleanup:     make(chan struct{}),
	}

	go rt.startCleanupRoutine()

	return rt
}

// Seen records the callback and reports whether it was delivered before
func (rt *ReplayTracker) Seen(action string, clickTransID int64, signString string) bool {
	id := callbackID(action, clickTransID, signString)

	rt.mutex.Lock()
	defer rt.mutex.Unlock()

	if _, ok := rt.seen[id]; ok {
		metrics.CallbackReplays.WithLabelValues(action).Inc()
		return true
	}
	rt.seen[id] = time.Now()
	return false
}

func callbackID(action string, clickTransID int64, signString string) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%s", action, clickTransID, signString)))
	return hex.EncodeToString(hash[:])
}

func (rt *ReplayTracker) startCleanupRoutine() {
	ticker := time.NewTicker(rt.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rt.cleanup(time.Now())
		case <-rt.stopCleanup:
			return
		}
	}
}

// cleanup drops entries older than the ttl
func (rt *ReplayTracker) cleanup(now time.Time) int {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()

	removed := 0
	for id, at := range rt.seen {
		if now.Sub(at) > rt.ttl {
			delete(rt.seen, id)
			removed++
		}
	}
	return removed
}

// Len is the number of remembered callbacks
func (rt *ReplayTracker) Len() int {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()
	return len(rt.seen)
}

// Stop stops the cleanup goroutine
func (rt *ReplayTracker) Stop() {
	rt.stopOnce.Do(func() { close(rt.stopCleanup) })
}
