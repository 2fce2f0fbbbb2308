package handler

import (
	"sync"
	"time"
)

// pruneEvery is how many Touch calls pass between sweeps of expired IDs.
const pruneEvery = 64

// ActiveChats tracks conversation IDs seen within the last ttl.
type ActiveChats struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
	touches int
}

// NewActiveChats creates a tracker. now may be nil.
func NewActiveChats(ttl time.Duration, now func() time.Time) *ActiveChats {
	if now == nil {
		now = time.Now
	}
	return &ActiveChats{seen: make(map[string]time.Time), ttl: ttl, now: now}
}

// Touch marks id as active from now until now+ttl.
func (a *ActiveChats) Touch(id string) {
	if id == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seen[id] = a.now()
	a.touches++
	if a.touches >= pruneEvery {
		a.touches = 0
		a.pruneLocked()
	}
}

// Len returns the number of conversations still active, dropping the rest.
func (a *ActiveChats) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pruneLocked()
	return len(a.seen)
}

// size is the number of tracked IDs, expired or not.
func (a *ActiveChats) size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.seen)
}

func (a *ActiveChats) pruneLocked() {
	cutoff := a.now().Add(-a.ttl)
	for id, at := range a.seen {
		if !at.After(cutoff) {
			delete(a.seen, id)
		}
	}
}
