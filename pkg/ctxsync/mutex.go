// Package ctxsync provides synchronization primitives whose blocking
// operations can be abandoned through a context.
package ctxsync

import (
	"context"
)

// NewMutex creates a new instance of Mutex.
func NewMutex() *Mutex {
	return &Mutex{slot: make(chan struct{}, 1)}
}

// A Mutex is a mutual exclusion lock. Holding the lock means occupying the
// single slot of the channel.
type Mutex struct {
	slot chan struct{}
}

// Lock locks the mutex, blocking until it is available.
func (m *Mutex) Lock() {
	m.slot <- struct{}{}
}

// LockWithContext locks the mutex, giving up when the context is cancelled
// first.
func (m *Mutex) LockWithContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case m.slot <- struct{}{}:
		return nil
	}
}

// TryLock tries to lock m and reports whether it succeeded.
func (m *Mutex) TryLock() bool {
	select {
	case m.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

// Unlock unlocks m. Unlocking an unlocked mutex is a fatal misuse.
func (m *Mutex) Unlock() {
	select {
	case <-m.slot:
	default:
		panic("ctxsync: unlock of unlocked mutex")
	}
}
