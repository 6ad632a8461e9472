// Package sync provides synchronization primitives that work before the Go
// scheduler is available.
package sync

import "sync/atomic"

// Spinlock implements a lock that never blocks: callers claim it with
// TryToAcquire and decide themselves what to do when it is taken. Boot code
// uses it to guard state that must only be initialized once, even if a
// secondary core reaches the same code path.
type Spinlock struct {
	state uint32
}

// TryToAcquire attempts to acquire the lock and returns true if the lock could
// be acquired or false otherwise.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.SwapUint32(&l.state, 1) == 0
}

// Release relinquishes a held lock allowing other tasks to acquire it. Calling
// Release while the lock is free has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}
