package emitter

import "sync/atomic"

// BuildLock provides non-blocking lock semantics using atomic operations.
// A second build of the same emitter fails fast instead of queueing.
type BuildLock struct {
	state atomic.Int32 // 0 = idle, 1 = building
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was successfully acquired, false otherwise.
func (l *BuildLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *BuildLock) Release() {
	l.state.Store(0)
}

// Building reports whether a build holds the lock
func (l *BuildLock) Building() bool {
	return l.state.Load() == 1
}
