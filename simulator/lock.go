package simulator

import "fmt"

// Lock is a counting semaphore resource. With maxPermits == 1 it behaves as
// a mutex and tracks an exclusive holder. Waiters queue FIFO.
//
// Contract: TryAcquire, Release and ForceRelease are each one indivisible
// transaction. The engine is single-threaded so no internal locking is
// needed; a host that drives steps concurrently must serialize them.
type Lock struct {
	name         string
	maxPermits   int
	available    int
	holder       *Thread // mutex case only
	waitQueue    []*Thread
	acquisitions int
}

// NewLock creates a lock resource. maxPermits of 1 is a mutex, N is a
// semaphore with N permits.
func NewLock(name string, maxPermits int) *Lock {
	return &Lock{
		name:       name,
		maxPermits: maxPermits,
		available:  maxPermits,
		waitQueue:  make([]*Thread, 0),
	}
}

// Name returns the lock's unique name
func (l *Lock) Name() string { return l.name }

// MaxPermits returns the configured permit count
func (l *Lock) MaxPermits() int { return l.maxPermits }

// Available returns the currently available permits
func (l *Lock) Available() int { return l.available }

// IsMutex reports whether this lock is a mutex (single permit)
func (l *Lock) IsMutex() bool { return l.maxPermits == 1 }

// Holder returns the exclusive holder, or nil. Meaningful only for a mutex.
func (l *Lock) Holder() *Thread { return l.holder }

// Acquisitions returns the cumulative grant count
func (l *Lock) Acquisitions() int { return l.acquisitions }

// WaitingCount returns the number of queued threads
func (l *Lock) WaitingCount() int { return len(l.waitQueue) }

// WaitingThreads returns a copy of the wait queue in FIFO order
func (l *Lock) WaitingThreads() []*Thread {
	return append([]*Thread(nil), l.waitQueue...)
}

// TryAcquire grants a permit to the thread if one is available and returns
// true. Otherwise the thread is enqueued (idempotently), marked BLOCKED with
// this lock as its awaited lock, and false is returned.
func (l *Lock) TryAcquire(t *Thread) bool {
	if l.available > 0 {
		l.available--
		if l.IsMutex() {
			l.holder = t
		}
		t.acquireLock(l.name)
		l.acquisitions++
		return true
	}
	if !l.queued(t) {
		l.waitQueue = append(l.waitQueue, t)
		t.awaiting = l.name
		t.state = ThreadBlocked
	}
	return false
}

// Release returns the thread's permit and, if the wait queue is non-empty,
// hands the freed permit to the head waiter in the same call: the waiter is
// granted the lock, transitioned to READY, and returned so the caller can
// requeue it with the scheduler. A thread that completed while queued is
// skipped, not woken. Returns nil when no waiter was woken.
func (l *Lock) Release(t *Thread) *Thread {
	if l.IsMutex() && l.holder == t {
		l.holder = nil
	}
	l.available++
	t.releaseLock(l.name)

	for len(l.waitQueue) > 0 {
		next := l.waitQueue[0]
		l.waitQueue = l.waitQueue[1:]
		if next.Completed() {
			continue
		}
		l.available--
		if l.IsMutex() {
			l.holder = next
		}
		next.acquireLock(l.name)
		next.state = ThreadReady
		return next
	}
	return nil
}

// ForceRelease resets the lock to full availability and wakes every queued
// thread to READY without granting permits. Deadlock-resolution tooling
// only; not part of the normal step path. Returns the woken threads so the
// caller can requeue them.
func (l *Lock) ForceRelease() []*Thread {
	l.available = l.maxPermits
	l.holder = nil

	woken := make([]*Thread, 0, len(l.waitQueue))
	for _, t := range l.waitQueue {
		t.awaiting = ""
		t.state = ThreadReady
		woken = append(woken, t)
	}
	l.waitQueue = l.waitQueue[:0]
	return woken
}

func (l *Lock) queued(t *Thread) bool {
	for _, q := range l.waitQueue {
		if q == t {
			return true
		}
	}
	return false
}

func (l *Lock) String() string {
	kind := "Semaphore"
	if l.IsMutex() {
		kind = "Mutex"
	}
	return fmt.Sprintf("%s (%s) available %d/%d", l.name, kind, l.available, l.maxPermits)
}
