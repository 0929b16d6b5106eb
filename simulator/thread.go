package simulator

import (
	"encoding/json"
	"fmt"
)

// ThreadState represents a simulated thread's lifecycle state
type ThreadState int

const (
	ThreadReady     ThreadState = iota // In the scheduler's ready queue
	ThreadRunning                      // Selected by the scheduler
	ThreadWaiting                      // Reserved (not driven by the lock path)
	ThreadBlocked                      // Enqueued on a lock's wait queue
	ThreadCompleted                    // Reference string exhausted
)

// String returns the string representation of ThreadState
func (ts ThreadState) String() string {
	switch ts {
	case ThreadReady:
		return "ready"
	case ThreadRunning:
		return "running"
	case ThreadWaiting:
		return "waiting"
	case ThreadBlocked:
		return "blocked"
	case ThreadCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for ThreadState
func (ts ThreadState) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

// Thread is one simulated execution thread: an immutable page reference
// string, a cursor into it, and the scheduling/lock bookkeeping around it.
// Threads are created once per scenario and reset between runs, so identity
// (id, name) is stable across resets.
type Thread struct {
	id       int
	name     string
	refs     []int
	priority int
	cursor   int
	state    ThreadState

	pageFaults      int
	pageHits        int
	contextSwitches int
	waitingSteps    int

	// Lock names, not lock pointers: threads and locks reference each other
	// by key only. heldLocks keeps acquisition order so "release one lock"
	// is deterministic.
	heldLocks []string
	awaiting  string
}

// newThread creates a thread. IDs are allocated by the simulator from a
// per-simulation counter, never from a package global.
func newThread(id int, refs []int, priority int) *Thread {
	return &Thread{
		id:        id,
		name:      fmt.Sprintf("T%d", id),
		refs:      append([]int(nil), refs...),
		priority:  priority,
		state:     ThreadReady,
		heldLocks: make([]string, 0),
	}
}

// ID returns the stable thread id
func (t *Thread) ID() int { return t.id }

// Name returns the stable display name ("T1", "T2", ...)
func (t *Thread) Name() string { return t.name }

// Priority returns the scheduling priority (higher = served first)
func (t *Thread) Priority() int { return t.priority }

// SetPriority overrides the scheduling priority; survives Reset
func (t *Thread) SetPriority(priority int) { t.priority = priority }

// ReferenceString returns the thread's page reference sequence
func (t *Thread) ReferenceString() []int { return t.refs }

// Cursor returns the index of the next page reference
func (t *Thread) Cursor() int { return t.cursor }

// State returns the current lifecycle state
func (t *Thread) State() ThreadState { return t.state }

// NextPage returns the page at the cursor. ok is false when the reference
// string is exhausted; that is the completion signal, not an error.
func (t *Thread) NextPage() (page int, ok bool) {
	if t.cursor < len(t.refs) {
		return t.refs[t.cursor], true
	}
	return 0, false
}

// Advance moves the cursor past the page just accessed. It does not change
// state: the orchestrator transitions the thread to COMPLETED when NextPage
// reports exhaustion, so lock release and scheduler removal happen there.
func (t *Thread) Advance() { t.cursor++ }

// Finished reports whether the reference string is exhausted
func (t *Thread) Finished() bool { return t.cursor >= len(t.refs) }

// Completed reports whether the thread has been transitioned to COMPLETED
func (t *Thread) Completed() bool { return t.state == ThreadCompleted }

func (t *Thread) recordPageFault()     { t.pageFaults++ }
func (t *Thread) recordPageHit()       { t.pageHits++ }
func (t *Thread) recordContextSwitch() { t.contextSwitches++ }

// PageFaults returns the fault count
func (t *Thread) PageFaults() int { return t.pageFaults }

// PageHits returns the hit count
func (t *Thread) PageHits() int { return t.pageHits }

// ContextSwitches returns how often this thread was switched out
func (t *Thread) ContextSwitches() int { return t.contextSwitches }

// WaitingSteps returns how many engine ticks this thread spent blocked
func (t *Thread) WaitingSteps() int { return t.waitingSteps }

// HoldsLock reports whether the thread holds the named lock
func (t *Thread) HoldsLock(name string) bool {
	for _, held := range t.heldLocks {
		if held == name {
			return true
		}
	}
	return false
}

// HeldLocks returns the held lock names in acquisition order
func (t *Thread) HeldLocks() []string {
	return append([]string(nil), t.heldLocks...)
}

// AwaitedLock returns the name of the lock the thread is blocked on,
// or "" if none
func (t *Thread) AwaitedLock() string { return t.awaiting }

// acquireLock records a granted lock and clears the awaited lock
func (t *Thread) acquireLock(name string) {
	if !t.HoldsLock(name) {
		t.heldLocks = append(t.heldLocks, name)
	}
	t.awaiting = ""
}

// releaseLock removes a lock name from the held set
func (t *Thread) releaseLock(name string) {
	for i, held := range t.heldLocks {
		if held == name {
			t.heldLocks = append(t.heldLocks[:i], t.heldLocks[i+1:]...)
			return
		}
	}
}

// Reset restores cursor, counters, state and lock bookkeeping to initial
// values. Identity and priority are preserved.
func (t *Thread) Reset() {
	t.cursor = 0
	t.state = ThreadReady
	t.pageFaults = 0
	t.pageHits = 0
	t.contextSwitches = 0
	t.waitingSteps = 0
	t.heldLocks = t.heldLocks[:0]
	t.awaiting = ""
}

func (t *Thread) String() string {
	return fmt.Sprintf("%s [priority=%d state=%s]", t.name, t.priority, t.state)
}
