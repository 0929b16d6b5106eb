package simulator

// Scheduler selects which ready thread runs next under the configured
// policy. The quantum is measured in page accesses, not wall time: the
// orchestrator calls IncrementQuantum once per successful page access.
type Scheduler struct {
	policy  SchedulingPolicy
	quantum int

	readyQueue      []*Thread
	current         *Thread
	quantumUsed     int
	contextSwitches int
}

// NewScheduler creates a scheduler. quantum applies to Round-Robin only.
func NewScheduler(policy SchedulingPolicy, quantum int) *Scheduler {
	return &Scheduler{
		policy:     policy,
		quantum:    quantum,
		readyQueue: make([]*Thread, 0),
	}
}

// Policy returns the scheduling policy
func (s *Scheduler) Policy() SchedulingPolicy { return s.policy }

// Quantum returns the Round-Robin quantum in page accesses
func (s *Scheduler) Quantum() int { return s.quantum }

// Add enqueues a READY thread at the tail of the ready queue. Threads
// already queued, or not READY, are ignored.
func (s *Scheduler) Add(t *Thread) {
	if t.State() != ThreadReady || s.inQueue(t) {
		return
	}
	s.readyQueue = append(s.readyQueue, t)
}

// ScheduleNext returns the thread to run this tick, or nil when the ready
// queue is empty and no running thread can continue. A finished RUNNING
// thread is still returned so the orchestrator can run its completion path
// (release locks, remove it) exactly once.
func (s *Scheduler) ScheduleNext() *Thread {
	// Round-Robin preemption: quantum exhausted, thread not finished.
	if s.policy == SchedulingRoundRobin && s.current != nil {
		if s.quantumUsed >= s.quantum && !s.current.Finished() {
			if s.current.State() == ThreadRunning {
				s.current.state = ThreadReady
				s.readyQueue = append(s.readyQueue, s.current)
			}
			s.recordContextSwitch(s.current)
			s.current = nil
			s.quantumUsed = 0
		}
	}

	// A thread that is still RUNNING keeps the CPU. This includes a finished
	// thread: it gets scheduled one final time, and the orchestrator's
	// exhausted-page branch completes it.
	if s.current != nil && s.current.State() == ThreadRunning {
		return s.current
	}

	var next *Thread
	switch s.policy {
	case SchedulingPriority:
		next = s.takeHighestPriority()
	default: // FCFS and Round-Robin both take the queue head
		next = s.takeHead()
	}

	if next != nil {
		if s.current != nil && s.current != next {
			s.recordContextSwitch(s.current)
		}
		s.current = next
		s.current.state = ThreadRunning
		s.quantumUsed = 0
	}

	return s.current
}

func (s *Scheduler) inQueue(t *Thread) bool {
	for _, q := range s.readyQueue {
		if q == t {
			return true
		}
	}
	return false
}

// takeHead dequeues the head of the ready queue
func (s *Scheduler) takeHead() *Thread {
	if len(s.readyQueue) == 0 {
		return nil
	}
	t := s.readyQueue[0]
	s.readyQueue = s.readyQueue[1:]
	return t
}

// takeHighestPriority removes and returns the strictly-highest-priority
// thread. Ties go to the earliest-enqueued: the scan keeps the first
// maximizer because it compares with strict >.
func (s *Scheduler) takeHighestPriority() *Thread {
	if len(s.readyQueue) == 0 {
		return nil
	}
	best := 0
	for i, t := range s.readyQueue {
		if t.Priority() > s.readyQueue[best].Priority() {
			best = i
		}
	}
	t := s.readyQueue[best]
	s.readyQueue = append(s.readyQueue[:best], s.readyQueue[best+1:]...)
	return t
}

// IncrementQuantum records one page access against the running thread's
// quantum.
func (s *Scheduler) IncrementQuantum() { s.quantumUsed++ }

// QuantumUsed returns the current thread's consumed quantum
func (s *Scheduler) QuantumUsed() int { return s.quantumUsed }

// Remove clears a thread from the ready queue, and from the running slot if
// it is the current thread.
func (s *Scheduler) Remove(t *Thread) {
	for i, q := range s.readyQueue {
		if q == t {
			s.readyQueue = append(s.readyQueue[:i], s.readyQueue[i+1:]...)
			break
		}
	}
	if s.current == t {
		s.current = nil
		s.quantumUsed = 0
	}
}

// Current returns the currently running thread, or nil
func (s *Scheduler) Current() *Thread { return s.current }

// ContextSwitches returns the total context switch count
func (s *Scheduler) ContextSwitches() int { return s.contextSwitches }

// HasReadyThreads reports whether any thread is queued or can keep running
func (s *Scheduler) HasReadyThreads() bool {
	return len(s.readyQueue) > 0 || (s.current != nil && !s.current.Finished())
}

// ReadyThreads returns a copy of the ready queue in queue order
func (s *Scheduler) ReadyThreads() []*Thread {
	return append([]*Thread(nil), s.readyQueue...)
}

// Reset clears the queue, the running slot and the counters
func (s *Scheduler) Reset() {
	s.readyQueue = s.readyQueue[:0]
	s.current = nil
	s.quantumUsed = 0
	s.contextSwitches = 0
}

func (s *Scheduler) recordContextSwitch(t *Thread) {
	s.contextSwitches++
	if t != nil {
		t.recordContextSwitch()
	}
}
