package simulator

import (
	"fmt"
	"math/rand"
)

// StepResult is the outcome of one ExecuteStep call
type StepResult int

const (
	StepContinue   StepResult = iota // Run continues; call ExecuteStep again
	StepCompleted                    // Every thread's reference string is exhausted (terminal)
	StepDeadlocked                   // Circular wait detected; run frozen (terminal)
	StepPaused                       // Paused or not initialized; no work was done
)

// String returns the string representation of StepResult
func (sr StepResult) String() string {
	switch sr {
	case StepContinue:
		return "continue"
	case StepCompleted:
		return "completed"
	case StepDeadlocked:
		return "deadlocked"
	case StepPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Simulator is a PURE deterministic simulation engine with NO concurrency
// primitives. All state is advanced single-threaded via ExecuteStep(); the
// caller (cmd/server, cmd/sim_runner, tests) owns pacing, pause/resume and
// threading. One ExecuteStep call is one atomic transition of the whole
// simulated system.
type Simulator struct {
	config    SimConfig
	threads   []*Thread
	scheduler *Scheduler
	locks     []*Lock
	frames    *FramePool
	timeline  []TimelineEvent

	running     bool
	paused      bool
	completed   bool
	currentStep int
	totalSteps  int

	deadlockDetected  bool
	deadlockedThreads []*Thread

	nextThreadID int
	rng          *rand.Rand

	// Event logging callback (optional, for UI/debugging)
	LogEvent func(msg string)
}

// NewSimulator creates a new simulator. It starts dormant: call Reset() to
// initialize the run.
func NewSimulator(config SimConfig) (*Simulator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	sim := &Simulator{
		config:       config,
		nextThreadID: 1,
	}
	sim.buildThreads()
	// Observables (State, Frames, Metrics) must be safe before the first
	// Reset, so the collaborators exist from construction. Reset rebuilds
	// them for each run.
	sim.scheduler = NewScheduler(config.SchedulingPolicy, config.TimeQuantum)
	sim.frames = NewFramePool(config.FrameCount, config.ReplacementPolicy)
	return sim, nil
}

// buildThreads creates thread entities for a brand-new scenario. IDs come
// from the simulator-scoped counter, restarted per scenario so runs are
// independently reproducible.
func (s *Simulator) buildThreads() {
	s.nextThreadID = 1
	s.threads = make([]*Thread, 0, len(s.config.Threads))
	for _, tc := range s.config.Threads {
		s.threads = append(s.threads, newThread(s.nextThreadID, tc.ReferenceString, tc.Priority))
		s.nextThreadID++
	}
}

// Reset initializes the run: resets every thread (identity preserved),
// rebuilds the scheduler and lock resources, clears frames and timeline,
// recomputes the step budget, and marks the run RUNNING. This is the only
// reset boundary; no state persists across it.
func (s *Simulator) Reset() {
	s.scheduler = NewScheduler(s.config.SchedulingPolicy, s.config.TimeQuantum)
	s.totalSteps = 0
	for _, t := range s.threads {
		t.Reset()
		s.scheduler.Add(t)
		s.totalSteps += len(t.ReferenceString())
	}

	s.locks = s.locks[:0]
	switch s.config.SyncMode {
	case SyncMutex:
		s.locks = append(s.locks, NewLock("Mutex-A", 1), NewLock("Mutex-B", 1))
	case SyncSemaphore:
		s.locks = append(s.locks, NewLock("Semaphore-1", s.config.SemaphorePermits))
	}

	s.frames = NewFramePool(s.config.FrameCount, s.config.ReplacementPolicy)
	s.timeline = s.timeline[:0]
	s.currentStep = 0
	s.running = true
	s.paused = false
	s.completed = false
	s.deadlockDetected = false
	s.deadlockedThreads = nil

	if s.config.RandomSeed == 0 {
		s.rng = rand.New(rand.NewSource(rand.Int63()))
	} else {
		s.rng = rand.New(rand.NewSource(s.config.RandomSeed))
	}
}

// UpdateConfig replaces the configuration and starts a fresh scenario
func (s *Simulator) UpdateConfig(newConfig SimConfig) error {
	if err := newConfig.Validate(); err != nil {
		return err
	}
	s.config = newConfig
	s.buildThreads()
	s.Reset()
	return nil
}

// ExecuteStep advances the simulation by one tick. The per-tick pipeline:
// deadlock check, scheduling, lock acquisition, page access, cursor advance,
// probabilistic lock release, timeline recording. No step of the pipeline
// returns an error: blocked threads, faults and deadlock are expected
// outcomes represented as data.
func (s *Simulator) ExecuteStep() StepResult {
	if !s.running || s.paused {
		switch {
		case s.deadlockDetected:
			return StepDeadlocked
		case s.completed:
			return StepCompleted
		default:
			return StepPaused
		}
	}

	// Waiting-time accounting: one tick charged to every blocked thread.
	for _, t := range s.threads {
		if t.State() == ThreadBlocked {
			t.waitingSteps++
		}
	}

	// Deadlock is checked before scheduling, independent of the pipeline.
	// A detected cycle is terminal for the run.
	if s.syncEnabled() {
		if cycle := DetectDeadlock(s.threads, s.locks); len(cycle) > 0 {
			s.deadlockDetected = true
			s.deadlockedThreads = cycle
			s.running = false
			names := make([]string, len(cycle))
			for i, t := range cycle {
				names[i] = t.Name()
			}
			s.logEvent("DEADLOCK at step %d: %v", s.currentStep, names)
			return StepDeadlocked
		}
	}

	thread := s.scheduler.ScheduleNext()
	if thread == nil {
		// No thread is schedulable. All completed means the run is done;
		// otherwise threads are blocked and the detector decides on a
		// later call whether the run is stuck for good.
		for _, t := range s.threads {
			if !t.Completed() {
				return StepContinue
			}
		}
		s.running = false
		s.completed = true
		return StepCompleted
	}

	// Lock acquisition: attempt the first configured lock the thread does
	// not yet hold. On failure the thread is blocked and loses the tick; a
	// thread needing several locks acquires them one per successful step.
	if s.syncEnabled() && len(s.locks) > 0 {
		for _, lock := range s.locks {
			if thread.HoldsLock(lock.Name()) {
				continue
			}
			if lock.TryAcquire(thread) {
				s.addEvent(thread, EventLockAcquire, "Acquired "+lock.Name())
			} else {
				s.addEvent(thread, EventBlocked, "Waiting for "+lock.Name())
				return StepContinue
			}
			break
		}
	}

	page, ok := thread.NextPage()
	if !ok {
		// Reference string exhausted: the single completion point.
		thread.state = ThreadCompleted
		for _, name := range thread.HeldLocks() {
			s.releaseLock(thread, name)
		}
		s.scheduler.Remove(thread)
		return StepContinue
	}

	result := s.frames.Access(thread, page)
	if result.Hit {
		s.addEvent(thread, EventPageHit, fmt.Sprintf("Page %d found in memory", page))
	} else {
		s.addEvent(thread, EventPageFault, fmt.Sprintf("Page %d not in memory", page))
		if result.Evicted != nil {
			s.addEvent(thread, EventPageEvict,
				fmt.Sprintf("Evicted page %d from %s", result.Evicted.Page, result.Evicted.Owner.Name()))
		}
	}

	thread.Advance()
	s.scheduler.IncrementQuantum()
	s.currentStep++

	// A thread does not hold its locks across the whole critical section:
	// with the configured probability it releases one held lock (oldest
	// acquisition first) after the access.
	if s.syncEnabled() && len(s.locks) > 0 && s.rng.Float64() < s.config.LockReleaseProbability {
		if held := thread.HeldLocks(); len(held) > 0 {
			s.releaseLock(thread, held[0])
		}
	}

	return StepContinue
}

// releaseLock releases one named lock, logs it, and requeues a waiter woken
// by the handoff.
func (s *Simulator) releaseLock(t *Thread, name string) {
	lock := s.lockByName(name)
	if lock == nil {
		panic(fmt.Sprintf("thread %s holds unknown lock %q", t.Name(), name))
	}
	woken := lock.Release(t)
	s.addEvent(t, EventLockRelease, "Released "+name)
	if woken != nil {
		s.scheduler.Add(woken)
	}
}

// BreakDeadlock force-releases every lock, wakes and requeues all waiting
// threads, clears per-thread lock bookkeeping, and resumes the run.
// Deadlock-resolution tooling for drivers; no-op unless deadlocked.
func (s *Simulator) BreakDeadlock() {
	if !s.deadlockDetected {
		return
	}
	for _, lock := range s.locks {
		for _, woken := range lock.ForceRelease() {
			s.scheduler.Add(woken)
		}
	}
	for _, t := range s.threads {
		t.heldLocks = t.heldLocks[:0]
		t.awaiting = ""
	}
	s.deadlockDetected = false
	s.deadlockedThreads = nil
	s.running = true
	s.logEvent("deadlock broken at step %d: all locks force-released", s.currentStep)
}

// SetPaused pauses or resumes stepping. Pausing is an external flag checked
// at ExecuteStep entry; it does not alter simulation state.
func (s *Simulator) SetPaused(paused bool) { s.paused = paused }

// IsRunning reports whether the run has been initialized and is not terminal
func (s *Simulator) IsRunning() bool { return s.running }

// IsPaused reports whether stepping is paused
func (s *Simulator) IsPaused() bool { return s.paused }

// CurrentStep returns the number of page accesses performed so far
func (s *Simulator) CurrentStep() int { return s.currentStep }

// TotalSteps returns the run's step budget (sum of reference string lengths)
func (s *Simulator) TotalSteps() int { return s.totalSteps }

// DeadlockDetected reports whether the run is frozen on a deadlock
func (s *Simulator) DeadlockDetected() bool { return s.deadlockDetected }

// DeadlockedThreads returns the threads implicated in the detected cycle
func (s *Simulator) DeadlockedThreads() []*Thread {
	return append([]*Thread(nil), s.deadlockedThreads...)
}

// Threads returns the simulation's threads
func (s *Simulator) Threads() []*Thread {
	return append([]*Thread(nil), s.threads...)
}

// Locks returns the configured lock resources
func (s *Simulator) Locks() []*Lock {
	return append([]*Lock(nil), s.locks...)
}

// Frames returns the frame pool contents in policy order
func (s *Simulator) Frames() []*FrameEntry { return s.frames.Entries() }

// Timeline returns a copy of the append-only audit log
func (s *Simulator) Timeline() []TimelineEvent {
	return append([]TimelineEvent(nil), s.timeline...)
}

// Scheduler returns the scheduler instance
func (s *Simulator) Scheduler() *Scheduler { return s.scheduler }

// Config returns a copy of the current configuration
func (s *Simulator) Config() SimConfig { return s.config }

// State returns the complete observable state as a generic map, shaped for
// JSON transport to a UI.
func (s *Simulator) State() map[string]interface{} {
	frames := make([]map[string]interface{}, 0, s.frames.Len())
	for _, f := range s.frames.Entries() {
		frames = append(frames, map[string]interface{}{
			"page":  f.Page,
			"owner": f.Owner.Name(),
		})
	}

	// Timeline tail only; the full log can grow large and the UI shows the
	// most recent events.
	const timelineTail = 50
	tail := s.timeline
	if len(tail) > timelineTail {
		tail = tail[len(tail)-timelineTail:]
	}

	waitGraph := ""
	if s.syncEnabled() {
		waitGraph = VisualizeWaitGraph(s.threads, s.locks)
	}

	return map[string]interface{}{
		"currentStep":      s.currentStep,
		"totalSteps":       s.totalSteps,
		"running":          s.running,
		"paused":           s.paused,
		"deadlockDetected": s.deadlockDetected,
		"frames":           frames,
		"frameCapacity":    s.frames.Capacity(),
		"timeline":         append([]TimelineEvent(nil), tail...),
		"waitGraph":        waitGraph,
	}
}

func (s *Simulator) syncEnabled() bool { return s.config.SyncMode != SyncNone }

func (s *Simulator) lockByName(name string) *Lock {
	for _, l := range s.locks {
		if l.Name() == name {
			return l
		}
	}
	return nil
}

// addEvent appends one timeline event at the current step
func (s *Simulator) addEvent(t *Thread, kind EventKind, details string) {
	s.timeline = append(s.timeline, TimelineEvent{
		Step:    s.currentStep,
		Thread:  t.Name(),
		Kind:    kind,
		Details: details,
	})
}

// logEvent sends a formatted message to the LogEvent callback, if set
func (s *Simulator) logEvent(format string, args ...interface{}) {
	if s.LogEvent != nil {
		s.LogEvent(fmt.Sprintf(format, args...))
	}
}
