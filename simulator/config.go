package simulator

import (
	"encoding/json"
	"fmt"
)

// SchedulingPolicy selects how the scheduler picks the next ready thread.
type SchedulingPolicy int

const (
	SchedulingFCFS       SchedulingPolicy = iota // First-come-first-served, no preemption
	SchedulingRoundRobin                         // Fixed quantum measured in page accesses
	SchedulingPriority                           // Strict maximum priority, FIFO tie-break
)

// String returns the string representation of SchedulingPolicy
func (sp SchedulingPolicy) String() string {
	switch sp {
	case SchedulingFCFS:
		return "fcfs"
	case SchedulingRoundRobin:
		return "round-robin"
	case SchedulingPriority:
		return "priority"
	default:
		return "unknown"
	}
}

// ParseSchedulingPolicy parses a string into SchedulingPolicy
func ParseSchedulingPolicy(s string) (SchedulingPolicy, error) {
	switch s {
	case "fcfs":
		return SchedulingFCFS, nil
	case "round-robin":
		return SchedulingRoundRobin, nil
	case "priority":
		return SchedulingPriority, nil
	default:
		return SchedulingFCFS, fmt.Errorf("invalid scheduling policy: %s (must be 'fcfs', 'round-robin' or 'priority')", s)
	}
}

// MarshalJSON implements json.Marshaler for SchedulingPolicy
func (sp SchedulingPolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(sp.String())
}

// UnmarshalJSON implements json.Unmarshaler for SchedulingPolicy
func (sp *SchedulingPolicy) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSchedulingPolicy(s)
	if err != nil {
		return err
	}
	*sp = parsed
	return nil
}

// ReplacementPolicy selects the page replacement victim strategy.
type ReplacementPolicy int

const (
	ReplacementFIFO ReplacementPolicy = iota // Oldest-inserted entry, tracked by arrival queue
	ReplacementLRU                           // Front of the frame list (least recently touched)
	ReplacementMRU                           // Back of the frame list (most recently touched)
	ReplacementOPT                           // Farthest next use in the owning thread's future
)

// String returns the string representation of ReplacementPolicy
func (rp ReplacementPolicy) String() string {
	switch rp {
	case ReplacementFIFO:
		return "fifo"
	case ReplacementLRU:
		return "lru"
	case ReplacementMRU:
		return "mru"
	case ReplacementOPT:
		return "opt"
	default:
		return "unknown"
	}
}

// ParseReplacementPolicy parses a string into ReplacementPolicy
func ParseReplacementPolicy(s string) (ReplacementPolicy, error) {
	switch s {
	case "fifo":
		return ReplacementFIFO, nil
	case "lru":
		return ReplacementLRU, nil
	case "mru":
		return ReplacementMRU, nil
	case "opt":
		return ReplacementOPT, nil
	default:
		return ReplacementFIFO, fmt.Errorf("invalid replacement policy: %s (must be 'fifo', 'lru', 'mru' or 'opt')", s)
	}
}

// MarshalJSON implements json.Marshaler for ReplacementPolicy
func (rp ReplacementPolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(rp.String())
}

// UnmarshalJSON implements json.Unmarshaler for ReplacementPolicy
func (rp *ReplacementPolicy) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseReplacementPolicy(s)
	if err != nil {
		return err
	}
	*rp = parsed
	return nil
}

// SyncMode selects which lock resources the simulation constructs.
type SyncMode int

const (
	SyncNone      SyncMode = iota // No lock resources
	SyncMutex                     // Two named mutexes (Mutex-A, Mutex-B)
	SyncSemaphore                 // One named semaphore with N permits
)

// String returns the string representation of SyncMode
func (sm SyncMode) String() string {
	switch sm {
	case SyncNone:
		return "none"
	case SyncMutex:
		return "mutex"
	case SyncSemaphore:
		return "semaphore"
	default:
		return "none"
	}
}

// ParseSyncMode parses a string into SyncMode
func ParseSyncMode(s string) (SyncMode, error) {
	switch s {
	case "none":
		return SyncNone, nil
	case "mutex":
		return SyncMutex, nil
	case "semaphore":
		return SyncSemaphore, nil
	default:
		return SyncNone, fmt.Errorf("invalid sync mode: %s (must be 'none', 'mutex' or 'semaphore')", s)
	}
}

// MarshalJSON implements json.Marshaler for SyncMode
func (sm SyncMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(sm.String())
}

// UnmarshalJSON implements json.Unmarshaler for SyncMode
func (sm *SyncMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSyncMode(s)
	if err != nil {
		return err
	}
	*sm = parsed
	return nil
}

// ThreadConfig describes one simulated thread: its page reference string and
// scheduling priority (higher = served first under priority scheduling).
type ThreadConfig struct {
	ReferenceString []int `json:"referenceString"`
	Priority        int   `json:"priority"`
}

// SimConfig holds all simulation parameters
type SimConfig struct {
	// Workload
	Threads []ThreadConfig `json:"threads"` // One entry per simulated thread

	// Scheduling
	SchedulingPolicy SchedulingPolicy `json:"schedulingPolicy"` // fcfs, round-robin or priority
	TimeQuantum      int              `json:"timeQuantum"`      // Round-Robin quantum in page accesses

	// Memory
	FrameCount        int               `json:"frameCount"`        // Shared frame pool capacity
	ReplacementPolicy ReplacementPolicy `json:"replacementPolicy"` // fifo, lru, mru or opt

	// Synchronization
	SyncMode         SyncMode `json:"syncMode"`         // none, mutex or semaphore
	SemaphorePermits int      `json:"semaphorePermits"` // Permits for semaphore mode (ignored otherwise)

	// Lock release behavior: after each page access a running thread releases
	// one held lock with this probability. Defaults to a 50% chance per
	// access; set RandomSeed for replayable runs.
	LockReleaseProbability float64 `json:"lockReleaseProbability"`
	RandomSeed             int64   `json:"randomSeed"` // 0 = use time-based seed
}

// DefaultConfig returns a small two-thread Round-Robin scenario
func DefaultConfig() SimConfig {
	return SimConfig{
		Threads: []ThreadConfig{
			{ReferenceString: []int{1, 2, 3, 4, 1, 2, 5}, Priority: 5},
			{ReferenceString: []int{2, 3, 4, 5, 6}, Priority: 5},
		},
		SchedulingPolicy:       SchedulingRoundRobin,
		TimeQuantum:            2,
		FrameCount:             3,
		ReplacementPolicy:      ReplacementFIFO,
		SyncMode:               SyncNone,
		SemaphorePermits:       1,
		LockReleaseProbability: 0.5,
		RandomSeed:             0,
	}
}

// DeadlockConfig returns a scenario where mutex contention can produce a
// circular wait between threads holding one mutex and awaiting the other.
// Round-Robin is required here: preemption is what lets a second thread grab
// the other mutex while the first still holds its own.
func DeadlockConfig() SimConfig {
	return SimConfig{
		Threads: []ThreadConfig{
			{ReferenceString: []int{1, 2, 3, 4, 5}, Priority: 5},
			{ReferenceString: []int{5, 4, 3, 2, 1}, Priority: 5},
			{ReferenceString: []int{2, 3, 4, 5, 1}, Priority: 5},
		},
		SchedulingPolicy:       SchedulingRoundRobin,
		TimeQuantum:            2,
		FrameCount:             3,
		ReplacementPolicy:      ReplacementFIFO,
		SyncMode:               SyncMutex,
		SemaphorePermits:       1,
		LockReleaseProbability: 0.5,
		RandomSeed:             0,
	}
}

// PriorityInversionConfig returns a scenario where a high-priority thread can
// end up blocked behind a low-priority mutex holder.
func PriorityInversionConfig() SimConfig {
	return SimConfig{
		Threads: []ThreadConfig{
			{ReferenceString: []int{1, 2, 3, 4, 5}, Priority: 10},
			{ReferenceString: []int{2, 3, 4, 5, 6}, Priority: 5},
			{ReferenceString: []int{3, 4, 5, 6, 7}, Priority: 1},
		},
		SchedulingPolicy:       SchedulingPriority,
		TimeQuantum:            2,
		FrameCount:             4,
		ReplacementPolicy:      ReplacementFIFO,
		SyncMode:               SyncMutex,
		SemaphorePermits:       1,
		LockReleaseProbability: 0.5,
		RandomSeed:             0,
	}
}

// StarvationConfig returns a priority scenario where the lowest-priority
// thread runs last, if ever, behind three higher-priority competitors.
func StarvationConfig() SimConfig {
	return SimConfig{
		Threads: []ThreadConfig{
			{ReferenceString: []int{1, 2, 3, 4, 5, 6, 7}, Priority: 10},
			{ReferenceString: []int{2, 3, 4, 5, 6, 7, 8}, Priority: 8},
			{ReferenceString: []int{3, 4, 5, 6, 7, 8, 9}, Priority: 6},
			{ReferenceString: []int{4, 5, 6, 7, 8, 9, 10}, Priority: 1},
		},
		SchedulingPolicy:       SchedulingPriority,
		TimeQuantum:            2,
		FrameCount:             4,
		ReplacementPolicy:      ReplacementFIFO,
		SyncMode:               SyncNone,
		SemaphorePermits:       1,
		LockReleaseProbability: 0.5,
		RandomSeed:             0,
	}
}

// ThrashingConfig returns many threads competing for very few frames,
// producing a high fault rate under Round-Robin.
func ThrashingConfig() SimConfig {
	threads := make([]ThreadConfig, 6)
	for i := range threads {
		threads[i] = ThreadConfig{
			ReferenceString: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			Priority:        5,
		}
	}
	return SimConfig{
		Threads:                threads,
		SchedulingPolicy:       SchedulingRoundRobin,
		TimeQuantum:            2,
		FrameCount:             3,
		ReplacementPolicy:      ReplacementFIFO,
		SyncMode:               SyncNone,
		SemaphorePermits:       1,
		LockReleaseProbability: 0.5,
		RandomSeed:             0,
	}
}

// Validate checks if configuration values are reasonable
func (c *SimConfig) Validate() error {
	if len(c.Threads) == 0 {
		return ErrInvalidConfig("at least one thread is required")
	}
	for i, tc := range c.Threads {
		if len(tc.ReferenceString) == 0 {
			return ErrInvalidConfig(fmt.Sprintf("thread %d has an empty reference string", i))
		}
		for _, page := range tc.ReferenceString {
			if page <= 0 {
				return ErrInvalidConfig(fmt.Sprintf("thread %d references non-positive page %d", i, page))
			}
		}
		if tc.Priority <= 0 {
			return ErrInvalidConfig(fmt.Sprintf("thread %d priority must be > 0", i))
		}
	}
	if c.FrameCount <= 0 {
		return ErrInvalidConfig("frameCount must be > 0")
	}
	if c.SchedulingPolicy == SchedulingRoundRobin && c.TimeQuantum < 1 {
		return ErrInvalidConfig("timeQuantum must be >= 1 for round-robin")
	}
	if c.SyncMode == SyncSemaphore && c.SemaphorePermits < 1 {
		return ErrInvalidConfig("semaphorePermits must be >= 1 for semaphore mode")
	}
	if c.LockReleaseProbability < 0 || c.LockReleaseProbability > 1 {
		return ErrInvalidConfig("lockReleaseProbability must be between 0 and 1")
	}
	return nil
}
