package simulator

// ThreadMetrics is a per-thread statistics snapshot
type ThreadMetrics struct {
	ID              int         `json:"id"`
	Name            string      `json:"name"`
	Priority        int         `json:"priority"`
	State           ThreadState `json:"state"`
	ReferenceLength int         `json:"referenceLength"`
	Cursor          int         `json:"cursor"`
	PageFaults      int         `json:"pageFaults"`
	PageHits        int         `json:"pageHits"`
	HitRatioPercent float64     `json:"hitRatioPercent"`
	ContextSwitches int         `json:"contextSwitches"`
	WaitingSteps    int         `json:"waitingSteps"`
	HeldLocks       []string    `json:"heldLocks"`
	AwaitedLock     string      `json:"awaitedLock,omitempty"`
}

// LockMetrics is a per-lock statistics snapshot
type LockMetrics struct {
	Name         string `json:"name"`
	MaxPermits   int    `json:"maxPermits"`
	Available    int    `json:"available"`
	Holder       string `json:"holder,omitempty"`
	QueueLength  int    `json:"queueLength"`
	Acquisitions int    `json:"acquisitions"`
}

// Metrics is a point-in-time statistics snapshot of the whole simulation,
// consumed by drivers (websocket UI, Prometheus export, CLI results).
type Metrics struct {
	CurrentStep           int     `json:"currentStep"`
	TotalSteps            int     `json:"totalSteps"`
	TotalPageFaults       int     `json:"totalPageFaults"`
	TotalPageHits         int     `json:"totalPageHits"`
	GlobalHitRatioPercent float64 `json:"globalHitRatioPercent"`
	ContextSwitches       int     `json:"contextSwitches"`
	BlockedThreads        int     `json:"blockedThreads"`
	CompletedThreads      int     `json:"completedThreads"`
	LockAcquisitions      int     `json:"lockAcquisitions"`
	DeadlockDetected      bool    `json:"deadlockDetected"`
	DeadlockedThreads     []string `json:"deadlockedThreads,omitempty"`

	Threads []ThreadMetrics `json:"threads"`
	Locks   []LockMetrics   `json:"locks"`
}

// Clone returns a deep copy of the metrics snapshot
func (m *Metrics) Clone() *Metrics {
	clone := *m
	clone.DeadlockedThreads = append([]string(nil), m.DeadlockedThreads...)
	clone.Threads = make([]ThreadMetrics, len(m.Threads))
	for i, tm := range m.Threads {
		tm.HeldLocks = append([]string(nil), tm.HeldLocks...)
		clone.Threads[i] = tm
	}
	clone.Locks = append([]LockMetrics(nil), m.Locks...)
	return &clone
}

// Metrics builds a statistics snapshot of the current simulation state
func (s *Simulator) Metrics() *Metrics {
	m := &Metrics{
		CurrentStep: s.currentStep,
		TotalSteps:  s.totalSteps,
		Threads:     make([]ThreadMetrics, 0, len(s.threads)),
		Locks:       make([]LockMetrics, 0, len(s.locks)),
	}

	for _, t := range s.threads {
		m.TotalPageFaults += t.PageFaults()
		m.TotalPageHits += t.PageHits()
		switch t.State() {
		case ThreadBlocked:
			m.BlockedThreads++
		case ThreadCompleted:
			m.CompletedThreads++
		}

		total := t.PageFaults() + t.PageHits()
		ratio := 0.0
		if total > 0 {
			ratio = float64(t.PageHits()) * 100.0 / float64(total)
		}
		m.Threads = append(m.Threads, ThreadMetrics{
			ID:              t.ID(),
			Name:            t.Name(),
			Priority:        t.Priority(),
			State:           t.State(),
			ReferenceLength: len(t.ReferenceString()),
			Cursor:          t.Cursor(),
			PageFaults:      t.PageFaults(),
			PageHits:        t.PageHits(),
			HitRatioPercent: ratio,
			ContextSwitches: t.ContextSwitches(),
			WaitingSteps:    t.WaitingSteps(),
			HeldLocks:       t.HeldLocks(),
			AwaitedLock:     t.AwaitedLock(),
		})
	}

	if accesses := m.TotalPageHits + m.TotalPageFaults; accesses > 0 {
		m.GlobalHitRatioPercent = float64(m.TotalPageHits) * 100.0 / float64(accesses)
	}
	if s.scheduler != nil {
		m.ContextSwitches = s.scheduler.ContextSwitches()
	}

	for _, l := range s.locks {
		holder := ""
		if h := l.Holder(); h != nil {
			holder = h.Name()
		}
		m.LockAcquisitions += l.Acquisitions()
		m.Locks = append(m.Locks, LockMetrics{
			Name:         l.Name(),
			MaxPermits:   l.MaxPermits(),
			Available:    l.Available(),
			Holder:       holder,
			QueueLength:  l.WaitingCount(),
			Acquisitions: l.Acquisitions(),
		})
	}

	m.DeadlockDetected = s.deadlockDetected
	for _, t := range s.deadlockedThreads {
		m.DeadlockedThreads = append(m.DeadlockedThreads, t.Name())
	}
	return m
}
