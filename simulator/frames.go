package simulator

import "math"

// FrameEntry is one occupied memory frame: a resident page tagged with the
// thread that faulted it in.
type FrameEntry struct {
	Page  int     `json:"page"`
	Owner *Thread `json:"-"`
}

// AccessResult reports the outcome of resolving one page reference.
type AccessResult struct {
	Hit     bool
	Evicted *FrameEntry // victim displaced by this access, nil if none
}

// FramePool is the bounded shared memory. The frames slice is both storage
// and, for LRU/MRU, the recency list: front = least recently touched, back =
// most recently touched. A separate arrival queue preserves insertion order
// for FIFO eviction. This doubling-up is deliberate and the policies'
// behavioral differences depend on it.
type FramePool struct {
	capacity int
	policy   ReplacementPolicy
	frames   []*FrameEntry
	arrival  []*FrameEntry
}

// NewFramePool creates an empty pool with the given capacity
func NewFramePool(capacity int, policy ReplacementPolicy) *FramePool {
	return &FramePool{
		capacity: capacity,
		policy:   policy,
		frames:   make([]*FrameEntry, 0, capacity),
		arrival:  make([]*FrameEntry, 0, capacity),
	}
}

// Capacity returns the configured frame count
func (p *FramePool) Capacity() int { return p.capacity }

// Len returns the number of occupied frames
func (p *FramePool) Len() int { return len(p.frames) }

// Policy returns the replacement policy
func (p *FramePool) Policy() ReplacementPolicy { return p.policy }

// Contains reports whether the page is resident, regardless of owner
func (p *FramePool) Contains(page int) bool {
	for _, f := range p.frames {
		if f.Page == page {
			return true
		}
	}
	return false
}

// Entries returns a copy of the frame list in policy order
func (p *FramePool) Entries() []*FrameEntry {
	return append([]*FrameEntry(nil), p.frames...)
}

// Access resolves one page reference for the thread: hit, fault into a free
// frame, or fault with eviction. Hit/fault counters on the thread are
// updated here; the caller logs the timeline events.
func (p *FramePool) Access(t *Thread, page int) AccessResult {
	if entry := p.resident(page); entry != nil {
		t.recordPageHit()
		if p.policy == ReplacementLRU || p.policy == ReplacementMRU {
			// Move to back to mark most-recently-used. The entry keeps its
			// original owner; recency is a property of the frame, not of
			// who touched it last.
			p.removeFrame(entry)
			p.frames = append(p.frames, entry)
		}
		return AccessResult{Hit: true}
	}

	t.recordPageFault()
	entry := &FrameEntry{Page: page, Owner: t}

	if len(p.frames) < p.capacity {
		p.frames = append(p.frames, entry)
		p.arrival = append(p.arrival, entry)
		return AccessResult{}
	}

	victim := p.selectVictim()
	p.removeFrame(victim)
	p.frames = append(p.frames, entry)
	p.arrival = append(p.arrival, entry)
	return AccessResult{Evicted: victim}
}

// selectVictim picks the frame to evict under the configured policy.
// Unknown policies fall back to front-of-collection eviction.
func (p *FramePool) selectVictim() *FrameEntry {
	switch p.policy {
	case ReplacementFIFO:
		victim := p.arrival[0]
		p.arrival = p.arrival[1:]
		return victim
	case ReplacementLRU:
		return p.frames[0]
	case ReplacementMRU:
		return p.frames[len(p.frames)-1]
	case ReplacementOPT:
		return p.selectOptimalVictim()
	default:
		return p.frames[0]
	}
}

// selectOptimalVictim evicts the entry whose next use is farthest away,
// where "next use" scans the owning thread's own reference string forward
// from its cursor. A page its owner never references again counts as
// infinitely far. Ties keep the earlier frame-list entry (strict >). The
// per-owner lookahead, rather than a global future, is intentional.
func (p *FramePool) selectOptimalVictim() *FrameEntry {
	farthest := -1
	victim := p.frames[0]

	for _, entry := range p.frames {
		nextUse := math.MaxInt
		refs := entry.Owner.ReferenceString()
		for i := entry.Owner.Cursor(); i < len(refs); i++ {
			if refs[i] == entry.Page {
				nextUse = i
				break
			}
		}
		if nextUse > farthest {
			farthest = nextUse
			victim = entry
		}
	}
	return victim
}

// resident returns the first frame holding the page, or nil
func (p *FramePool) resident(page int) *FrameEntry {
	for _, f := range p.frames {
		if f.Page == page {
			return f
		}
	}
	return nil
}

func (p *FramePool) removeFrame(entry *FrameEntry) {
	for i, f := range p.frames {
		if f == entry {
			p.frames = append(p.frames[:i], p.frames[i+1:]...)
			return
		}
	}
}

// Reset empties the pool and the arrival queue
func (p *FramePool) Reset() {
	p.frames = p.frames[:0]
	p.arrival = p.arrival[:0]
}
