package simulator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func residentPages(p *FramePool) []int {
	pages := make([]int, 0, p.Len())
	for _, f := range p.Entries() {
		pages = append(pages, f.Page)
	}
	return pages
}

func TestFramePool_FillsFreeFramesWithoutEviction(t *testing.T) {
	pool := NewFramePool(3, ReplacementFIFO)
	th := newThread(1, []int{1, 2, 3}, 5)

	for _, page := range []int{1, 2, 3} {
		result := pool.Access(th, page)
		require.False(t, result.Hit)
		require.Nil(t, result.Evicted)
	}
	require.Equal(t, 3, pool.Len())
	require.Equal(t, 3, th.PageFaults())
}

func TestFramePool_HitDoesNotEvict(t *testing.T) {
	pool := NewFramePool(3, ReplacementFIFO)
	th := newThread(1, []int{1, 1}, 5)

	pool.Access(th, 1)
	result := pool.Access(th, 1)
	require.True(t, result.Hit)
	require.Nil(t, result.Evicted)
	require.Equal(t, 1, th.PageFaults())
	require.Equal(t, 1, th.PageHits())
}

func TestFramePool_FIFOEvictsOldestArrival(t *testing.T) {
	pool := NewFramePool(3, ReplacementFIFO)
	th := newThread(1, []int{1, 2, 3, 4}, 5)

	pool.Access(th, 1)
	pool.Access(th, 2)
	pool.Access(th, 3)
	result := pool.Access(th, 4)

	require.False(t, result.Hit)
	require.NotNil(t, result.Evicted)
	require.Equal(t, 1, result.Evicted.Page)
	require.ElementsMatch(t, []int{2, 3, 4}, residentPages(pool))
}

func TestFramePool_FIFOIgnoresRecency(t *testing.T) {
	// A hit must not refresh a page's arrival position under FIFO
	pool := NewFramePool(3, ReplacementFIFO)
	th := newThread(1, []int{1, 2, 3, 1, 4}, 5)

	pool.Access(th, 1)
	pool.Access(th, 2)
	pool.Access(th, 3)
	require.True(t, pool.Access(th, 1).Hit)

	result := pool.Access(th, 4)
	require.Equal(t, 1, result.Evicted.Page, "oldest arrival is evicted even after a recent hit")
}

func TestFramePool_LRUEvictsLeastRecentlyUsed(t *testing.T) {
	pool := NewFramePool(3, ReplacementLRU)
	th := newThread(1, []int{1, 2, 3, 1, 4}, 5)

	pool.Access(th, 1)
	pool.Access(th, 2)
	pool.Access(th, 3)
	// Touch 1: it becomes most recently used, leaving 2 as the LRU victim
	require.True(t, pool.Access(th, 1).Hit)

	result := pool.Access(th, 4)
	require.Equal(t, 2, result.Evicted.Page)
	require.Equal(t, []int{3, 1, 4}, residentPages(pool))
}

func TestFramePool_MRUEvictsMostRecentlyUsed(t *testing.T) {
	pool := NewFramePool(3, ReplacementMRU)
	th := newThread(1, []int{1, 2, 3, 2, 4}, 5)

	pool.Access(th, 1)
	pool.Access(th, 2)
	pool.Access(th, 3)
	// Touch 2: it becomes most recently used and therefore the MRU victim
	require.True(t, pool.Access(th, 2).Hit)

	result := pool.Access(th, 4)
	require.Equal(t, 2, result.Evicted.Page)
	require.Equal(t, []int{1, 3, 4}, residentPages(pool))
}

func TestFramePool_OPTEvictsFarthestNextUse(t *testing.T) {
	pool := NewFramePool(2, ReplacementOPT)
	th := newThread(1, []int{1, 2, 3, 1, 4}, 5)

	pool.Access(th, 1)
	th.Advance()
	pool.Access(th, 2)
	th.Advance()

	// At cursor 2 the future is [3, 1, 4]: page 1 is used again at index 3,
	// page 2 never again, so page 2 is the victim.
	result := pool.Access(th, 3)
	require.NotNil(t, result.Evicted)
	require.Equal(t, 2, result.Evicted.Page)
	require.ElementsMatch(t, []int{1, 3}, residentPages(pool))
}

func TestFramePool_OPTLooksAheadPerOwner(t *testing.T) {
	// OPT consults each entry's owning thread's own future, not a merged one:
	// a page another thread will need soon is still evicted if its owner
	// never touches it again.
	pool := NewFramePool(2, ReplacementOPT)
	a := newThread(1, []int{1, 9, 9}, 5)
	b := newThread(2, []int{2, 2, 2}, 5)

	pool.Access(a, 1)
	a.Advance()
	pool.Access(b, 2)
	b.Advance()

	// a's future is [9, 9]: page 1 never recurs for its owner. b's future is
	// [2, 2]: page 2 recurs immediately. Page 1 is the victim.
	result := pool.Access(a, 9)
	require.Equal(t, 1, result.Evicted.Page)
}

func TestFramePool_HitOnAnotherThreadsPage(t *testing.T) {
	// Residency is per page, not per (thread, page): a second thread hits on
	// a page some other thread faulted in, and the frame keeps its owner.
	pool := NewFramePool(3, ReplacementLRU)
	a := newThread(1, []int{7}, 5)
	b := newThread(2, []int{7}, 5)

	pool.Access(a, 7)
	result := pool.Access(b, 7)

	require.True(t, result.Hit)
	require.Equal(t, 1, b.PageHits())
	require.Equal(t, 1, pool.Len(), "a hit never adds a frame")
	require.Equal(t, a, pool.Entries()[0].Owner)
}

func TestFramePool_ResetEmptiesPool(t *testing.T) {
	pool := NewFramePool(2, ReplacementFIFO)
	th := newThread(1, []int{1, 2}, 5)
	pool.Access(th, 1)
	pool.Access(th, 2)

	pool.Reset()
	require.Equal(t, 0, pool.Len())
	require.False(t, pool.Contains(1))
}
