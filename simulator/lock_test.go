package simulator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLock_MutexGrantsAndBlocks(t *testing.T) {
	lock := NewLock("Mutex-A", 1)
	t1 := newThread(1, []int{1}, 5)
	t2 := newThread(2, []int{1}, 5)

	require.True(t, lock.TryAcquire(t1))
	require.Equal(t, t1, lock.Holder())
	require.Equal(t, 0, lock.Available())
	require.True(t, t1.HoldsLock("Mutex-A"))
	require.Equal(t, 1, lock.Acquisitions())

	// Second acquirer blocks and is enqueued
	require.False(t, lock.TryAcquire(t2))
	require.Equal(t, ThreadBlocked, t2.State())
	require.Equal(t, "Mutex-A", t2.AwaitedLock())
	require.Equal(t, 1, lock.WaitingCount())
}

func TestLock_TryAcquireEnqueuesOnce(t *testing.T) {
	lock := NewLock("Mutex-A", 1)
	t1 := newThread(1, []int{1}, 5)
	t2 := newThread(2, []int{1}, 5)

	require.True(t, lock.TryAcquire(t1))
	require.False(t, lock.TryAcquire(t2))
	require.False(t, lock.TryAcquire(t2))
	require.Equal(t, 1, lock.WaitingCount(), "retrying while queued must not duplicate the entry")
}

func TestLock_ReleaseWakesHeadWaiterInSameCall(t *testing.T) {
	lock := NewLock("Mutex-A", 1)
	t1 := newThread(1, []int{1}, 5)
	t2 := newThread(2, []int{1}, 5)
	t3 := newThread(3, []int{1}, 5)

	require.True(t, lock.TryAcquire(t1))
	require.False(t, lock.TryAcquire(t2))
	require.False(t, lock.TryAcquire(t3))

	// The freed permit goes to the head waiter, FIFO
	woken := lock.Release(t1)
	require.Equal(t, t2, woken)
	require.Equal(t, t2, lock.Holder())
	require.Equal(t, 0, lock.Available(), "permit was handed over, not freed")
	require.Equal(t, ThreadReady, t2.State())
	require.True(t, t2.HoldsLock("Mutex-A"))
	require.Empty(t, t2.AwaitedLock())
	require.False(t, t1.HoldsLock("Mutex-A"))

	// t3 is still queued behind
	require.Equal(t, 1, lock.WaitingCount())

	woken = lock.Release(t2)
	require.Equal(t, t3, woken)
	require.Equal(t, 0, lock.WaitingCount())

	woken = lock.Release(t3)
	require.Nil(t, woken)
	require.Equal(t, 1, lock.Available())
	require.Nil(t, lock.Holder())
}

func TestLock_ReleaseSkipsCompletedWaiter(t *testing.T) {
	lock := NewLock("Mutex-A", 1)
	t1 := newThread(1, []int{1}, 5)
	t2 := newThread(2, []int{1}, 5)
	t3 := newThread(3, []int{1}, 5)

	require.True(t, lock.TryAcquire(t1))
	require.False(t, lock.TryAcquire(t2))
	require.False(t, lock.TryAcquire(t3))

	// t2 completed while queued; the handoff must pass it over
	t2.state = ThreadCompleted

	woken := lock.Release(t1)
	require.Equal(t, t3, woken)
	require.Equal(t, t3, lock.Holder())
	require.False(t, t2.HoldsLock("Mutex-A"))
	require.Equal(t, 0, lock.WaitingCount())
}

func TestLock_HandoffDoesNotCountAsNewAcquisition(t *testing.T) {
	lock := NewLock("Mutex-A", 1)
	t1 := newThread(1, []int{1}, 5)
	t2 := newThread(2, []int{1}, 5)

	require.True(t, lock.TryAcquire(t1))
	require.False(t, lock.TryAcquire(t2))
	lock.Release(t1)

	require.Equal(t, 1, lock.Acquisitions())
}

func TestLock_SemaphoreGrantsUpToPermits(t *testing.T) {
	lock := NewLock("Semaphore-1", 2)
	t1 := newThread(1, []int{1}, 5)
	t2 := newThread(2, []int{1}, 5)
	t3 := newThread(3, []int{1}, 5)

	require.True(t, lock.TryAcquire(t1))
	require.True(t, lock.TryAcquire(t2))
	require.Nil(t, lock.Holder(), "semaphores have no exclusive holder")
	require.False(t, lock.TryAcquire(t3))
	require.Equal(t, ThreadBlocked, t3.State())

	woken := lock.Release(t1)
	require.Equal(t, t3, woken)
	require.Equal(t, 0, lock.Available())
}

func TestLock_ForceReleaseWakesAllWithoutGranting(t *testing.T) {
	lock := NewLock("Mutex-A", 1)
	t1 := newThread(1, []int{1}, 5)
	t2 := newThread(2, []int{1}, 5)
	t3 := newThread(3, []int{1}, 5)

	require.True(t, lock.TryAcquire(t1))
	require.False(t, lock.TryAcquire(t2))
	require.False(t, lock.TryAcquire(t3))

	woken := lock.ForceRelease()
	require.Equal(t, []*Thread{t2, t3}, woken)
	require.Equal(t, 1, lock.Available())
	require.Nil(t, lock.Holder())
	require.Equal(t, 0, lock.WaitingCount())

	for _, th := range woken {
		require.Equal(t, ThreadReady, th.State())
		require.False(t, th.HoldsLock("Mutex-A"), "waking must not grant the lock")
		require.Empty(t, th.AwaitedLock())
	}
}
