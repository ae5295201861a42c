package prioritylock

import (
	"sync"
)

// Mutex is a read-write lock with three kinds of holders:
//   - High priority writers, used for block production and rollback.
//   - High priority readers, used for submissions and queries. They may
//     hold the lock together with other readers.
//   - Low priority writers, used for maintenance such as clearing the
//     mempool. They wait until no high priority holder is waiting.
type Mutex struct {
	dataMutex           sync.RWMutex
	lowPriorityMutex    sync.Mutex
	highPriorityWaiting sync.WaitGroup
}

// New returns an unlocked Mutex.
func New() *Mutex {
	return &Mutex{}
}

// LowPriorityLock waits for every high priority holder to be released
// before acquiring the lock exclusively.
func (mtx *Mutex) LowPriorityLock() {
	mtx.lowPriorityMutex.Lock()
	mtx.highPriorityWaiting.Wait()
	mtx.dataMutex.Lock()
}

// LowPriorityUnlock releases a lock taken by LowPriorityLock.
func (mtx *Mutex) LowPriorityUnlock() {
	mtx.dataMutex.Unlock()
	mtx.lowPriorityMutex.Unlock()
}

// HighPriorityLock acquires the lock exclusively. It still waits for a low
// priority holder that already has the lock.
func (mtx *Mutex) HighPriorityLock() {
	mtx.highPriorityWaiting.Add(1)
	mtx.dataMutex.Lock()
}

// HighPriorityUnlock releases a lock taken by HighPriorityLock.
func (mtx *Mutex) HighPriorityUnlock() {
	mtx.dataMutex.Unlock()
	mtx.highPriorityWaiting.Done()
}

// HighPriorityReadLock acquires the lock for reading.
func (mtx *Mutex) HighPriorityReadLock() {
	mtx.highPriorityWaiting.Add(1)
	mtx.dataMutex.RLock()
}

// HighPriorityReadUnlock releases a lock taken by HighPriorityReadLock.
func (mtx *Mutex) HighPriorityReadUnlock() {
	mtx.dataMutex.RUnlock()
	mtx.highPriorityWaiting.Done()
}
