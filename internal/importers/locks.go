package importers

import "sync"

// jobLocks is a mutex per job ID. Entries are dropped when nobody holds or
// waits for them.
type jobLocks struct {
	mu    sync.Mutex
	locks map[uint]*jobLock
}

type jobLock struct {
	mu   sync.Mutex
	refs int
}

func newJobLocks() *jobLocks {
	return &jobLocks{locks: make(map[uint]*jobLock)}
}

// Lock blocks until the job's lock is held and returns its release func.
func (l *jobLocks) Lock(id uint) func() {
	l.mu.Lock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &jobLock{}
		l.locks[id] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *jobLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
