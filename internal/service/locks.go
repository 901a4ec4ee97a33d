package service

import "sync"

// memberLocks serializes operations per member id. Entries are dropped once
// no goroutine holds or waits for them.
type memberLocks struct {
	mu    sync.Mutex
	locks map[string]*memberLock
}

type memberLock struct {
	mu   sync.Mutex
	refs int
}

func newMemberLocks() *memberLocks {
	return &memberLocks{locks: make(map[string]*memberLock)}
}

// Lock blocks until memberID is free and returns the unlock function.
func (m *memberLocks) Lock(memberID string) func() {
	m.mu.Lock()
	l, ok := m.locks[memberID]
	if !ok {
		l = &memberLock{}
		m.locks[memberID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, memberID)
		}
		m.mu.Unlock()
	}
}

func (m *memberLocks) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
