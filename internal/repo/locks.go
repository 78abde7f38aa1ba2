package repo

import "sync"

var defaultLocks = NewMonthLocks()

// MonthLocks is a keyed mutex. Entries are dropped once no goroutine holds or
// waits for them.
type MonthLocks struct {
	mu      sync.Mutex
	entries map[string]*monthLock
}

type monthLock struct {
	mu   sync.Mutex
	refs int
}

func NewMonthLocks() *MonthLocks {
	return &MonthLocks{entries: make(map[string]*monthLock)}
}

func (l *MonthLocks) Lock(key string) func() {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &monthLock{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			l.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(l.entries, key)
			}
			l.mu.Unlock()
		})
	}
}

func (l *MonthLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
