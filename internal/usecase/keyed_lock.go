package usecase

import "sync"

// keyedTryLock is a try-once mutual-exclusion gate scoped per key
// (order number). TryLock never blocks: a caller that loses the race
// backs off entirely and relies on gateway redelivery or the
// reconciliation pass to finish the work. Locking per order number
// keeps unrelated orders from serializing behind each other.
type keyedTryLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newKeyedTryLock() *keyedTryLock {
	return &keyedTryLock{held: make(map[string]struct{})}
}

func (l *keyedTryLock) TryLock(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

func (l *keyedTryLock) Unlock(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}
