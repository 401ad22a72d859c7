package ledger

import "sync"

// keyedMutex serializes mutating operations per serial within this process.
// It cannot fix races between separate instances: the backing store has no
// conditional writes, so cross-instance lost updates remain possible and
// are an accepted limitation of the store.
//
// Entries are retained for the process lifetime. The key space is the set
// of serials the process has touched, which is bounded by the sheet size.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
