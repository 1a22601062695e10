package services

import "sync"

// keyedMutex hands out one mutex per key, serializing work for the same
// key while leaving different keys fully independent. Mutexes are retained
// for the process lifetime; the key space here (sessions, route-days) is
// small enough that eviction is not worth the complexity.
type keyedMutex[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*sync.Mutex
}

func newKeyedMutex[K comparable]() *keyedMutex[K] {
	return &keyedMutex[K]{locks: make(map[K]*sync.Mutex)}
}

func (k *keyedMutex[K]) get(key K) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()

	if m, ok := k.locks[key]; ok {
		return m
	}
	m := &sync.Mutex{}
	k.locks[key] = m
	return m
}

// Lock acquires the mutex for key and returns its unlock func.
func (k *keyedMutex[K]) Lock(key K) func() {
	m := k.get(key)
	m.Lock()
	return m.Unlock
}
