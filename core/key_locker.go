package core

import (
	"strings"
	"sync"
)

type refLock struct {
	mu  sync.Mutex
	ref int
}

// KeyLocker hands out one mutex per key and drops it once nobody holds or waits for it.
// The invoker uses it to serialize invocations of the same method.
type KeyLocker struct {
	mu    sync.Mutex
	locks map[string]*refLock
	sep   string
}

// NewKeyLocker creates a new KeyLocker.
func NewKeyLocker() *KeyLocker {
	return &KeyLocker{locks: make(map[string]*refLock), sep: "."}
}

// Lock blocks until the key is free and returns the function releasing it.
func (kl *KeyLocker) Lock(keys ...string) func() {
	combinedKey := strings.Join(keys, kl.sep)

	kl.mu.Lock()
	lock, ok := kl.locks[combinedKey]
	if !ok {
		lock = &refLock{}
		kl.locks[combinedKey] = lock
	}
	lock.ref++
	kl.mu.Unlock()

	lock.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			lock.mu.Unlock()
			kl.mu.Lock()
			lock.ref--
			if lock.ref == 0 {
				delete(kl.locks, combinedKey)
			}
			kl.mu.Unlock()
		})
	}
}

// size returns the number of live keys.
func (kl *KeyLocker) size() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.locks)
}
