package utils

import "sync"

// KeyLock serializes work per key in the order it was queued, while different keys
// proceed in parallel.
type KeyLock struct {
	mu    sync.Mutex
	tails map[string]chan struct{}
}

func NewKeyLock() *KeyLock {
	return &KeyLock{tails: make(map[string]chan struct{})}
}

// Enqueue reserves the next turn for key without blocking. wait blocks until every
// turn queued earlier for the same key has called its done. Turns run in Enqueue
// order, so callers must enqueue in arrival order.
func (k *KeyLock) Enqueue(key string) (wait func(), done func()) {
	turn := make(chan struct{})

	k.mu.Lock()
	prev := k.tails[key]
	k.tails[key] = turn
	k.mu.Unlock()

	wait = func() {
		if prev != nil {
			<-prev
		}
	}
	done = func() {
		close(turn)

		k.mu.Lock()
		if k.tails[key] == turn {
			delete(k.tails, key)
		}
		k.mu.Unlock()
	}
	return wait, done
}

// Lock blocks until key is free and returns the matching unlock.
func (k *KeyLock) Lock(key string) func() {
	wait, done := k.Enqueue(key)
	wait()
	return done
}
