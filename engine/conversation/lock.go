package conversation

import (
	"context"
	"sync"
)

// keyLock is a per-key mutex granting the lock in strict arrival order.
// Waiters that give up via ctx leave the queue without disturbing others.
type keyLock struct {
	mu     sync.Mutex
	queues map[string][]chan struct{}
}

func newKeyLock() *keyLock {
	return &keyLock{queues: make(map[string][]chan struct{})}
}

// Lock blocks until key is held or ctx is done. The head of a queue always
// has its channel closed.
func (k *keyLock) Lock(ctx context.Context, key string) (func(), error) {
	ticket := make(chan struct{})
	k.mu.Lock()
	q := k.queues[key]
	k.queues[key] = append(q, ticket)
	if len(q) == 0 {
		close(ticket)
	}
	k.mu.Unlock()

	select {
	case <-ticket:
		return func() { k.release(key, ticket) }, nil
	case <-ctx.Done():
	}

	k.mu.Lock()
	select {
	case <-ticket:
		k.mu.Unlock()
		k.release(key, ticket)
		return nil, ctx.Err()
	default:
	}
	q = k.queues[key]
	for i, t := range q {
		if t == ticket {
			k.queues[key] = append(q[:i:i], q[i+1:]...)
			break
		}
	}
	k.mu.Unlock()
	return nil, ctx.Err()
}

func (k *keyLock) release(key string, ticket chan struct{}) {
	k.mu.Lock()
	defer k.mu.Unlock()
	q := k.queues[key]
	if len(q) == 0 || q[0] != ticket {
		return
	}
	q = q[1:]
	if len(q) == 0 {
		delete(k.queues, key)
		return
	}
	k.queues[key] = q
	close(q[0])
}

// waiting reports the queue length for key, including the holder.
func (k *keyLock) waiting(key string) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.queues[key])
}
