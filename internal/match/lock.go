package match

import (
	"context"
	"sync"
)

// Locker serializes read-modify-write cycles on a single match. Different
// matches never block each other.
type Locker interface {
	Lock(ctx context.Context, matchID string) (unlock func(), err error)
}

type keyedSlot struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex is an in-process Locker with one slot per match id. Slots are
// dropped once nobody holds or waits for them.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*keyedSlot
}

var _ Locker = (*KeyedMutex)(nil)

// NewKeyedMutex creates an empty in-process locker.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]*keyedSlot)}
}

// Lock blocks until matchID is free or ctx is done.
func (k *KeyedMutex) Lock(ctx context.Context, matchID string) (func(), error) {
	k.mu.Lock()
	slot, ok := k.slots[matchID]
	if !ok {
		slot = &keyedSlot{ch: make(chan struct{}, 1)}
		k.slots[matchID] = slot
	}
	slot.refs++
	k.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(matchID, slot)
		return nil, ctx.Err()
	}

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			<-slot.ch
			k.release(matchID, slot)
		})
	}
	return unlock, nil
}

func (k *KeyedMutex) release(matchID string, slot *keyedSlot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(k.slots, matchID)
	}
}

func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}
