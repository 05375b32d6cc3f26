package core

import (
	"context"
	"sync"
)

// Broadcaster wakes up the watchers of a collection after each change.
// Wake-ups are coalesced: a slow watcher gets the latest snapshot, not every intermediate one.
type Broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan struct{}
}

func (b *Broadcaster) add() (int, <-chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]chan struct{})
	}
	b.nextID++
	ch := make(chan struct{}, 1)
	b.subs[b.nextID] = ch
	return b.nextID, ch
}

func (b *Broadcaster) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// Len returns the number of watchers.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broadcaster) Broadcast() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Watch calls fn with a snapshot in its own goroutine, first right away, then after every
// Broadcast of b, until ctx is done or the returned func is called.
// Snapshot errors are passed to onErr, if set, and the snapshot is skipped.
func Watch[T any](
	ctx context.Context,
	b *Broadcaster,
	snapshot func(ctx context.Context) ([]T, error),
	fn func([]T),
	onErr func(error),
) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	id, changed := b.add()

	deliver := func() {
		items, err := snapshot(ctx)
		if err != nil {
			if onErr != nil && ctx.Err() == nil {
				onErr(err)
			}
			return
		}
		if ctx.Err() == nil {
			fn(items)
		}
	}

	go func() {
		defer b.remove(id)
		deliver()
		for {
			select {
			case <-ctx.Done():
				return
			case <-changed:
				deliver()
			}
		}
	}()
	return cancel, nil
}
