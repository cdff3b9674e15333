// Package keylock provides exclusive locks keyed by string. Locks on
// different keys never contend with each other.
package keylock

import (
	"context"
	"sync"
)

// Locker acquires an exclusive lock on key, blocking until it is free or ctx
// is done. The returned func releases it and is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

var _ Locker = (*Registry)(nil)

type entry struct {
	sem  chan struct{}
	refs int
}

// Registry is the in-process Locker. Entries are dropped once nobody holds
// or waits on them, so the map stays bounded by live keys.
type Registry struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{locks: make(map[string]*entry)}
}

func (r *Registry) Lock(ctx context.Context, key string) (func(), error) {
	r.mu.Lock()
	e, ok := r.locks[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		r.locks[key] = e
	}
	e.refs++
	r.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		r.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			r.release(key, e)
		})
	}, nil
}

func (r *Registry) release(key string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(r.locks, key)
	}
}

// Len reports the number of keys currently held or awaited.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
