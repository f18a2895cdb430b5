package repository

import (
	"sync"

	"spadoc/pkg/jsonstore"
)

// collection is one JSON-backed list held in memory. Every mutation runs and
// is persisted under the write lock; if the save fails the in-memory list is
// restored so memory and disk never disagree.
type collection[T any] struct {
	store *jsonstore.Store
	name  string

	mu    sync.RWMutex
	items []T
}

func loadCollection[T any](store *jsonstore.Store, name string, def []T) *collection[T] {
	items := jsonstore.Load(store, name, def)
	if items == nil {
		items = []T{}
	}
	return &collection[T]{store: store, name: name, items: items}
}

// snapshot returns a copy of the list
func (c *collection[T]) snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *collection[T]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// mutate hands fn a private copy of the list. If fn succeeds its result is
// saved and becomes the new list; otherwise nothing changes.
func (c *collection[T]) mutate(fn func(items []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	working := make([]T, len(c.items))
	copy(working, c.items)

	next, err := fn(working)
	if err != nil {
		return err
	}
	if err := jsonstore.Save(c.store, c.name, next); err != nil {
		return err
	}
	c.items = next
	return nil
}
