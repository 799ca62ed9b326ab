// Package store holds the client-side read caches and the persisted auth
// state. Stores are plain objects passed by reference; every mutation is
// applied only after the backend confirmed it.
package store

import "sync"

// Keyed records are addressed by their database id.
type Keyed interface {
	Key() string
}

// Collection is an ordered, mutex-guarded list of records keyed by id.
type Collection[T Keyed] struct {
	mu    sync.RWMutex
	items []T
}

func NewCollection[T Keyed]() *Collection[T] {
	return &Collection[T]{}
}

// Load replaces the whole collection.
func (c *Collection[T]) Load(items []T) {
	cp := make([]T, len(items))
	copy(cp, items)
	c.mu.Lock()
	c.items = cp
	c.mu.Unlock()
}

// All returns a copy in store order.
func (c *Collection[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// ApplyCreate appends item, or puts it first when prepend is set.
func (c *Collection[T]) ApplyCreate(item T, prepend bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prepend {
		c.items = append([]T{item}, c.items...)
		return
	}
	c.items = append(c.items, item)
}

// ApplyUpdate runs fn on the record with id. Reports whether it existed.
func (c *Collection[T]) ApplyUpdate(id string, fn func(*T)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	fn(&c.items[i])
	return true
}

// ApplyUpdateMany runs fn on every record whose id is in ids and returns
// how many matched.
func (c *Collection[T]) ApplyUpdateMany(ids []string, fn func(*T)) int {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for i := range c.items {
		if _, ok := want[c.items[i].Key()]; ok {
			fn(&c.items[i])
			n++
		}
	}
	return n
}

// ApplyDelete removes the record with id; deleting a missing id is a no-op.
func (c *Collection[T]) ApplyDelete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i:i], c.items[i+1:]...)
	return true
}

func (c *Collection[T]) indexOf(id string) int {
	for i := range c.items {
		if c.items[i].Key() == id {
			return i
		}
	}
	return -1
}
