// Package event provides the ordered, synchronous observer lists that the
// item managers publish their notifications on.
package event

import "sync"

// Handler receives one published value.
type Handler[T any] func(T)

type entry[T any] struct {
	id   uint64
	name string
	fn   Handler[T]
}

// Bus delivers each published value to every subscriber in registration
// order before Publish returns. A subscriber added or removed during a
// Publish takes effect from the next Publish.
type Bus[T any] struct {
	mu      sync.RWMutex
	nextID  uint64
	entries []entry[T]
}

// Subscribe registers fn under name and returns a function that removes
// exactly this registration.
func (b *Bus[T]) Subscribe(name string, fn Handler[T]) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.entries = append(b.entries, entry[T]{id: id, name: name, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(func(e entry[T]) bool { return e.id == id }) })
	}
}

// Unsubscribe removes every registration made under name.
func (b *Bus[T]) Unsubscribe(name string) {
	b.remove(func(e entry[T]) bool { return e.name == name })
}

func (b *Bus[T]) remove(match func(entry[T]) bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := make([]entry[T], 0, len(b.entries))
	for _, e := range b.entries {
		if !match(e) {
			kept = append(kept, e)
		}
	}
	b.entries = kept
}

// Publish calls every handler with v, in registration order.
func (b *Bus[T]) Publish(v T) {
	b.mu.RLock()
	entries := b.entries
	b.mu.RUnlock()
	for _, e := range entries {
		e.fn(v)
	}
}

// Len returns the number of registered handlers.
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
