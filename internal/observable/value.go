// Package observable provides a minimal observable cell used to publish
// session state to whatever renders it.
package observable

import "sync"

// Subscription identifies a registered subscriber.
type Subscription uint64

type subscriber[T any] struct {
	id Subscription
	fn func(T)
}

// Value holds a current value of type T, which may be absent, and notifies
// subscribers when it changes.
//
// A new subscriber is invoked immediately with the current value unless the
// cell is absent. Subscribers are invoked outside the internal lock, in
// subscription order.
type Value[T comparable] struct {
	mu      sync.Mutex
	value   T
	present bool
	nextID  Subscription
	subs    []subscriber[T]
}

// New returns a cell holding v.
func New[T comparable](v T) *Value[T] {
	return &Value[T]{value: v, present: true}
}

// NewEmpty returns an absent cell.
func NewEmpty[T comparable]() *Value[T] {
	return &Value[T]{}
}

// Get returns the current value, or the zero value when absent.
func (c *Value[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Lookup returns the current value and whether it is present.
func (c *Value[T]) Lookup() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.present
}

// Set stores v and notifies subscribers if it differs from the previous value.
func (c *Value[T]) Set(v T) {
	c.store(v, true)
}

// Clear makes the cell absent. Subscribers receive the zero value if the
// cell was present.
func (c *Value[T]) Clear() {
	var zero T
	c.store(zero, false)
}

func (c *Value[T]) store(v T, present bool) {
	c.mu.Lock()
	changed := c.present != present || c.value != v
	c.value = v
	c.present = present
	var subs []subscriber[T]
	if changed {
		subs = append(subs, c.subs...)
	}
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Subscribe registers fn and replays the current value to it unless the
// cell is absent.
func (c *Value[T]) Subscribe(fn func(T)) Subscription {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscriber[T]{id: id, fn: fn})
	v, present := c.value, c.present
	c.mu.Unlock()

	if present {
		fn(v)
	}
	return id
}

// Unsubscribe removes the subscriber. Unknown subscriptions are ignored.
func (c *Value[T]) Unsubscribe(id Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.subs[:0]
	for _, s := range c.subs {
		if s.id != id {
			kept = append(kept, s)
		}
	}
	// release the dropped closure
	for i := len(kept); i < len(c.subs); i++ {
		c.subs[i] = subscriber[T]{}
	}
	c.subs = kept
}

// Len reports the number of subscribers.
func (c *Value[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}
