// Package store keeps the last fetched backend state per domain and notifies
// subscribers after every change.
package store

import (
	"sync"
)

// observable is embedded by every store. All store state is guarded by mu.
type observable struct {
	mu          sync.Mutex
	loading     int
	subscribers map[uint64]func()
	next        uint64
}

// Subscribe registers fn to be called after every state change. The returned
// function removes the subscription.
func (o *observable) Subscribe(fn func()) (cancel func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.subscribers == nil {
		o.subscribers = make(map[uint64]func())
	}
	id := o.next
	o.next++
	o.subscribers[id] = fn

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subscribers, id)
	}
}

// Loading reports whether at least one loading action is in flight.
func (o *observable) Loading() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loading > 0
}

// startLoading marks a loading action. The returned function must be deferred.
func (o *observable) startLoading() (done func()) {
	o.mu.Lock()
	o.loading++
	o.mu.Unlock()
	o.notify()

	return func() {
		o.mu.Lock()
		o.loading--
		o.mu.Unlock()
		o.notify()
	}
}

// update runs fn under the lock and notifies subscribers afterwards.
func (o *observable) update(fn func()) {
	o.mu.Lock()
	fn()
	o.mu.Unlock()
	o.notify()
}

// notify calls subscribers outside the lock so they can read the store.
func (o *observable) notify() {
	o.mu.Lock()
	subscribers := make([]func(), 0, len(o.subscribers))
	for _, fn := range o.subscribers {
		subscribers = append(subscribers, fn)
	}
	o.mu.Unlock()

	for _, fn := range subscribers {
		fn()
	}
}

func prepend[T any](items []T, item T) []T {
	return append([]T{item}, items...)
}

func clone[T any](items []T) []T {
	if items == nil {
		return nil
	}
	return append([]T(nil), items...)
}
