package session

import (
	"sync"
)

// Feed is a fan-out PositionSource backed by an in-process publisher, used
// to bridge sensor adapters (or the ingest API) to GPS-mode sessions.
// Publish never blocks on subscribers; callbacks run on the publisher's
// goroutine and are expected to return quickly, which Session.Ingest does.
type Feed struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Sample)
}

// NewFeed creates an empty position feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[int]func(Sample))}
}

// Subscribe implements PositionSource.
func (f *Feed) Subscribe(fn func(Sample)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.next
	f.next++
	f.subs[id] = fn

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

// Publish delivers one sample to all current subscribers.
func (f *Feed) Publish(s Sample) {
	f.mu.Lock()
	fns := make([]func(Sample), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// SubscriberCount returns the number of active subscribers.
func (f *Feed) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
