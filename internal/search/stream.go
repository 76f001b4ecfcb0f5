package search

import (
	"sort"
	"sync"
)

// subject is a value cell whose listeners are called on every publish.
// New subscribers immediately receive the latest value, if any.
type subject[T any] struct {
	mu        sync.Mutex
	value     T
	has       bool
	listeners map[int]func(T)
	nextID    int
}

func newSubject[T any]() *subject[T] {
	return &subject[T]{listeners: make(map[int]func(T))}
}

func (s *subject[T]) publish(v T) {
	s.mu.Lock()
	s.value = v
	s.has = true
	listeners := s.snapshotLocked()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(v)
	}
}

func (s *subject[T]) latest() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.has
}

func (s *subject[T]) subscribe(fn func(T)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	v, has := s.value, s.has
	s.mu.Unlock()

	if has {
		fn(v)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *subject[T]) snapshotLocked() []func(T) {
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]func(T), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.listeners[id])
	}
	return out
}
