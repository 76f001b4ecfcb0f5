// Package urlstate keeps a query-string location with browser-like history
// and change notification.
package urlstate

import (
	"net/url"
	"sort"
	"sync"
)

// Listener receives a copy of the new location after every change.
type Listener = func(url.Values)

// Store holds the current location and its navigation history.
type Store struct {
	mu        sync.Mutex
	history   []url.Values
	index     int
	listeners map[int]Listener
	nextID    int
}

// New creates a store whose first history entry is initial.
func New(initial url.Values) *Store {
	return &Store{
		history:   []url.Values{clone(initial)},
		listeners: make(map[int]Listener),
	}
}

// Parse creates a store from an encoded query, with or without a leading '?'.
func Parse(rawQuery string) (*Store, error) {
	if len(rawQuery) > 0 && rawQuery[0] == '?' {
		rawQuery = rawQuery[1:]
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, err
	}
	return New(values), nil
}

// Values returns a copy of the current location.
func (s *Store) Values() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.history[s.index])
}

// Encode returns the current location as a query string without '?'.
func (s *Store) Encode() string {
	return s.Values().Encode()
}

// Merge navigates to the current location overlaid with params. Keys with
// an empty value slice are removed; keys absent from params are kept.
// Listeners run only when the location changed. Forward history is dropped.
func (s *Store) Merge(params url.Values) bool {
	s.mu.Lock()
	next := MergeValues(s.history[s.index], params)
	if equal(next, s.history[s.index]) {
		s.mu.Unlock()
		return false
	}
	s.history = append(s.history[:s.index+1], next)
	s.index++
	listeners := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(listeners, next)
	return true
}

// Back moves one entry back in history, like the browser back button.
func (s *Store) Back() bool {
	return s.move(-1)
}

// Forward moves one entry forward in history.
func (s *Store) Forward() bool {
	return s.move(1)
}

func (s *Store) move(delta int) bool {
	s.mu.Lock()
	target := s.index + delta
	if target < 0 || target >= len(s.history) {
		s.mu.Unlock()
		return false
	}
	s.index = target
	current := s.history[s.index]
	listeners := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(listeners, current)
	return true
}

// Subscribe registers fn for location changes and returns its unsubscribe
// function. fn is not called for the current location.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) snapshotLocked() []Listener {
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]Listener, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.listeners[id])
	}
	return out
}

func (s *Store) notify(listeners []Listener, values url.Values) {
	for _, fn := range listeners {
		fn(clone(values))
	}
}

// MergeValues overlays params on base without modifying either.
func MergeValues(base, params url.Values) url.Values {
	out := clone(base)
	for key, vals := range params {
		if len(vals) == 0 {
			delete(out, key)
			continue
		}
		out[key] = append([]string(nil), vals...)
	}
	return out
}

func clone(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for key, vals := range v {
		out[key] = append([]string(nil), vals...)
	}
	return out
}

func equal(a, b url.Values) bool {
	if len(a) != len(b) {
		return false
	}
	for key, av := range a {
		bv, ok := b[key]
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
	}
	return true
}
