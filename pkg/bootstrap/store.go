package bootstrap

import "sync"

// State is the serializable application state.
type State map[string]any

// Store holds the application state. Exactly one Store exists per page
// load; route hot reload replaces the Store with a new one seeded from
// the previous snapshot, it never mutates state in place.
type Store struct {
	mu     sync.RWMutex
	state  State
	subs   map[int]func(State)
	nextID int
}

// NewStore creates a store seeded from the given initial state. The seed
// is copied; later changes to the argument do not leak in.
func NewStore(initial State) *Store {
	return &Store{
		state: cloneState(initial),
		subs:  make(map[int]func(State)),
	}
}

// State returns a snapshot copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneState(s.state)
}

// Get returns a single value from the state.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.state[key]
	return v, ok
}

// Update replaces the state with the result of fn applied to a snapshot,
// then notifies subscribers. fn must not retain the snapshot.
func (s *Store) Update(fn func(State) State) {
	s.mu.Lock()
	s.state = cloneState(fn(cloneState(s.state)))
	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	snapshot := cloneState(s.state)
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snapshot)
	}
}

// Subscribe registers a callback invoked after every Update. The returned
// function unsubscribes.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func cloneState(state State) State {
	clone := make(State, len(state))
	for k, v := range state {
		clone[k] = v
	}
	return clone
}
