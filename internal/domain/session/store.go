package session

import "sync"

// Store keeps the conversation state of every user, keyed by Telegram user
// id. It is safe for concurrent use from one goroutine per inbound update;
// operations on the same key observe a total order, operations on different
// keys are independent.
type Store struct {
	mu     sync.RWMutex
	states map[int64]State
}

func NewStore() *Store {
	return &Store{
		states: make(map[int64]State),
	}
}

// Get returns the user's current state, or the None state if there is none.
func (s *Store) Get(userID int64) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[userID]
}

// Set overwrites the user's state unconditionally.
func (s *Store) Set(userID int64, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[userID] = state
}

// Clear removes the user's state. Clearing an absent key is a no-op.
func (s *Store) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
}

// Update applies fn to the user's state under the store lock, giving the
// caller an atomic read-modify-write on a single key. fn receives the None
// state when the user has none; setting *State to the None state removes
// the entry.
func (s *Store) Update(userID int64, fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.states[userID]
	fn(&state)
	if state.None() {
		delete(s.states, userID)
		return
	}
	s.states[userID] = state
}
