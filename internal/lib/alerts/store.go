package alerts

import (
	"fmt"
	"iter"
	"slices"
	"sync"
)

// ErrDuplicateID signals an Append with an id that already exists in the
// store. Duplicate appends are a programming-contract failure and leave the
// store untouched.
var ErrDuplicateID = fmt.Errorf("alerts: duplicate alert id")

// Store is a thread-safe, insertion-ordered collection of alerts with
// newest-first semantics. There is no delete operation; alerts live until
// the session is torn down.
type Store struct {
	mu     sync.RWMutex
	alerts []Alert
	ids    map[string]struct{}
}

// NewStore creates an empty alert store.
func NewStore() *Store {
	return &Store{
		ids: make(map[string]struct{}),
	}
}

// Append inserts the alert at the front of the store. It fails with
// ErrDuplicateID if an alert with the same id is already present.
func (s *Store) Append(a Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[a.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, a.ID)
	}

	s.alerts = append([]Alert{a}, s.alerts...)
	s.ids[a.ID] = struct{}{}
	return nil
}

// UpsertStatus replaces the status of the alert with the given id. Unknown
// ids are a silent no-op, tolerant of out-of-order or duplicate feed events;
// the return value reports whether an alert was updated.
func (s *Store) UpsertStatus(id string, status Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts[i].Status = status
			return true
		}
	}
	return false
}

// Get returns the alert with the given id, if present.
func (s *Store) Get(id string) (Alert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.alerts {
		if a.ID == id {
			return a, true
		}
	}
	return Alert{}, false
}

// Len returns the number of alerts in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}

// All returns a lazy, restartable sequence over the alerts in store order,
// newest first. Each iteration works on a snapshot taken when it starts, so
// callers never observe a concurrent mutation mid-walk.
func (s *Store) All() iter.Seq[Alert] {
	return func(yield func(Alert) bool) {
		s.mu.RLock()
		snapshot := slices.Clone(s.alerts)
		s.mu.RUnlock()

		for _, a := range snapshot {
			if !yield(a) {
				return
			}
		}
	}
}

// Snapshot returns a copy of the current store contents in store order.
func (s *Store) Snapshot() []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.alerts)
}
