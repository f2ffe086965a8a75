package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/skyscout/skyscout/internal/skyapi"
)

// Snapshot represents the latest flight search visible to the UI.
type Snapshot struct {
	Query       skyapi.FlightQuery
	HasQuery    bool
	Itineraries []skyapi.Itinerary
	Searching   bool
	StartedAt   time.Time
	LastUpdated time.Time
	LastError   error
	// ConsecutiveFailures counts failed searches since the last success.
	ConsecutiveFailures int
}

// IsOffline returns true when the API has failed repeatedly.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Elapsed reports how long the last completed search took.
func (s Snapshot) Elapsed() time.Duration {
	if s.StartedAt.IsZero() || s.LastUpdated.Before(s.StartedAt) {
		return 0
	}
	return s.LastUpdated.Sub(s.StartedAt)
}

// Store coordinates concurrent updates to the snapshot. The zero value is
// ready to use and reads the real clock.
type Store struct {
	mu       sync.RWMutex
	clock    clockwork.Clock
	seq      uint64
	snapshot Snapshot
}

// NewStore returns a store that timestamps with clk.
func NewStore(clk clockwork.Clock) *Store {
	return &Store{clock: clk}
}

func (s *Store) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

// Begin marks a new search as running and returns its ticket. Results for
// any earlier ticket are ignored from now on. Previous itineraries stay
// visible until the new search completes.
func (s *Store) Begin(q skyapi.FlightQuery) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.snapshot.Query = q
	s.snapshot.HasQuery = true
	s.snapshot.Searching = true
	s.snapshot.StartedAt = s.now()
	return s.seq
}

// Update records the outcome of the search identified by ticket. When err
// is non-nil the list is emptied and the error recorded. It reports
// whether the outcome was applied.
func (s *Store) Update(ticket uint64, itineraries []skyapi.Itinerary, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket != s.seq || !s.snapshot.Searching {
		return false
	}
	s.snapshot.Searching = false
	s.snapshot.LastUpdated = s.now()

	if err != nil {
		s.snapshot.Itineraries = nil
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return true
	}

	s.snapshot.Itineraries = slices.Clone(itineraries)
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
	return true
}

// Cancel abandons the running search, if any.
func (s *Store) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot.Searching {
		s.seq++
		s.snapshot.Searching = false
	}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Itineraries = cloneItineraries(s.snapshot.Itineraries)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneItineraries(items []skyapi.Itinerary) []skyapi.Itinerary {
	if len(items) == 0 {
		return nil
	}
	dup := make([]skyapi.Itinerary, len(items))
	for i, it := range items {
		it.Legs = slices.Clone(it.Legs)
		for j := range it.Legs {
			it.Legs[j].Carriers = slices.Clone(it.Legs[j].Carriers)
		}
		dup[i] = it
	}
	return dup
}
