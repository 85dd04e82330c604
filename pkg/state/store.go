// Package state holds the per-conversation record of the latest payload
// received for each tool.
package state

import (
	"sync"

	"github.com/chriscow/cinema-kiosk-go/pkg/tool"
)

// Entry is a recorded invocation together with its arrival order.
type Entry struct {
	Invocation tool.Invocation
	Seq        uint64
}

// Store is the single owner of session state. Recording overwrites the
// previous payload of the same tool; there is no deep merge.
type Store struct {
	mu     sync.RWMutex
	last   tool.Name
	byTool map[tool.Name]Entry
	seq    uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{byTool: make(map[tool.Name]Entry)}
}

// Record stores inv as the latest payload of its tool and marks it as the last tool.
func (s *Store) Record(inv tool.Invocation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.byTool[inv.Name] = Entry{Invocation: inv, Seq: s.seq}
	s.last = inv.Name
}

// Latest returns the most recent invocation of name.
func (s *Store) Latest(name tool.Name) (tool.Invocation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byTool[name]
	return e.Invocation, ok
}

// LastTool returns the most recently invoked tool, if any.
func (s *Store) LastTool() (tool.Name, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.last != ""
}

// Reset empties the store at a session boundary.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = ""
	s.byTool = make(map[tool.Name]Entry)
}

// Snapshot returns a consistent copy of the store.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make(map[tool.Name]Entry, len(s.byTool))
	for k, v := range s.byTool {
		entries[k] = v
	}
	return Snapshot{LastTool: s.last, entries: entries}
}

// Snapshot is an immutable view of the store. The zero value is an empty state.
type Snapshot struct {
	LastTool tool.Name
	entries  map[tool.Name]Entry
}

// Empty reports whether nothing has been recorded.
func (s Snapshot) Empty() bool {
	return len(s.entries) == 0
}

// Entry returns the recorded entry for name.
func (s Snapshot) Entry(name tool.Name) (Entry, bool) {
	e, ok := s.entries[name]
	return e, ok
}

// Payload returns the latest payload recorded for name typed as T.
func Payload[T any](s Snapshot, name tool.Name) (T, bool) {
	var zero T
	e, ok := s.entries[name]
	if !ok {
		return zero, false
	}
	p, ok := e.Invocation.Payload.(T)
	return p, ok
}

// Showtimes returns the latest show_cinemas_showtimes payload.
func (s Snapshot) Showtimes() (tool.Showtimes, bool) {
	return Payload[tool.Showtimes](s, tool.ShowCinemasShowtimes)
}

// Food returns the latest show_food_items payload.
func (s Snapshot) Food() (tool.FoodItems, bool) {
	return Payload[tool.FoodItems](s, tool.ShowFoodItems)
}

// Cart returns the latest update_cart payload.
func (s Snapshot) Cart() (tool.Cart, bool) {
	return Payload[tool.Cart](s, tool.UpdateCart)
}

// Selection returns the latest set_movie_selection payload.
func (s Snapshot) Selection() (tool.MovieSelection, bool) {
	return Payload[tool.MovieSelection](s, tool.SetMovieSelection)
}

// Trailer returns the latest play_movie_trailer payload.
func (s Snapshot) Trailer() (tool.Trailer, bool) {
	return Payload[tool.Trailer](s, tool.PlayMovieTrailer)
}
