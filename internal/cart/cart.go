// Package cart is the single source of truth for the items the user
// intends to purchase. The store is a session-scoped singleton; display
// components and the checkout machine read it, only its own operations
// mutate it.
package cart

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/mlefevre/storefront/internal/metrics"
	"github.com/mlefevre/storefront/internal/models"
	"github.com/mlefevre/storefront/internal/storage"
)

type Store struct {
	mu    sync.Mutex
	lines []models.CartLine
	state storage.Store
	log   *slog.Logger
}

// NewStore restores the persisted cart. A corrupted persisted record is
// discarded and treated as "no cart"; restoration never fails.
func NewStore(state storage.Store, log *slog.Logger) *Store {
	s := &Store{state: state, log: log}

	raw, ok := state.Get(storage.KeyCart)
	if !ok {
		return s
	}

	var lines []models.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		log.Warn("discarding corrupted persisted cart", slog.String("error", err.Error()))

		return s
	}

	s.lines = lines

	return s
}

// Add appends a line built from the product, capturing its price as
// displayed at add time. Adding the same product twice yields two lines.
func (s *Store) Add(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = append(s.lines, models.NewCartLine(p))
	s.persistLocked()
	metrics.CountCartMutation("add")
}

// Remove drops the line at index. A stale index from a re-render race is
// a no-op, never an error.
func (s *Store) Remove(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.lines) {
		s.log.Debug("ignoring stale cart index", slog.Int("index", index), slog.Int("len", len(s.lines)))

		return
	}

	s.lines = append(s.lines[:index], s.lines[index+1:]...)
	s.persistLocked()
	metrics.CountCartMutation("remove")
}

// Clear empties the cart and erases the persisted copy.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil

	if err := s.state.Delete(storage.KeyCart); err != nil {
		s.log.Warn("failed to erase persisted cart", slog.String("error", err.Error()))
	}

	metrics.CountCartMutation("clear")
}

// Items returns a snapshot copy; callers never see internal slices.
func (s *Store) Items() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]models.CartLine, len(s.lines))
	copy(items, s.lines)

	return items
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.lines)
}

// Total sums the unrounded unit prices. Two-decimal rounding is applied
// only at the display boundary, not here.
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total float64
	for _, line := range s.lines {
		total += line.UnitPrice
	}

	return total
}

// persistLocked writes the cart after every successful mutation. The
// write is best-effort: on failure the in-memory cart stays valid.
func (s *Store) persistLocked() {
	raw, err := json.Marshal(s.lines)
	if err != nil {
		s.log.Warn("failed to encode cart", slog.String("error", err.Error()))

		return
	}

	if err := s.state.Set(storage.KeyCart, string(raw)); err != nil {
		s.log.Warn("failed to persist cart", slog.String("error", err.Error()))
	}
}
