// Package location caches the coordinates and formatted address the user
// selected on the map or via search. Checkout reads it as the delivery
// address source before falling back to the profile address.
package location

import (
	"context"
	"fmt"
	"sync"

	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/domain"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/kv"
)

const storageKey = "location/selected"

// Selected is the currently chosen point plus its human-readable form.
type Selected struct {
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Formatted string          `json:"formatted"`
	Address   *domain.Address `json:"address,omitempty"`
}

// Store persists the selection across restarts. kv may be nil (tests).
type Store struct {
	mu       sync.RWMutex
	kv       *kv.Store
	selected *Selected
}

func New(ctx context.Context, store *kv.Store) (*Store, error) {
	s := &Store{kv: store}
	if store != nil {
		var sel Selected
		ok, err := store.Get(ctx, storageKey, &sel)
		if err != nil {
			return nil, fmt.Errorf("location: load: %w", err)
		}
		if ok {
			s.selected = &sel
		}
	}
	return s, nil
}

// Set replaces the selection.
func (s *Store) Set(ctx context.Context, sel Selected) error {
	s.mu.Lock()
	s.selected = &sel
	s.mu.Unlock()
	if s.kv == nil {
		return nil
	}
	return s.kv.Put(ctx, storageKey, sel)
}

// Selected returns the current selection, nil when none was made.
func (s *Store) Selected() *Selected {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Address returns the selection as a backend address, nil when unset.
func (s *Store) Address() *domain.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	if s.selected.Address != nil {
		return s.selected.Address
	}
	return &domain.Address{
		Title:     "Position actuelle",
		Address:   s.selected.Formatted,
		Latitude:  s.selected.Latitude,
		Longitude: s.selected.Longitude,
	}
}

// Clear forgets the selection.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
	if s.kv == nil {
		return nil
	}
	return s.kv.Delete(ctx, storageKey)
}
