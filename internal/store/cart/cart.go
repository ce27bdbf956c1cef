// Package cart holds the local cart: the source of truth for the item list
// an order is created from. The store is injected wherever it is needed
// rather than living as a process-wide singleton.
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/domain"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/kv"
)

const storageKey = "cart/items"

// Store is a mutex-guarded cart persisted through the key/value store.
// kv may be nil — persistence is skipped in that case (tests).
type Store struct {
	mu    sync.Mutex
	kv    *kv.Store
	items []domain.CartItem
}

// New builds a cart store, loading any persisted contents.
func New(ctx context.Context, store *kv.Store) (*Store, error) {
	s := &Store{kv: store}
	if store != nil {
		if _, err := store.Get(ctx, storageKey, &s.items); err != nil {
			return nil, fmt.Errorf("cart: load: %w", err)
		}
	}
	return s, nil
}

// Add inserts an item or, when the dish is already present, merges the
// quantity into the existing line. A non-positive quantity counts as 1.
func (s *Store) Add(ctx context.Context, item domain.CartItem) error {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == item.ID {
			s.items[i].Quantity += item.Quantity
			return s.persist(ctx)
		}
	}
	s.items = append(s.items, item)
	return s.persist(ctx)
}

// Remove drops the line for the given dish id.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(ctx, id)
}

// UpdateQuantity sets the quantity for a line. A quantity of zero (or less)
// removes the line entirely — no zero-quantity entries are ever stored.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return s.removeLocked(ctx, id)
	}
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Quantity = quantity
			return s.persist(ctx)
		}
	}
	return fmt.Errorf("cart: item %q not found", id)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return s.persist(ctx)
}

// Items returns a copy of the current lines.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Len reports the number of lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// TotalAmount is the sum of line subtotals.
func (s *Store) TotalAmount() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, it := range s.items {
		total += it.Subtotal()
	}
	return total
}

// Snapshot returns a copy of the cart for later Restore. Checkout takes one
// before clearing so a failed saga can put the cart back.
func (s *Store) Snapshot() []domain.CartItem {
	return s.Items()
}

// Restore replaces the cart contents with a previously taken snapshot.
func (s *Store) Restore(ctx context.Context, items []domain.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make([]domain.CartItem, len(items))
	copy(s.items, items)
	return s.persist(ctx)
}

// OrderItems maps the cart lines into the order payload shape.
func (s *Store) OrderItems() []domain.OrderItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.OrderItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it.ToOrderItem())
	}
	return out
}

func (s *Store) removeLocked(ctx context.Context, id string) error {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return s.persist(ctx)
		}
	}
	return nil
}

func (s *Store) persist(ctx context.Context) error {
	if s.kv == nil {
		return nil
	}
	if err := s.kv.Put(ctx, storageKey, s.items); err != nil {
		return fmt.Errorf("cart: persist: %w", err)
	}
	return nil
}
