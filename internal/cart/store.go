// Package cart implements the per-session shopping cart.
package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/angelmondragon/storefront/internal/storage"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/money"
)

// Snapshot is a consistent read of the cart.
type Snapshot struct {
	Items         []Item      `json:"items"`
	TotalQuantity int         `json:"totalQuantity"`
	TotalPrice    money.Money `json:"totalPrice"`
}

// Store owns one session's cart lines. All methods are safe for concurrent use.
//
// In-memory state is authoritative: when persisting a mutation fails the mutation
// is kept and a CodeDependency error is returned.
type Store struct {
	mu    sync.Mutex
	st    storage.Storage
	key   storage.Key
	items []Item
}

// Load restores the cart persisted for sessionID, or returns an empty cart.
func Load(ctx context.Context, st storage.Storage, sessionID string) (*Store, error) {
	s := &Store{
		st:  st,
		key: storage.Key{Session: sessionID, Name: storage.DocCart},
	}
	var doc Snapshot
	found, err := storage.LoadJSON(ctx, st, s.key, &doc)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if found {
		s.items = normalize(doc.Items)
	}
	return s, nil
}

// normalize drops malformed or out-of-bounds lines and merges duplicate ids from
// older documents. Merged quantities are capped at MaxQuantity.
func normalize(in []Item) []Item {
	out := make([]Item, 0, len(in))
	index := make(map[string]int, len(in))
	for _, item := range in {
		if item.validate() != nil || item.Quantity < 1 || item.Quantity > MaxQuantity {
			continue
		}
		if i, ok := index[item.ID]; ok {
			out[i].Quantity = min(out[i].Quantity+item.Quantity, MaxQuantity)
			continue
		}
		index[item.ID] = len(out)
		out = append(out, item)
	}
	kept := out[:0]
	var sum money.Money
	for _, item := range out {
		line, err := item.LineTotal()
		if err != nil {
			continue
		}
		next, err := sum.Add(line)
		if err != nil {
			continue
		}
		sum = next
		kept = append(kept, item)
	}
	return kept
}

// AddItem adds quantity units of item. An existing line with the same id keeps its
// snapshot and only grows; quantities below 1 count as 1. A line may not grow past
// MaxQuantity and the cart total may not pass money.MaxAmount.
func (s *Store) AddItem(ctx context.Context, item Item, quantity int) error {
	if err := item.validate(); err != nil {
		return err
	}
	if quantity < 1 {
		quantity = 1
	}
	if quantity > MaxQuantity {
		return quantityError(item.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append([]Item(nil), s.items...)
	if i := s.indexOf(item.ID); i >= 0 {
		if next[i].Quantity > MaxQuantity-quantity {
			return quantityError(item.ID)
		}
		next[i].Quantity += quantity
	} else {
		item.Quantity = quantity
		next = append(next, item)
	}
	return s.commitLocked(ctx, next)
}

// RemoveItem deletes the line regardless of quantity. Unknown ids are ignored.
func (s *Store) RemoveItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return s.persistLocked(ctx)
}

// Increase adds one unit to an existing line.
func (s *Store) Increase(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	if s.items[i].Quantity >= MaxQuantity {
		return quantityError(id)
	}
	next := append([]Item(nil), s.items...)
	next[i].Quantity++
	return s.commitLocked(ctx, next)
}

// Decrease removes one unit but never drops a line below 1; use RemoveItem or
// SetQuantity(0) to delete it.
func (s *Store) Decrease(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 || s.items[i].Quantity <= 1 {
		return nil
	}
	s.items[i].Quantity--
	return s.persistLocked(ctx)
}

// SetQuantity sets an existing line to n units; n <= 0 removes the line.
func (s *Store) SetQuantity(ctx context.Context, id string, n int) error {
	if n > MaxQuantity {
		return quantityError(id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	if n <= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
		return s.persistLocked(ctx)
	}
	next := append([]Item(nil), s.items...)
	next[i].Quantity = n
	return s.commitLocked(ctx, next)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	return s.persistLocked(ctx)
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item(nil), s.items...)
}

// Item returns the line for id.
func (s *Store) Item(id string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return Item{}, false
}

func (s *Store) TotalQuantity() int {
	return s.Snapshot().TotalQuantity
}

func (s *Store) TotalPrice() money.Money {
	return s.Snapshot().TotalPrice
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Items: append([]Item{}, s.items...)}
	for _, item := range s.items {
		snap.TotalQuantity += item.Quantity
	}
	// commitLocked and normalize keep the total in range.
	snap.TotalPrice, _ = total(s.items)
	return snap
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// commitLocked swaps in next once its total is known to fit, then persists.
func (s *Store) commitLocked(ctx context.Context, next []Item) error {
	if _, err := total(next); err != nil {
		if errors.Is(err, money.ErrOutOfRange) {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart total must not exceed "+money.MaxAmount.Display())
		}
		return err
	}
	s.items = next
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	if err := storage.SaveJSON(ctx, s.st, s.key, s.snapshotLocked()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	return nil
}
