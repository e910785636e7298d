// Package wishlist implements the per-session list of saved products.
package wishlist

import (
	"context"
	"sync"

	"github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/internal/storage"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// Item wraps the product snapshot taken when it was saved.
type Item struct {
	Product products.Product `json:"product"`
}

type document struct {
	Items []Item `json:"items"`
}

// Store owns one session's wishlist, unique by product id.
type Store struct {
	mu    sync.Mutex
	st    storage.Storage
	key   storage.Key
	items []Item
}

// Load restores the wishlist persisted for sessionID, or returns an empty one.
func Load(ctx context.Context, st storage.Storage, sessionID string) (*Store, error) {
	s := &Store{
		st:  st,
		key: storage.Key{Session: sessionID, Name: storage.DocWishlist},
	}
	var doc document
	found, err := storage.LoadJSON(ctx, st, s.key, &doc)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
	}
	if found {
		seen := make(map[string]struct{}, len(doc.Items))
		for _, item := range doc.Items {
			if _, dup := seen[item.Product.ID]; dup || item.Product.ID == "" {
				continue
			}
			seen[item.Product.ID] = struct{}{}
			s.items = append(s.items, item)
		}
	}
	return s, nil
}

// AddItem saves product unless its id is already present. It reports whether
// the wishlist changed.
func (s *Store) AddItem(ctx context.Context, product products.Product) (bool, error) {
	if err := product.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(product.ID) >= 0 {
		return false, nil
	}
	s.items = append(s.items, Item{Product: product})
	return true, s.persistLocked(ctx)
}

// RemoveItem drops the product; unknown ids are ignored.
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

// Product returns the saved snapshot for id.
func (s *Store) Product(id string) (products.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i].Product, true
	}
	return products.Product{}, false
}

func (s *Store) IsInWishlist(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) >= 0
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	return s.persistLocked(ctx)
}

// Items returns a copy in insertion order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item{}, s.items...)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].Product.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked(ctx context.Context) error {
	doc := document{Items: append([]Item{}, s.items...)}
	if err := storage.SaveJSON(ctx, s.st, s.key, doc); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist wishlist")
	}
	return nil
}
