// Package storage persists per-session storefront documents behind a pluggable adapter.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Load when no document exists for the key.
var ErrNotFound = errors.New("storage: key not found")

// Document names persisted per session.
const (
	DocCart     = "cart"
	DocWishlist = "wishlist"
	DocDiscount = "discount"
)

// Key addresses one document of one shopper session.
type Key struct {
	Session string
	Name    string
}

func (k Key) String() string {
	return k.Session + ":" + k.Name
}

func (k Key) validate() error {
	if strings.TrimSpace(k.Session) == "" {
		return errors.New("storage: session is required")
	}
	if strings.TrimSpace(k.Name) == "" {
		return errors.New("storage: document name is required")
	}
	return nil
}

// Storage is the persistence adapter used by the cart, wishlist and discount state.
type Storage interface {
	Load(ctx context.Context, key Key) ([]byte, error)
	Save(ctx context.Context, key Key, value []byte) error
	Delete(ctx context.Context, key Key) error
	Ping(ctx context.Context) error
}

// LoadJSON decodes the document at key into dst. It reports false when nothing is stored.
func LoadJSON(ctx context.Context, st Storage, key Key, dst any) (bool, error) {
	raw, err := st.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it at key.
func SaveJSON(ctx context.Context, st Storage, key Key, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return st.Save(ctx, key, raw)
}
