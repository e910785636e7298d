package storage

import (
	"context"
	"errors"

	"github.com/angelmondragon/storefront/pkg/metrics"
)

// Instrumented counts every operation of the wrapped driver.
type Instrumented struct {
	next    Storage
	driver  string
	metrics *metrics.StorageMetrics
}

func WithMetrics(next Storage, driver string, m *metrics.StorageMetrics) *Instrumented {
	return &Instrumented{next: next, driver: driver, metrics: m}
}

func (i *Instrumented) Load(ctx context.Context, key Key) ([]byte, error) {
	raw, err := i.next.Load(ctx, key)
	// a missing document is a normal outcome, not a failure
	if errors.Is(err, ErrNotFound) {
		i.metrics.Observe(i.driver, "load", nil)
	} else {
		i.metrics.Observe(i.driver, "load", err)
	}
	return raw, err
}

func (i *Instrumented) Save(ctx context.Context, key Key, value []byte) error {
	err := i.next.Save(ctx, key, value)
	i.metrics.Observe(i.driver, "save", err)
	return err
}

func (i *Instrumented) Delete(ctx context.Context, key Key) error {
	err := i.next.Delete(ctx, key)
	i.metrics.Observe(i.driver, "delete", err)
	return err
}

func (i *Instrumented) Ping(ctx context.Context) error {
	return i.next.Ping(ctx)
}
