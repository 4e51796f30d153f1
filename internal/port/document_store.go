package port

import (
	"context"
	"errors"

	"github.com/rl1809/laventory/internal/core/domain"
)

// DocumentStore is a collection of item documents keyed by user, then item name.
type DocumentStore interface {
	// GetAll returns every item of the user, in no particular order
	GetAll(ctx context.Context, userID string) ([]domain.Item, error)

	// GetOne returns nil, nil when the item does not exist
	GetOne(ctx context.Context, userID, name string) (*domain.Item, error)

	// Set creates or overwrites the item
	Set(ctx context.Context, userID string, item domain.Item) error

	// Update overwrites an existing item, fails when the item does not exist
	Update(ctx context.Context, userID string, item domain.Item) error

	// Delete removes the item, deleting a missing item is not an error
	Delete(ctx context.Context, userID, name string) error

	Ping(ctx context.Context) error
}

// CounterStore is implemented by stores able to change a quantity atomically.
type CounterStore interface {
	// Increment adds delta to the item quantity and returns the new quantity.
	// The item is created when missing and delta is positive, and deleted when
	// the new quantity drops to zero or below. A result above
	// domain.MaxQuantity fails with ErrQuantityOverflow and changes nothing.
	Increment(ctx context.Context, userID, name string, delta int) (int, error)
}

// IdempotencyStore remembers request keys for deduplication.
type IdempotencyStore interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)
	// ReleaseIdempotency forgets a key so a failed request can be retried.
	ReleaseIdempotency(ctx context.Context, key string) error
}

// ErrDocumentNotFound is returned by stores when an item must exist but does not.
var ErrDocumentNotFound = errors.New("document not found")

// ErrQuantityOverflow is returned by counters when an increment would exceed
// domain.MaxQuantity.
var ErrQuantityOverflow = errors.New("quantity overflow")
