package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rl1809/laventory/internal/core/domain"
	"github.com/rl1809/laventory/internal/port"
)

// LedgerService keeps the per-user item quantities in a DocumentStore.
// The store is the only source of truth: every mutation answers with a
// full re-read of the user's items.
//
// By default Add and Remove read the current quantity and write the new one
// in two separate calls. Two concurrent calls on the same item may both read
// the same quantity, in which case one of the updates is lost.
// WithAtomicUpdates switches to the store's atomic increment when available.
type LedgerService struct {
	store   port.DocumentStore
	counter port.CounterStore
	logger  *slog.Logger
}

type LedgerOption func(*LedgerService)

// WithAtomicUpdates makes Add and Remove use port.CounterStore when the
// store implements it. It is a no-op otherwise.
func WithAtomicUpdates() LedgerOption {
	return func(s *LedgerService) {
		if c, ok := s.store.(port.CounterStore); ok {
			s.counter = c
		}
	}
}

func WithLogger(logger *slog.Logger) LedgerOption {
	return func(s *LedgerService) {
		s.logger = logger
	}
}

func NewLedgerService(store port.DocumentStore, opts ...LedgerOption) *LedgerService {
	s := &LedgerService{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LedgerService) AtomicUpdates() bool {
	return s.counter != nil
}

func (s *LedgerService) List(ctx context.Context, id *domain.Identity) (domain.Snapshot, error) {
	const op = "list"
	if !id.SignedIn() {
		return nil, s.fail(ctx, "", newError(op, ErrUnauthenticated, nil))
	}
	return s.snapshot(ctx, op, id.UserID)
}

// Search lists the items whose name contains query, ignoring case.
func (s *LedgerService) Search(ctx context.Context, id *domain.Identity, query string) (domain.Snapshot, error) {
	snap, err := s.List(ctx, id)
	if err != nil {
		return nil, err
	}
	return snap.Filter(query), nil
}

// Add increments the item quantity by quantity, creating the item when it
// does not exist yet.
func (s *LedgerService) Add(ctx context.Context, id *domain.Identity, name string, quantity int) (domain.Snapshot, error) {
	const op = "add"
	if !id.SignedIn() {
		return nil, s.fail(ctx, "", newError(op, ErrUnauthenticated, nil))
	}
	userID := id.UserID

	name = domain.NormalizeName(name)
	if name == "" {
		return nil, s.fail(ctx, userID, newError(op, ErrInvalidInput, errors.New("item name is empty")))
	}
	if quantity < 1 {
		return nil, s.fail(ctx, userID, newError(op, ErrInvalidInput, fmt.Errorf("quantity %d is below 1", quantity)))
	}
	if quantity > domain.MaxQuantity {
		return nil, s.fail(ctx, userID, newError(op, ErrInvalidInput, fmt.Errorf("quantity %d is above %d", quantity, domain.MaxQuantity)))
	}

	if s.counter != nil {
		if _, err := s.counter.Increment(ctx, userID, name, quantity); err != nil {
			return nil, s.fail(ctx, userID, storeError(op, fmt.Errorf("increment %q: %w", name, err)))
		}
	} else {
		current, err := s.store.GetOne(ctx, userID, name)
		if err != nil {
			return nil, s.fail(ctx, userID, storeError(op, fmt.Errorf("get %q: %w", name, err)))
		}

		if current != nil && current.Quantity > domain.MaxQuantity-quantity {
			return nil, s.fail(ctx, userID, newError(op, ErrInvalidInput,
				fmt.Errorf("%q: %w: %d + %d", name, port.ErrQuantityOverflow, current.Quantity, quantity)))
		}

		if current != nil {
			err = s.store.Update(ctx, userID, domain.Item{Name: name, Quantity: current.Quantity + quantity})
		} else {
			err = s.store.Set(ctx, userID, domain.Item{Name: name, Quantity: quantity})
		}
		if err != nil {
			return nil, s.fail(ctx, userID, storeError(op, fmt.Errorf("write %q: %w", name, err)))
		}
	}

	s.logger.InfoContext(ctx, "item added", "user_id", userID, "item", name, "quantity", quantity)
	return s.snapshot(ctx, op, userID)
}

// Remove takes one unit of the item away and deletes the item when its
// last unit is removed.
func (s *LedgerService) Remove(ctx context.Context, id *domain.Identity, name string) (domain.Snapshot, error) {
	const op = "remove"
	if !id.SignedIn() {
		return nil, s.fail(ctx, "", newError(op, ErrUnauthenticated, nil))
	}
	userID := id.UserID

	name = domain.NormalizeName(name)
	if name == "" {
		return nil, s.fail(ctx, userID, newError(op, ErrInvalidInput, errors.New("item name is empty")))
	}

	if s.counter != nil {
		if _, err := s.counter.Increment(ctx, userID, name, -1); err != nil {
			return nil, s.fail(ctx, userID, storeError(op, fmt.Errorf("decrement %q: %w", name, err)))
		}
	} else {
		current, err := s.store.GetOne(ctx, userID, name)
		if err != nil {
			return nil, s.fail(ctx, userID, storeError(op, fmt.Errorf("get %q: %w", name, err)))
		}
		if current == nil {
			return nil, s.fail(ctx, userID, newError(op, ErrNotFound, fmt.Errorf("item %q", name)))
		}

		if current.Quantity <= 1 {
			err = s.store.Delete(ctx, userID, name)
		} else {
			err = s.store.Update(ctx, userID, domain.Item{Name: name, Quantity: current.Quantity - 1})
		}
		if err != nil {
			return nil, s.fail(ctx, userID, storeError(op, fmt.Errorf("write %q: %w", name, err)))
		}
	}

	s.logger.InfoContext(ctx, "item removed", "user_id", userID, "item", name)
	return s.snapshot(ctx, op, userID)
}

func (s *LedgerService) snapshot(ctx context.Context, op, userID string) (domain.Snapshot, error) {
	items, err := s.store.GetAll(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, userID, newError(op, ErrRemoteFailure, fmt.Errorf("get all: %w", err)))
	}
	return domain.NewSnapshot(items), nil
}

func (s *LedgerService) fail(ctx context.Context, userID string, err *Error) error {
	logFailure(ctx, s.logger, userID, err)
	return err
}

// storeError classifies a store failure: a document that vanished between
// the read and the write is a NotFound, an overflowing counter an
// InvalidInput, anything else a RemoteFailure.
func storeError(op string, err error) *Error {
	switch {
	case errors.Is(err, port.ErrDocumentNotFound):
		return newError(op, ErrNotFound, err)
	case errors.Is(err, port.ErrQuantityOverflow):
		return newError(op, ErrInvalidInput, err)
	default:
		return newError(op, ErrRemoteFailure, err)
	}
}
