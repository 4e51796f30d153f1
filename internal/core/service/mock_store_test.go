package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/rl1809/laventory/internal/core/domain"
	"github.com/rl1809/laventory/internal/port"
)

// Mock DocumentStore
type mockStore struct {
	mu     sync.Mutex
	items  map[string]map[string]int
	errs   map[string]error
	writes int
}

func newMockStore() *mockStore {
	return &mockStore{
		items: make(map[string]map[string]int),
		errs:  make(map[string]error),
	}
}

func (m *mockStore) seed(userID, name string, quantity int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items[userID] == nil {
		m.items[userID] = make(map[string]int)
	}
	m.items[userID][name] = quantity
}

func (m *mockStore) quantity(userID, name string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.items[userID][name]
	return q, ok
}

func (m *mockStore) failOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[method] = err
}

func (m *mockStore) GetAll(ctx context.Context, userID string) ([]domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["GetAll"]; err != nil {
		return nil, err
	}

	var items []domain.Item
	for name, q := range m.items[userID] {
		items = append(items, domain.Item{Name: name, Quantity: q})
	}
	return items, nil
}

func (m *mockStore) GetOne(ctx context.Context, userID, name string) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["GetOne"]; err != nil {
		return nil, err
	}

	q, ok := m.items[userID][name]
	if !ok {
		return nil, nil
	}
	return &domain.Item{Name: name, Quantity: q}, nil
}

func (m *mockStore) Set(ctx context.Context, userID string, item domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["Set"]; err != nil {
		return err
	}

	if m.items[userID] == nil {
		m.items[userID] = make(map[string]int)
	}
	m.items[userID][item.Name] = item.Quantity
	m.writes++
	return nil
}

func (m *mockStore) Update(ctx context.Context, userID string, item domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["Update"]; err != nil {
		return err
	}

	if _, ok := m.items[userID][item.Name]; !ok {
		return port.ErrDocumentNotFound
	}
	m.items[userID][item.Name] = item.Quantity
	m.writes++
	return nil
}

func (m *mockStore) Delete(ctx context.Context, userID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["Delete"]; err != nil {
		return err
	}

	delete(m.items[userID], name)
	m.writes++
	return nil
}

func (m *mockStore) Ping(ctx context.Context) error {
	return nil
}

// Mock store with an atomic counter
type mockCounterStore struct {
	*mockStore
}

func (m mockCounterStore) Increment(ctx context.Context, userID, name string, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["Increment"]; err != nil {
		return 0, err
	}

	q, ok := m.items[userID][name]
	if !ok && delta < 0 {
		return 0, port.ErrDocumentNotFound
	}
	if q > domain.MaxQuantity-delta {
		return 0, port.ErrQuantityOverflow
	}
	q += delta
	if m.items[userID] == nil {
		m.items[userID] = make(map[string]int)
	}
	if q <= 0 {
		delete(m.items[userID], name)
		q = 0
	} else {
		m.items[userID][name] = q
	}
	m.writes++
	return q, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var alice = &domain.Identity{UserID: "alice", Email: "alice@example.com"}
