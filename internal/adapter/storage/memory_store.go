package storage

import (
	"context"
	"sync"
	"time"

	"github.com/rl1809/laventory/internal/core/domain"
	"github.com/rl1809/laventory/internal/port"
)

// MemoryStore keeps documents in process memory. It backs development runs
// and tests.
type MemoryStore struct {
	mu          sync.Mutex
	items       map[string]map[string]int
	idempotency map[string]time.Time
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:       make(map[string]map[string]int),
		idempotency: make(map[string]time.Time),
		now:         time.Now,
	}
}

func (m *MemoryStore) GetAll(ctx context.Context, userID string) ([]domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]domain.Item, 0, len(m.items[userID]))
	for name, quantity := range m.items[userID] {
		items = append(items, domain.Item{Name: name, Quantity: quantity})
	}
	return items, nil
}

func (m *MemoryStore) GetOne(ctx context.Context, userID, name string) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	quantity, ok := m.items[userID][name]
	if !ok {
		return nil, nil
	}
	return &domain.Item{Name: name, Quantity: quantity}, nil
}

func (m *MemoryStore) Set(ctx context.Context, userID string, item domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.collection(userID)[item.Name] = item.Quantity
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, userID string, item domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[userID][item.Name]; !ok {
		return port.ErrDocumentNotFound
	}
	m.items[userID][item.Name] = item.Quantity
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, userID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items[userID], name)
	return nil
}

func (m *MemoryStore) Increment(ctx context.Context, userID, name string, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.items[userID][name]
	if !ok && delta <= 0 {
		return 0, port.ErrDocumentNotFound
	}
	if current > domain.MaxQuantity-delta {
		return 0, port.ErrQuantityOverflow
	}

	updated := current + delta
	if updated <= 0 {
		delete(m.items[userID], name)
		return 0, nil
	}
	m.collection(userID)[name] = updated
	return updated, nil
}

func (m *MemoryStore) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if expires, ok := m.idempotency[key]; ok && now.Before(expires) {
		return false, nil
	}
	m.idempotency[key] = now.Add(idempotencyKeyTTL)
	return true, nil
}

func (m *MemoryStore) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.idempotency, key)
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStore) collection(userID string) map[string]int {
	c, ok := m.items[userID]
	if !ok {
		c = make(map[string]int)
		m.items[userID] = c
	}
	return c
}
