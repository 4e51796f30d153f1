package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/rl1809/laventory/internal/core/domain"
	"github.com/rl1809/laventory/internal/port"
)

// testDocumentStore runs the behaviour every DocumentStore backend shares.
func testDocumentStore(t *testing.T, store port.DocumentStore, cleanup func(userID string)) {
	newUser := func(t *testing.T) string {
		userID := "test-" + uuid.NewString()
		if cleanup != nil {
			t.Cleanup(func() { cleanup(userID) })
		}
		return userID
	}
	ctx := context.Background()

	t.Run("GetOneMissing", func(t *testing.T) {
		item, err := store.GetOne(ctx, newUser(t), "nothing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if item != nil {
			t.Errorf("expected nil for missing item, got %+v", item)
		}
	})

	t.Run("SetAndGetAll", func(t *testing.T) {
		userID := newUser(t)
		mustSet(t, store, userID, "apples", 3)
		mustSet(t, store, userID, "bread", 1)
		mustSet(t, store, userID, "apples", 4)

		want := []domain.Item{{Name: "apples", Quantity: 4}, {Name: "bread", Quantity: 1}}
		if diff := cmp.Diff(want, getAll(t, store, userID)); diff != "" {
			t.Errorf("items mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Update", func(t *testing.T) {
		userID := newUser(t)
		mustSet(t, store, userID, "eggs", 6)

		if err := store.Update(ctx, userID, domain.Item{Name: "eggs", Quantity: 5}); err != nil {
			t.Fatalf("update failed: %v", err)
		}
		item, err := store.GetOne(ctx, userID, "eggs")
		if err != nil || item == nil || item.Quantity != 5 {
			t.Errorf("expected eggs=5, got %+v (err=%v)", item, err)
		}

		err = store.Update(ctx, userID, domain.Item{Name: "milk", Quantity: 1})
		if !errors.Is(err, port.ErrDocumentNotFound) {
			t.Errorf("expected ErrDocumentNotFound, got: %v", err)
		}
		if item, _ := store.GetOne(ctx, userID, "milk"); item != nil {
			t.Error("update must not create items")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		userID := newUser(t)
		mustSet(t, store, userID, "eggs", 1)

		if err := store.Delete(ctx, userID, "eggs"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if err := store.Delete(ctx, userID, "eggs"); err != nil {
			t.Errorf("deleting a missing item must not fail: %v", err)
		}
		if items := getAll(t, store, userID); len(items) != 0 {
			t.Errorf("expected no items, got %v", items)
		}
	})

	t.Run("ScopedByUserAndCaseSensitive", func(t *testing.T) {
		alice, bob := newUser(t), newUser(t)
		mustSet(t, store, alice, "Tea", 1)
		mustSet(t, store, alice, "tea", 2)
		mustSet(t, store, bob, "coffee", 3)

		want := []domain.Item{{Name: "Tea", Quantity: 1}, {Name: "tea", Quantity: 2}}
		if diff := cmp.Diff(want, getAll(t, store, alice)); diff != "" {
			t.Errorf("alice items mismatch (-want +got):\n%s", diff)
		}
		if item, _ := store.GetOne(ctx, bob, "Tea"); item != nil {
			t.Error("bob must not see alice's items")
		}
	})

	if err := store.Ping(ctx); err != nil {
		t.Errorf("ping failed: %v", err)
	}

	counter, ok := store.(port.CounterStore)
	if !ok {
		return
	}

	t.Run("IncrementCreatesAndAccumulates", func(t *testing.T) {
		userID := newUser(t)

		got, err := counter.Increment(ctx, userID, "rice", 2)
		if err != nil || got != 2 {
			t.Fatalf("expected 2, got %d (err=%v)", got, err)
		}
		got, err = counter.Increment(ctx, userID, "rice", 3)
		if err != nil || got != 5 {
			t.Fatalf("expected 5, got %d (err=%v)", got, err)
		}
	})

	t.Run("DecrementDeletesAtZero", func(t *testing.T) {
		userID := newUser(t)
		mustSet(t, store, userID, "rice", 2)

		if got, err := counter.Increment(ctx, userID, "rice", -1); err != nil || got != 1 {
			t.Fatalf("expected 1, got %d (err=%v)", got, err)
		}
		if got, err := counter.Increment(ctx, userID, "rice", -1); err != nil || got != 0 {
			t.Fatalf("expected 0, got %d (err=%v)", got, err)
		}
		if item, _ := store.GetOne(ctx, userID, "rice"); item != nil {
			t.Errorf("expected rice to be deleted, got %+v", item)
		}
	})

	t.Run("DecrementMissing", func(t *testing.T) {
		userID := newUser(t)

		_, err := counter.Increment(ctx, userID, "rice", -1)
		if !errors.Is(err, port.ErrDocumentNotFound) {
			t.Errorf("expected ErrDocumentNotFound, got: %v", err)
		}
		if items := getAll(t, store, userID); len(items) != 0 {
			t.Errorf("expected no items, got %v", items)
		}
	})

	t.Run("IncrementRejectsOverflow", func(t *testing.T) {
		userID := newUser(t)
		mustSet(t, store, userID, "rice", domain.MaxQuantity-1)

		_, err := counter.Increment(ctx, userID, "rice", 2)
		if !errors.Is(err, port.ErrQuantityOverflow) {
			t.Fatalf("expected ErrQuantityOverflow, got: %v", err)
		}
		if item, _ := store.GetOne(ctx, userID, "rice"); item == nil || item.Quantity != domain.MaxQuantity-1 {
			t.Errorf("expected rice unchanged, got %+v", item)
		}

		if _, err := counter.Increment(ctx, userID, "beans", domain.MaxQuantity+1); !errors.Is(err, port.ErrQuantityOverflow) {
			t.Errorf("expected ErrQuantityOverflow for a new item, got: %v", err)
		}
		if item, _ := store.GetOne(ctx, userID, "beans"); item != nil {
			t.Errorf("expected beans not to be created, got %+v", item)
		}

		if got, err := counter.Increment(ctx, userID, "rice", 1); err != nil || got != domain.MaxQuantity {
			t.Errorf("expected MaxQuantity, got %d (err=%v)", got, err)
		}
	})

	t.Run("ConcurrentIncrement", func(t *testing.T) {
		userID := newUser(t)
		totalRequests := 50

		var wg sync.WaitGroup
		for i := 0; i < totalRequests; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := counter.Increment(ctx, userID, "apples", 1); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		item, err := store.GetOne(ctx, userID, "apples")
		if err != nil || item == nil || item.Quantity != totalRequests {
			t.Errorf("expected apples=%d, got %+v (err=%v)", totalRequests, item, err)
		}
	})
}

func mustSet(t *testing.T, store port.DocumentStore, userID, name string, quantity int) {
	t.Helper()
	if err := store.Set(context.Background(), userID, domain.Item{Name: name, Quantity: quantity}); err != nil {
		t.Fatalf("set %s failed: %v", name, err)
	}
}

func getAll(t *testing.T, store port.DocumentStore, userID string) []domain.Item {
	t.Helper()
	items, err := store.GetAll(context.Background(), userID)
	if err != nil {
		t.Fatalf("get all failed: %v", err)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}
