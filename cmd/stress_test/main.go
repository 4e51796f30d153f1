package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/rl1809/laventory/internal/adapter/storage"
	"github.com/rl1809/laventory/internal/config"
	"github.com/rl1809/laventory/internal/core/domain"
	"github.com/rl1809/laventory/internal/core/service"
)

const itemName = "stress-test-item"

type result struct {
	mode      string
	requests  int
	success   int32
	failed    int32
	final     int
	elapsed   time.Duration
	lostCount int
}

func main() {
	requests := flag.Int("n", 50, "concurrent add requests per mode")
	flag.Parse()

	_ = godotenv.Load()
	var cfg config.Store
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "STORE_"}); err != nil {
		log.Fatalf("failed to parse store config: %v", err)
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	modes := []struct {
		name string
		opts []service.LedgerOption
	}{
		{"read-modify-write", []service.LedgerOption{service.WithLogger(quiet)}},
		{"atomic", []service.LedgerOption{service.WithLogger(quiet), service.WithAtomicUpdates()}},
	}

	for _, mode := range modes {
		ledger := service.NewLedgerService(store.Store, mode.opts...)
		if mode.name == "atomic" && !ledger.AtomicUpdates() {
			fmt.Printf("skipping atomic mode: %s store has no atomic increment\n", store.Backend)
			continue
		}
		res, err := run(ctx, ledger, mode.name, *requests)
		if err != nil {
			log.Fatalf("%s: %v", mode.name, err)
		}
		report(store.Backend, res)
	}
}

// run adds one unit of the same item from n goroutines at once, for a
// fresh user, and reads back the final quantity.
func run(ctx context.Context, ledger *service.LedgerService, mode string, n int) (result, error) {
	id := &domain.Identity{UserID: "stress-" + uuid.NewString()}

	var successCount atomic.Int32
	var failCount atomic.Int32

	var wg sync.WaitGroup
	start := make(chan struct{})
	begin := time.Now()

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := ledger.Add(ctx, id, itemName, 1); err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	elapsed := time.Since(begin)

	snap, err := ledger.List(ctx, id)
	if err != nil {
		return result{}, fmt.Errorf("read back: %w", err)
	}
	item, _ := snap.Get(itemName)

	// clean up the run's records
	for q := item.Quantity; q > 0; q-- {
		if _, err := ledger.Remove(ctx, id, itemName); err != nil {
			break
		}
	}

	success := successCount.Load()
	return result{
		mode:      mode,
		requests:  n,
		success:   success,
		failed:    failCount.Load(),
		final:     item.Quantity,
		elapsed:   elapsed,
		lostCount: int(success) - item.Quantity,
	}, nil
}

func report(backend string, r result) {
	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Backend:          %s\n", backend)
	fmt.Printf("Mode:             %s\n", r.mode)
	fmt.Printf("Total Requests:   %d\n", r.requests)
	fmt.Printf("Successful:       %d\n", r.success)
	fmt.Printf("Failed:           %d\n", r.failed)
	fmt.Printf("Final Quantity:   %d\n", r.final)
	fmt.Printf("Duration:         %v\n", r.elapsed)
	fmt.Println("==========================================")

	if r.lostCount == 0 {
		fmt.Printf("PASS: all %d successful adds are counted\n", r.success)
	} else {
		fmt.Printf("LOST UPDATES: %d of %d successful adds were overwritten\n", r.lostCount, r.success)
	}
}
