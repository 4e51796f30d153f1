package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/laventory/internal/config"
	"github.com/rl1809/laventory/internal/port"
)

var (
	_ port.DocumentStore    = (*MemoryStore)(nil)
	_ port.CounterStore     = (*MemoryStore)(nil)
	_ port.IdempotencyStore = (*MemoryStore)(nil)
	_ port.DocumentStore    = (*RedisAdapter)(nil)
	_ port.CounterStore     = (*RedisAdapter)(nil)
	_ port.IdempotencyStore = (*RedisAdapter)(nil)
	_ port.DocumentStore    = (*MySQLAdapter)(nil)
	_ port.CounterStore     = (*MySQLAdapter)(nil)
	_ port.DocumentStore    = (*SQLiteAdapter)(nil)
	_ port.CounterStore     = (*SQLiteAdapter)(nil)
)

// Handle is an opened store together with the connections it owns.
type Handle struct {
	Backend string
	Store   port.DocumentStore
	// Idempotency is nil when the backend cannot deduplicate requests.
	Idempotency port.IdempotencyStore
	closers     []func() error
}

func (h *Handle) Close() error {
	var firstErr error
	for _, c := range h.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Open connects to the configured backend and checks it is reachable.
func Open(ctx context.Context, cfg config.Store) (*Handle, error) {
	h := &Handle{Backend: cfg.Backend}

	switch cfg.Backend {
	case config.BackendMemory:
		mem := NewMemoryStore()
		h.Store, h.Idempotency = mem, mem

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: cfg.RedisPoolSize,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		adapter := NewRedisAdapter(rdb)
		h.Store, h.Idempotency = adapter, adapter
		h.closers = append(h.closers, rdb.Close)

	case config.BackendMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping mysql: %w", err)
		}
		adapter := NewMySQLAdapter(db)
		if err := adapter.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		h.Store = adapter
		h.closers = append(h.closers, db.Close)

	case config.BackendSQLite:
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		adapter, err := NewSQLiteAdapter(db)
		if err != nil {
			closeGorm(db)
			return nil, err
		}
		h.Store = adapter
		h.closers = append(h.closers, adapter.Close)

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	return h, nil
}
