package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/laventory/internal/core/domain"
	"github.com/rl1809/laventory/internal/port"
)

const createInventoryTable = `
CREATE TABLE IF NOT EXISTS inventory_items (
	user_id    VARCHAR(128) NOT NULL,
	name       VARCHAR(255) COLLATE utf8mb4_bin NOT NULL,
	quantity   INT NOT NULL,
	version    INT NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, name)
) DEFAULT CHARSET = utf8mb4`

// MySQLAdapter keeps one row per (user, item). Every write bumps version, so
// an UPDATE always reports the row as affected when it exists.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, createInventoryTable); err != nil {
		return fmt.Errorf("create inventory table: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetAll(ctx context.Context, userID string) ([]domain.Item, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT name, quantity FROM inventory_items WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.Name, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

func (m *MySQLAdapter) GetOne(ctx context.Context, userID, name string) (*domain.Item, error) {
	item := domain.Item{Name: name}
	err := m.db.QueryRowContext(ctx, `
		SELECT quantity FROM inventory_items WHERE user_id = ? AND name = ?`, userID, name,
	).Scan(&item.Quantity)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return &item, nil
}

func (m *MySQLAdapter) Set(ctx context.Context, userID string, item domain.Item) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO inventory_items (user_id, name, quantity) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = VALUES(quantity), version = version + 1, updated_at = NOW()`,
		userID, item.Name, item.Quantity,
	)
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) Update(ctx context.Context, userID string, item domain.Item) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET quantity = ?, version = version + 1, updated_at = NOW()
		WHERE user_id = ? AND name = ?`,
		item.Quantity, userID, item.Name,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrDocumentNotFound
	}
	return nil
}

func (m *MySQLAdapter) Delete(ctx context.Context, userID, name string) error {
	_, err := m.db.ExecContext(ctx, `
		DELETE FROM inventory_items WHERE user_id = ? AND name = ?`, userID, name)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// Increment locks the row for the duration of the read and the write.
func (m *MySQLAdapter) Increment(ctx context.Context, userID, name string, delta int) (int, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRowContext(ctx, `
		SELECT quantity FROM inventory_items WHERE user_id = ? AND name = ? FOR UPDATE`, userID, name,
	).Scan(&current)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if delta <= 0 {
			return 0, port.ErrDocumentNotFound
		}
		if delta > domain.MaxQuantity {
			return 0, port.ErrQuantityOverflow
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO inventory_items (user_id, name, quantity) VALUES (?, ?, ?)`,
			userID, name, delta,
		)
		if err != nil {
			return 0, fmt.Errorf("insert item: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("lock item: %w", err)
	default:
		if current > domain.MaxQuantity-delta {
			return 0, port.ErrQuantityOverflow
		}
		if current+delta <= 0 {
			_, err = tx.ExecContext(ctx, `
				DELETE FROM inventory_items WHERE user_id = ? AND name = ?`, userID, name)
		} else {
			_, err = tx.ExecContext(ctx, `
				UPDATE inventory_items
				SET quantity = ?, version = version + 1, updated_at = NOW()
				WHERE user_id = ? AND name = ?`,
				current+delta, userID, name,
			)
		}
		if err != nil {
			return 0, fmt.Errorf("write item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return max(current+delta, 0), nil
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}
