package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/rl1809/laventory/internal/core/domain"
	"github.com/rl1809/laventory/internal/port"
)

type InventoryRecord struct {
	UserID    string `gorm:"primaryKey;size:128"`
	Name      string `gorm:"primaryKey;size:255"`
	Quantity  int    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (InventoryRecord) TableName() string {
	return "inventory_items"
}

// SQLiteAdapter is an embedded store backed by gorm and sqlite.
type SQLiteAdapter struct {
	db *gorm.DB
}

func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		if db != nil {
			closeGorm(db)
		}
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite serialises writers anyway, a single connection avoids SQLITE_BUSY
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

func NewSQLiteAdapter(db *gorm.DB) (*SQLiteAdapter, error) {
	if err := db.AutoMigrate(&InventoryRecord{}); err != nil {
		return nil, fmt.Errorf("migrate inventory: %w", err)
	}
	return &SQLiteAdapter{db: db}, nil
}

func (s *SQLiteAdapter) GetAll(ctx context.Context, userID string) ([]domain.Item, error) {
	var records []InventoryRecord
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}

	items := make([]domain.Item, len(records))
	for i, rec := range records {
		items[i] = domain.Item{Name: rec.Name, Quantity: rec.Quantity}
	}
	return items, nil
}

func (s *SQLiteAdapter) GetOne(ctx context.Context, userID, name string) (*domain.Item, error) {
	rec, err := findRecord(s.db.WithContext(ctx), userID, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find item: %w", err)
	}
	return &domain.Item{Name: rec.Name, Quantity: rec.Quantity}, nil
}

func (s *SQLiteAdapter) Set(ctx context.Context, userID string, item domain.Item) error {
	rec := InventoryRecord{UserID: userID, Name: item.Name, Quantity: item.Quantity}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

func (s *SQLiteAdapter) Update(ctx context.Context, userID string, item domain.Item) error {
	result := s.db.WithContext(ctx).Model(&InventoryRecord{}).
		Where("user_id = ? AND name = ?", userID, item.Name).
		Updates(map[string]interface{}{"quantity": item.Quantity, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("update item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return port.ErrDocumentNotFound
	}
	return nil
}

func (s *SQLiteAdapter) Delete(ctx context.Context, userID, name string) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, name).
		Delete(&InventoryRecord{}).Error
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func (s *SQLiteAdapter) Increment(ctx context.Context, userID, name string, delta int) (int, error) {
	var updated int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if delta > 0 {
			rec, err := findRecord(tx, userID, name)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if delta > domain.MaxQuantity {
					return port.ErrQuantityOverflow
				}
			case err != nil:
				return fmt.Errorf("find item: %w", err)
			case rec.Quantity > domain.MaxQuantity-delta:
				return port.ErrQuantityOverflow
			}

			err = tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}, {Name: "name"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"quantity":   gorm.Expr("inventory_items.quantity + ?", delta),
					"updated_at": time.Now(),
				}),
			}).Create(&InventoryRecord{UserID: userID, Name: name, Quantity: delta}).Error
			if err != nil {
				return fmt.Errorf("upsert item: %w", err)
			}

			rec, err = findRecord(tx, userID, name)
			if err != nil {
				return fmt.Errorf("reload item: %w", err)
			}
			updated = rec.Quantity
			return nil
		}

		rec, err := findRecord(tx, userID, name)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return port.ErrDocumentNotFound
		}
		if err != nil {
			return fmt.Errorf("find item: %w", err)
		}

		updated = rec.Quantity + delta
		if updated <= 0 {
			updated = 0
			return tx.Where("user_id = ? AND name = ?", userID, name).Delete(&InventoryRecord{}).Error
		}
		return tx.Model(&InventoryRecord{}).
			Where("user_id = ? AND name = ?", userID, name).
			Updates(map[string]interface{}{"quantity": updated, "updated_at": time.Now()}).Error
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

func (s *SQLiteAdapter) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLiteAdapter) Close() error {
	return closeGorm(s.db)
}

func closeGorm(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func findRecord(db *gorm.DB, userID, name string) (InventoryRecord, error) {
	var rec InventoryRecord
	err := db.Where("user_id = ? AND name = ?", userID, name).Take(&rec).Error
	return rec, err
}
