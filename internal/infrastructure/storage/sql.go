package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trendstep/storefront/internal/domain/cart"
)

// CartEntry is one persisted cart blob in the cart_entries table
type CartEntry struct {
	Key       string    `gorm:"column:cart_key;primaryKey;size:191"`
	Payload   string    `gorm:"column:payload;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName implements gorm's tabler
func (CartEntry) TableName() string {
	return "cart_entries"
}

// SQLStore keeps carts in a relational table through gorm (sqlite or postgres)
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSQLStore wraps a gorm handle. The table is created by migrations for
// postgres; call AutoMigrate for sqlite.
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

// AutoMigrate creates the cart_entries table when it is missing
func (s *SQLStore) AutoMigrate() error {
	return s.db.AutoMigrate(&CartEntry{})
}

// Get implements cart.Storage
func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry CartEntry
	err := s.db.WithContext(ctx).Where("cart_key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load cart entry: %w", err)
	}
	return entry.Payload, true, nil
}

// Set implements cart.Storage as an upsert
func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	entry := CartEntry{Key: key, Payload: value, UpdatedAt: s.now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("save cart entry: %w", err)
	}
	return nil
}

// Remove implements cart.Storage
func (s *SQLStore) Remove(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("cart_key = ?", key).Delete(&CartEntry{}).Error; err != nil {
		return fmt.Errorf("delete cart entry: %w", err)
	}
	return nil
}

// PurgeBefore deletes carts last written before cutoff and returns how many
// were removed
func (s *SQLStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("updated_at < ?", cutoff.UTC()).Delete(&CartEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge cart entries: %w", res.Error)
	}
	return res.RowsAffected, nil
}

var _ cart.Storage = (*SQLStore)(nil)
