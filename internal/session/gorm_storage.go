package session

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"patient-portal/internal/models"
)

// GormStorage persists storage entries in the storage_entries table.
type GormStorage struct {
	DB *gorm.DB
}

// NewGormStorage creates a GormStorage over an open connection.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{DB: db}
}

func (g *GormStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	var entry models.StorageEntry
	err := g.DB.WithContext(ctx).Where("storage_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get storage entry %q: %w", key, err)
	}
	return entry.Value, true, nil
}

func (g *GormStorage) SetItem(ctx context.Context, key, value string) error {
	entry := models.StorageEntry{StorageKey: key, Value: value}
	err := g.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("set storage entry %q: %w", key, err)
	}
	return nil
}

func (g *GormStorage) RemoveItem(ctx context.Context, key string) error {
	if err := g.DB.WithContext(ctx).Where("storage_key = ?", key).Delete(&models.StorageEntry{}).Error; err != nil {
		return fmt.Errorf("remove storage entry %q: %w", key, err)
	}
	return nil
}
