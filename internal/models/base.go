package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// BaseModel contains common columns for all tables
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (base *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	return nil
}

// StorageEntry is one key/value pair of the portal's persistent local storage.
type StorageEntry struct {
	BaseModel
	StorageKey string `gorm:"column:storage_key;uniqueIndex;size:191;not null" json:"key"`
	Value      string `gorm:"type:text" json:"value"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	DSN string
}

// InitDB opens the MySQL connection backing the session storage and migrates
// the storage table.
func InitDB(config DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(config.DSN), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&StorageEntry{}); err != nil {
		return nil, err
	}

	return db, nil
}
