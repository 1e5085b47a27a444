package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// MirrorEntry is one key of a device's local auth cache.
// Rows are written on every session change and never read by the app.
type MirrorEntry struct {
	BaseModel
	DeviceID  string    `json:"device_id" gorm:"type:varchar(26);not null;uniqueIndex:idx_mirror_device_key"`
	Key       string    `json:"key" gorm:"column:entry_key;type:varchar(32);not null;uniqueIndex:idx_mirror_device_key"`
	Value     string    `json:"-" gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime;index"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&MirrorEntry{},
	}

	return db.AutoMigrate(models...)
}
