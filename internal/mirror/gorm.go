package mirror

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/authdash/authdash/internal/models"
)

// GormStore persists mirror entries in the application database
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store over db. Call models.AutoMigrate first.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// ForDevice scopes the store to one browser
func (s *GormStore) ForDevice(deviceID string) Store {
	return &deviceStore{db: s.db, deviceID: deviceID}
}

type deviceStore struct {
	db       *gorm.DB
	deviceID string
}

func (s *deviceStore) Set(ctx context.Context, key, value string) error {
	entry := models.MirrorEntry{DeviceID: s.deviceID, Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}, {Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *deviceStore) Remove(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND entry_key = ?", s.deviceID, key).
		Delete(&models.MirrorEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}
