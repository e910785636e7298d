package storage

import (
	"context"
	"errors"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQL stores documents in the storefront_entries table through GORM.
type SQL struct {
	db *gorm.DB
}

func NewSQL(conn *gorm.DB) *SQL {
	return &SQL{db: conn}
}

func (s *SQL) Load(ctx context.Context, key Key) ([]byte, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	var entry models.StorageEntry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key.String()).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(entry.Payload), nil
}

func (s *SQL) Save(ctx context.Context, key Key, value []byte) error {
	if err := key.validate(); err != nil {
		return err
	}
	entry := models.StorageEntry{Key: key.String(), Payload: string(value)}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&entry).Error
}

func (s *SQL) Delete(ctx context.Context, key Key) error {
	if err := key.validate(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Where("entry_key = ?", key.String()).Delete(&models.StorageEntry{}).Error
}

func (s *SQL) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
