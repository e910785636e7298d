package models

import "time"

// StorageEntry holds one serialized storefront document (cart, wishlist, applied discount).
type StorageEntry struct {
	Key       string    `gorm:"column:entry_key;type:varchar(255);primaryKey"`
	Payload   string    `gorm:"column:payload;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (StorageEntry) TableName() string {
	return "storefront_entries"
}
