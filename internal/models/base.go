package models

import (
	"time"

	"gorm.io/gorm"
)

// Timestamps are the shared audit columns.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &RescueTeam{}, &SOSAlert{}, &Notification{})
}
