package models

import (
	"time"

	"github.com/Kyz7/portfolio/internal/registry"
)

type Favorite struct {
	ID           uint                  `gorm:"primaryKey" json:"id"`
	UserID       uint                  `gorm:"not null;uniqueIndex:idx_favorites_user_resource" json:"user_id"`
	ResourceID   uint                  `gorm:"not null;uniqueIndex:idx_favorites_user_resource" json:"resource_id"`
	ResourceType registry.ResourceType `gorm:"size:20;not null;index" json:"resource_type"`
	CreatedAt    time.Time             `json:"created_at"`
}

type EventRegistration struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_event_registrations_user_event" json:"user_id"`
	EventID   uint      `gorm:"not null;uniqueIndex:idx_event_registrations_user_event" json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}
