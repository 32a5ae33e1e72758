package models

import (
	"time"

	"github.com/Kyz7/portfolio/internal/registry"
)

type Category struct {
	ID        uint                  `gorm:"primaryKey" json:"id"`
	Type      registry.ResourceType `gorm:"size:20;not null;uniqueIndex:idx_categories_type_name" json:"type"`
	Name      string                `gorm:"size:100;not null;uniqueIndex:idx_categories_type_name" json:"name"`
	Slug      string                `gorm:"size:120;index" json:"slug"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// Tag keeps a denormalized usage count; tags themselves live comma-joined
// on resources.tags.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Count     int64     `gorm:"default:0" json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
