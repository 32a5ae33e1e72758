package models

import (
	"time"

	"github.com/Kyz7/portfolio/internal/registry"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Resource is the single table behind every public resource type.
// Type is written on create only.
type Resource struct {
	ID              uint                  `gorm:"primaryKey" json:"id"`
	Type            registry.ResourceType `gorm:"<-:create;size:20;not null;index:idx_resources_type_status" json:"type"`
	Title           string                `gorm:"size:255" json:"title"`
	Description     string                `gorm:"type:text" json:"description"`
	Content         string                `gorm:"type:text" json:"content"`
	FileURL         string                `gorm:"size:500" json:"file_url"`
	CoverURL        string                `gorm:"size:500" json:"cover_url"`
	Category        string                `gorm:"size:100;index" json:"category"`
	Tags            string                `gorm:"size:500" json:"tags"`
	Featured        bool                  `gorm:"default:false" json:"featured"`
	Views           int64                 `gorm:"default:0" json:"views"`
	Likes           int64                 `gorm:"default:0" json:"likes"`
	Status          ModerationStatus      `gorm:"size:20;default:'pending';index:idx_resources_type_status" json:"status"`
	RejectionReason string                `gorm:"type:text" json:"rejection_reason,omitempty"`
	UploaderID      *uint                 `gorm:"index" json:"uploader_id"`
	ExtraData       datatypes.JSON        `json:"-"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	DeletedAt       gorm.DeletedAt        `gorm:"index" json:"deleted_at,omitempty"`
}
