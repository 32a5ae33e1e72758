package models

import (
	"time"

	"github.com/Kyz7/portfolio/internal/registry"
)

type ModerationStatus string

const (
	StatusPending  ModerationStatus = "pending"
	StatusApproved ModerationStatus = "approved"
	StatusRejected ModerationStatus = "rejected"
)

func (s ModerationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// AuditLog records every moderation decision taken through the status endpoint.
type AuditLog struct {
	ID           uint                  `gorm:"primaryKey" json:"id"`
	AdminID      *uint                 `gorm:"index" json:"admin_id"`
	Admin        *User                 `gorm:"foreignKey:AdminID;constraint:OnDelete:SET NULL" json:"admin,omitempty"`
	ResourceType registry.ResourceType `gorm:"size:20;index:idx_audit_logs_resource" json:"resource_type"`
	ResourceID   uint                  `gorm:"index:idx_audit_logs_resource" json:"resource_id"`
	FromStatus   ModerationStatus      `gorm:"size:20" json:"from_status"`
	Action       ModerationStatus      `gorm:"size:20" json:"action"`
	Reason       string                `gorm:"type:text" json:"reason,omitempty"`
	Legal        bool                  `json:"legal_transition"`
	CreatedAt    time.Time             `json:"created_at"`
}
