package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EntitySellerRequest = "seller_request"
	EntitySellerProduct = "seller_product"
)

// ModerationAudit is one append-only record of a status transition.
type ModerationAudit struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	EntityType string    `json:"entityType" gorm:"size:32;index:idx_audit_entity,priority:1;not null"`
	EntityID   string    `json:"entityId" gorm:"size:64;index:idx_audit_entity,priority:2;not null"`
	Action     string    `json:"action" gorm:"size:32;not null"`
	FromStatus string    `json:"fromStatus" gorm:"size:32"`
	ToStatus   string    `json:"toStatus" gorm:"size:32;not null"`
	Reviewer   string    `json:"reviewer" gorm:"size:255"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

func (ModerationAudit) TableName() string {
	return "moderation_audits"
}
