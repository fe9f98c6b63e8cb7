package repository

import (
	"context"

	"marketplace-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepo {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, entry *models.ModerationAudit) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByEntity returns the history oldest first.
func (r *auditRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]models.ModerationAudit, error) {
	entries := []models.ModerationAudit{}
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}
