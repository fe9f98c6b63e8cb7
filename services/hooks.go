package services

import (
	"context"
	"time"

	"marketplace-service/events"
	"marketplace-service/models"
	"marketplace-service/repository"

	"go.uber.org/zap"
)

// sideEffects records audit rows and publishes events after a state change
// has been committed. Failures are logged; they never undo the change.
type sideEffects struct {
	audit     repository.AuditRepo
	publisher events.Publisher
	logger    *zap.Logger
}

func newSideEffects(audit repository.AuditRepo, publisher events.Publisher, logger *zap.Logger) sideEffects {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return sideEffects{audit: audit, publisher: publisher, logger: logger}
}

func (s sideEffects) recordTransition(ctx context.Context, entityType, entityID string, t models.Transition, from, to models.ModerationStatus) {
	if s.audit == nil {
		return
	}
	entry := &models.ModerationAudit{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     string(t.Action),
		FromStatus: string(from),
		ToStatus:   string(to),
		Reviewer:   t.Reviewer,
		Reason:     t.Reason,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to append moderation audit",
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}

func (s sideEffects) publish(ctx context.Context, event models.ModerationEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish moderation event",
			zap.String("event_type", event.EventType),
			zap.String("entity_id", event.EntityID),
			zap.Error(err),
		)
	}
}

// history returns the audit trail, or an empty list when auditing is disabled.
func (s sideEffects) history(ctx context.Context, entityType, entityID string) ([]models.ModerationAudit, error) {
	if s.audit == nil {
		return []models.ModerationAudit{}, nil
	}
	return s.audit.ListByEntity(ctx, entityType, entityID)
}
