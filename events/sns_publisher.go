package events

import (
	"context"
	"encoding/json"
	"fmt"

	"marketplace-service/models"
	aws_pkg "marketplace-service/pkg/aws"
)

// SNSPublisher fans moderation events out through an SNS topic.
type SNSPublisher struct {
	client   aws_pkg.SNSPublisher
	topicArn string
}

func NewSNSPublisher(client aws_pkg.SNSPublisher, topicArn string) *SNSPublisher {
	return &SNSPublisher{client: client, topicArn: topicArn}
}

func (p *SNSPublisher) Publish(ctx context.Context, event models.ModerationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.client.Publish(ctx, p.topicArn, event.EventType, data)
}

func (p *SNSPublisher) Close() error { return nil }
