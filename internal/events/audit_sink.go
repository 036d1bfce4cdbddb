package events

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/homefix/service-lifecycle/internal/common/kafka"
	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
)

// EventSource is the CloudEvents source for everything this service publishes.
const EventSource = "service-lifecycle"

// EventPublisher writes a CloudEvent to a topic.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// KafkaAuditSink publishes audit events as CloudEvents of type
// lifecycle.audit.<entity>.<event>, keyed by entity ID.
type KafkaAuditSink struct {
	publisher EventPublisher
	topic     string
	logger    *zap.Logger
}

// NewKafkaAuditSink creates a new KafkaAuditSink.
func NewKafkaAuditSink(publisher EventPublisher, topic string, logger *zap.Logger) *KafkaAuditSink {
	return &KafkaAuditSink{publisher: publisher, topic: topic, logger: logger}
}

// AuditEventType returns the CloudEvent type for an audit event.
func AuditEventType(e lifecycle.AuditEvent) string {
	return fmt.Sprintf("lifecycle.audit.%s.%s", e.EntityType, e.Event)
}

// Record implements application.AuditSink.
func (s *KafkaAuditSink) Record(ctx context.Context, e lifecycle.AuditEvent) error {
	ce, err := kafka.NewCloudEvent(EventSource, AuditEventType(e), e)
	if err != nil {
		return err
	}
	ce.Subject = e.EntityID.String()
	ce.Time = e.Timestamp.UTC()

	if err := s.publisher.PublishEvent(ctx, s.topic, ce); err != nil {
		return fmt.Errorf("failed to publish audit event: %w", err)
	}
	s.logger.Debug("audit event recorded",
		zap.String("type", ce.Type),
		zap.String("entity_id", ce.Subject),
		zap.String("from", e.FromState),
		zap.String("to", e.ToState),
	)
	return nil
}
