package events

import (
	"context"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/homefix/service-lifecycle/internal/application"
	"github.com/homefix/service-lifecycle/internal/common/domain"
	"github.com/homefix/service-lifecycle/internal/common/kafka"
)

// Reference data event types published by the catalog and directory services.
const (
	ServiceUpserted     = "catalog.service.upserted"
	ServiceArchived     = "catalog.service.archived"
	ProviderUpserted    = "directory.provider.upserted"
	ProviderDeactivated = "directory.provider.deactivated"
)

// ServiceEvent is the payload of catalog.service.* events.
type ServiceEvent struct {
	ServiceID      uuid.UUID `json:"service_id"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	BasePriceCents int64     `json:"base_price_cents"`
	Currency       string    `json:"currency"`
}

// ProviderEvent is the payload of directory.provider.* events.
type ProviderEvent struct {
	ProviderID  uuid.UUID `json:"provider_id"`
	DisplayName string    `json:"display_name"`
}

// ReferenceDataStore applies catalog and directory changes to the local projections.
type ReferenceDataStore interface {
	UpsertService(ctx context.Context, id uuid.UUID, req application.UpsertServiceRequest) (*application.ServiceDTO, error)
	ArchiveService(ctx context.Context, id uuid.UUID) error
	UpsertProvider(ctx context.Context, id uuid.UUID, req application.UpsertProviderRequest) (*application.ProviderDTO, error)
	DeactivateProvider(ctx context.Context, id uuid.UUID) error
}

// ReferenceDataConsumer keeps the service catalog and provider directory in sync
// with their owning services.
type ReferenceDataConsumer struct {
	consumer *kafka.Consumer
	store    ReferenceDataStore
	logger   *zap.Logger
}

// NewReferenceDataConsumer creates a consumer over the catalog and directory topics.
func NewReferenceDataConsumer(
	brokers []string,
	groupID string,
	topics []string,
	store ReferenceDataStore,
	logger *zap.Logger,
) *ReferenceDataConsumer {
	return &ReferenceDataConsumer{
		consumer: kafka.NewConsumer(brokers, groupID, topics, logger),
		store:    store,
		logger:   logger,
	}
}

// Start begins consuming. This blocks until the context is cancelled.
func (c *ReferenceDataConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *ReferenceDataConsumer) Close() error {
	return c.consumer.Close()
}

func (c *ReferenceDataConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	ce, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from reference topic",
			zap.String("topic", msg.Topic),
			zap.Error(err),
		)
		return nil // Don't retry malformed messages
	}

	switch ce.Type {
	case ServiceUpserted, ServiceArchived:
		return c.handleService(ctx, ce)
	case ProviderUpserted, ProviderDeactivated:
		return c.handleProvider(ctx, ce)
	default:
		c.logger.Debug("ignoring unhandled reference event type", zap.String("type", ce.Type))
		return nil
	}
}

func (c *ReferenceDataConsumer) handleService(ctx context.Context, ce kafka.CloudEvent) error {
	var evt ServiceEvent
	if err := ce.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse service event data", zap.Error(err))
		return nil
	}

	var err error
	if ce.Type == ServiceArchived {
		err = c.store.ArchiveService(ctx, evt.ServiceID)
	} else {
		_, err = c.store.UpsertService(ctx, evt.ServiceID, application.UpsertServiceRequest{
			Name:           evt.Name,
			Category:       evt.Category,
			BasePriceCents: evt.BasePriceCents,
			Currency:       evt.Currency,
		})
	}
	return c.settle(ce, evt.ServiceID, err)
}

func (c *ReferenceDataConsumer) handleProvider(ctx context.Context, ce kafka.CloudEvent) error {
	var evt ProviderEvent
	if err := ce.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse provider event data", zap.Error(err))
		return nil
	}

	var err error
	if ce.Type == ProviderDeactivated {
		err = c.store.DeactivateProvider(ctx, evt.ProviderID)
	} else {
		_, err = c.store.UpsertProvider(ctx, evt.ProviderID, application.UpsertProviderRequest{
			DisplayName: evt.DisplayName,
		})
	}
	return c.settle(ce, evt.ProviderID, err)
}

// settle drops events the domain rejects and returns infrastructure errors so
// the offset stays uncommitted.
func (c *ReferenceDataConsumer) settle(ce kafka.CloudEvent, id uuid.UUID, err error) error {
	if err == nil {
		c.logger.Info("reference data applied", zap.String("type", ce.Type), zap.String("id", id.String()))
		return nil
	}
	if _, ok := domain.KindOf(err); ok {
		c.logger.Warn("reference event rejected",
			zap.String("type", ce.Type),
			zap.String("id", id.String()),
			zap.Error(err),
		)
		return nil
	}
	c.logger.Error("failed to apply reference event",
		zap.String("type", ce.Type),
		zap.String("id", id.String()),
		zap.Error(err),
	)
	return err
}
