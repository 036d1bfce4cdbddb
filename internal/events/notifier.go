package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
)

// RabbitNotifier publishes notifications to a durable RabbitMQ queue. The
// delivery service on the other side fans them out to users or the admin pool.
type RabbitNotifier struct {
	url    string
	queue  string
	logger *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewRabbitNotifier dials the broker and declares the queue.
func NewRabbitNotifier(url, queue string, logger *zap.Logger) (*RabbitNotifier, error) {
	n := &RabbitNotifier{url: url, queue: queue, logger: logger}
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.connect(); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *RabbitNotifier) connect() error {
	conn, err := amqp.Dial(n.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel open failed: %w", err)
	}
	if _, err := ch.QueueDeclare(n.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("rabbitmq queue declare failed: %w", err)
	}
	n.conn, n.ch = conn, ch
	return nil
}

// Emit implements application.Notifier. A closed connection is redialled once.
func (n *RabbitNotifier) Emit(ctx context.Context, note lifecycle.Notification) error {
	msg, err := NotificationMessage(note, time.Now().UTC())
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn == nil || n.conn.IsClosed() {
		n.logger.Warn("rabbitmq connection lost, reconnecting", zap.String("queue", n.queue))
		if err := n.connect(); err != nil {
			return err
		}
	}

	if err := n.ch.PublishWithContext(ctx, "", n.queue, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq publish failed: %w", err)
	}
	return nil
}

// Close closes the channel and connection.
func (n *RabbitNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ch != nil {
		_ = n.ch.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}

// NotificationMessage builds the persistent AMQP message for a notification.
func NotificationMessage(note lifecycle.Notification, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(note)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal notification: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Type:         note.Kind,
		Headers: amqp.Table{
			"audience": string(note.Audience),
		},
		Body: body,
	}, nil
}

// LogNotifier writes notifications to the log. Used when no broker is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Emit(_ context.Context, note lifecycle.Notification) error {
	fields := []zap.Field{
		zap.String("kind", note.Kind),
		zap.String("audience", string(note.Audience)),
	}
	if note.Audience == lifecycle.AudienceUser {
		fields = append(fields, zap.String("to_user_id", note.ToUserID.String()))
	}
	for k, v := range note.Payload {
		fields = append(fields, zap.String(k, v))
	}
	n.logger.Info("notification", fields...)
	return nil
}
