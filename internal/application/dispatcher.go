package application

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
)

const deliveryTimeout = 5 * time.Second

// AsyncDispatcher buffers outboxes and delivers them from worker goroutines.
// When the buffer is full the outbox is dropped and logged.
type AsyncDispatcher struct {
	queue    chan lifecycle.Outbox
	workers  int
	audit    AuditSink
	notifier Notifier
	logger   *zap.Logger
}

// NewAsyncDispatcher creates a dispatcher. Call Run to start delivery.
func NewAsyncDispatcher(audit AuditSink, notifier Notifier, buffer, workers int, logger *zap.Logger) *AsyncDispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	if workers <= 0 {
		workers = 1
	}
	return &AsyncDispatcher{
		queue:    make(chan lifecycle.Outbox, buffer),
		workers:  workers,
		audit:    audit,
		notifier: notifier,
		logger:   logger,
	}
}

// Dispatch enqueues the outbox without blocking.
func (d *AsyncDispatcher) Dispatch(_ context.Context, out lifecycle.Outbox) {
	if out.Empty() {
		return
	}
	select {
	case d.queue <- out:
	default:
		d.logger.Error("outbox buffer full, dropping side effects",
			zap.Int("audits", len(out.Audits)),
			zap.Int("notifications", len(out.Notifications)),
		)
	}
}

// Run delivers outboxes until ctx is cancelled, then flushes what is still buffered.
func (d *AsyncDispatcher) Run(ctx context.Context) {
	deliverCtx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case out := <-d.queue:
					deliver(deliverCtx, d.audit, d.notifier, out, d.logger)
				}
			}
		}()
	}
	wg.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	for {
		select {
		case out := <-d.queue:
			deliver(flushCtx, d.audit, d.notifier, out, d.logger)
		default:
			return
		}
	}
}

// SyncDispatcher delivers inline. Sink errors are still only logged.
type SyncDispatcher struct {
	audit    AuditSink
	notifier Notifier
	logger   *zap.Logger
}

func NewSyncDispatcher(audit AuditSink, notifier Notifier, logger *zap.Logger) *SyncDispatcher {
	return &SyncDispatcher{audit: audit, notifier: notifier, logger: logger}
}

func (d *SyncDispatcher) Dispatch(ctx context.Context, out lifecycle.Outbox) {
	deliver(context.WithoutCancel(ctx), d.audit, d.notifier, out, d.logger)
}

func deliver(ctx context.Context, audit AuditSink, notifier Notifier, out lifecycle.Outbox, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	for _, e := range out.Audits {
		if err := audit.Record(ctx, e); err != nil {
			logger.Error("failed to record audit event",
				zap.String("entity_type", string(e.EntityType)),
				zap.String("entity_id", e.EntityID.String()),
				zap.String("event", e.Event),
				zap.Error(err),
			)
		}
	}
	for _, n := range out.Notifications {
		if err := notifier.Emit(ctx, n); err != nil {
			logger.Error("failed to emit notification",
				zap.String("kind", n.Kind),
				zap.String("audience", string(n.Audience)),
				zap.Error(err),
			)
		}
	}
}
