package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
)

func sampleOutbox() lifecycle.Outbox {
	var o lifecycle.Outbox
	o.Record(lifecycle.AuditEvent{EntityType: lifecycle.EntityBooking, EntityID: uuid.New(), Event: "accept"})
	o.Notify(lifecycle.ToUser(uuid.New(), "booking.accepted", nil))
	return o
}

func TestAsyncDispatcher_Delivers(t *testing.T) {
	audit := &memAuditSink{}
	notifier := &memNotifier{}
	d := NewAsyncDispatcher(audit, notifier, 8, 2, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	d.Dispatch(context.Background(), sampleOutbox())
	d.Dispatch(context.Background(), sampleOutbox())

	assert.Eventually(t, func() bool { return audit.len() == 2 && notifier.len() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestAsyncDispatcher_FlushesOnShutdown(t *testing.T) {
	audit := &memAuditSink{}
	notifier := &memNotifier{}
	d := NewAsyncDispatcher(audit, notifier, 4, 1, zap.NewNop())

	d.Dispatch(context.Background(), sampleOutbox())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)

	assert.Equal(t, 1, audit.len())
	assert.Equal(t, 1, notifier.len())
}

func TestAsyncDispatcher_DropsWhenFull(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	d := NewAsyncDispatcher(&memAuditSink{}, &memNotifier{}, 1, 1, zap.New(core))

	d.Dispatch(context.Background(), sampleOutbox())
	d.Dispatch(context.Background(), sampleOutbox())

	assert.Equal(t, 1, logs.FilterMessage("outbox buffer full, dropping side effects").Len())
}

func TestAsyncDispatcher_IgnoresEmpty(t *testing.T) {
	d := NewAsyncDispatcher(&memAuditSink{}, &memNotifier{}, 1, 1, zap.NewNop())
	d.Dispatch(context.Background(), lifecycle.Outbox{})
	assert.Len(t, d.queue, 0)
}

func TestSyncDispatcher_LogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	audit := &failingAuditSink{}
	notifier := &failingNotifier{}
	d := NewSyncDispatcher(audit, notifier, zap.New(core))

	d.Dispatch(context.Background(), sampleOutbox())

	assert.Equal(t, 1, audit.calls)
	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, 2, logs.Len())
}

type gatedAuditSink struct {
	started chan struct{}
	release chan struct{}
	ctxErr  chan error
}

func (s *gatedAuditSink) Record(ctx context.Context, _ lifecycle.AuditEvent) error {
	close(s.started)
	<-s.release
	s.ctxErr <- ctx.Err()
	return ctx.Err()
}

func TestAsyncDispatcher_InFlightDeliverySurvivesShutdown(t *testing.T) {
	audit := &gatedAuditSink{
		started: make(chan struct{}),
		release: make(chan struct{}),
		ctxErr:  make(chan error, 1),
	}
	notifier := &memNotifier{}
	d := NewAsyncDispatcher(audit, notifier, 4, 1, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	d.Dispatch(context.Background(), sampleOutbox())
	<-audit.started
	cancel()
	close(audit.release)
	<-done

	assert.NoError(t, <-audit.ctxErr)
	assert.Equal(t, 1, notifier.len())
}
