package application

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/homefix/service-lifecycle/internal/domain/booking"
	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
)

// ProposeExtraService appends a pending add-on to an in-progress booking. The
// service must resolve in the catalog; the booking price does not move until
// the client confirms.
func (s *BookingService) ProposeExtraService(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID, expectedVersion *int64, req ProposeExtraRequest) (*BookingDTO, error) {
	bk, err := s.load(ctx, bookingID, expectedVersion)
	if err != nil {
		return nil, err
	}
	// State and role first: a closed negotiation reports invalid_booking_state
	// even when the service id is bad.
	if _, err := bookingDomain.Authorize(bk, bookingDomain.EventProposeExtra, actor); err != nil {
		return nil, err
	}

	svc, err := s.catalog.ResolveService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	price := req.PriceCents
	if price == 0 {
		price = svc.BasePriceCents()
	}

	from := bk.Status()
	extra, err := bk.ProposeExtraService(actor, svc.ID(), svc.Name(), price, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, bk, from); err != nil {
		return nil, err
	}

	s.logger.Info("extra service proposed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("extra_id", extra.ID.String()),
		zap.String("service_id", svc.ID().String()),
		zap.Int64("price_cents", price),
		zap.String("actor_id", actor.ID.String()),
	)

	result := toBookingDTO(bk)
	return &result, nil
}

// ConfirmExtraServices confirms every pending add-on as one batch and reprices
// the booking. With nothing pending it returns a nothing_to_confirm error and
// leaves the booking untouched.
func (s *BookingService) ConfirmExtraServices(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID, expectedVersion *int64) (*ConfirmExtrasResult, error) {
	bk, err := s.load(ctx, bookingID, expectedVersion)
	if err != nil {
		return nil, err
	}

	from := bk.Status()
	oldPrice := bk.PriceCents()
	n, err := bk.ConfirmExtraServices(actor, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, bk, from); err != nil {
		return nil, err
	}

	s.logger.Info("extra services confirmed",
		zap.String("booking_id", bk.ID().String()),
		zap.Int("confirmed", n),
		zap.Int64("old_price_cents", oldPrice),
		zap.Int64("new_price_cents", bk.PriceCents()),
		zap.String("actor_id", actor.ID.String()),
	)

	return &ConfirmExtrasResult{Confirmed: n, Booking: toBookingDTO(bk)}, nil
}
