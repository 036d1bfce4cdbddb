package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/homefix/service-lifecycle/internal/common/domain"
	bookingDomain "github.com/homefix/service-lifecycle/internal/domain/booking"
	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
)

// BookingService is the application service orchestrating booking use cases.
// Every command loads the booking, checks the caller's expected version, applies
// the transition on the aggregate and persists it with a conditional write.
// Side effects are dispatched only after that write succeeds.
type BookingService struct {
	repo       bookingDomain.BookingRepository
	catalog    ServiceCatalog
	directory  ProviderDirectory
	dispatcher Dispatcher
	clock      lifecycle.Clock
	window     time.Duration
	logger     *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	catalog ServiceCatalog,
	directory ProviderDirectory,
	dispatcher Dispatcher,
	clock lifecycle.Clock,
	warrantyWindow time.Duration,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:       repo,
		catalog:    catalog,
		directory:  directory,
		dispatcher: dispatcher,
		clock:      clock,
		window:     warrantyWindow,
		logger:     logger,
	}
}

// CreateBooking creates a pending booking priced from the catalog.
func (s *BookingService) CreateBooking(ctx context.Context, actor lifecycle.Actor, req CreateBookingRequest) (*BookingDTO, error) {
	if actor.Role != lifecycle.RoleClient {
		return nil, domain.NewForbiddenError("only clients can create bookings")
	}

	svc, err := s.catalog.ResolveService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}

	bk, err := bookingDomain.NewBooking(bookingDomain.NewBookingParams{
		ClientID:       actor.ID,
		ServiceID:      svc.ID(),
		ServiceName:    svc.Name(),
		BasePriceCents: svc.BasePriceCents(),
		Currency:       svc.Currency(),
		Slot:           req.Slot,
		Address:        req.Address,
		PaymentMethod:  bookingDomain.PaymentMethod(req.PaymentMethod),
		Notes:          req.Notes,
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}
	s.dispatcher.Dispatch(ctx, bk.PullOutbox())

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_number", bk.BookingNumber()),
		zap.String("client_id", actor.ID.String()),
		zap.Int64("price_cents", bk.PriceCents()),
	)

	result := toBookingDTO(bk)
	return &result, nil
}

// AssignProvider sets the provider on a pending booking (admin).
func (s *BookingService) AssignProvider(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID, expectedVersion *int64, providerID uuid.UUID) (*BookingDTO, error) {
	return s.apply(ctx, actor, bookingID, expectedVersion, bookingDomain.EventAssign, func(bk *bookingDomain.Booking, now time.Time) error {
		// Authorize first so a non-admin learns nothing about the directory.
		if _, err := bookingDomain.Authorize(bk, bookingDomain.EventAssign, actor); err != nil {
			return err
		}
		if _, err := s.directory.ResolveProvider(ctx, providerID); err != nil {
			return err
		}
		return bk.AssignProvider(actor, providerID, now)
	})
}

// AcceptBooking moves a pending booking to accepted for the assigned provider.
func (s *BookingService) AcceptBooking(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID, expectedVersion *int64) (*BookingDTO, error) {
	return s.apply(ctx, actor, bookingID, expectedVersion, bookingDomain.EventAccept, func(bk *bookingDomain.Booking, now time.Time) error {
		return bk.Accept(actor, now)
	})
}

// RejectBooking lets the assigned provider turn down a pending or accepted booking.
func (s *BookingService) RejectBooking(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID, expectedVersion *int64, reason string) (*BookingDTO, error) {
	return s.apply(ctx, actor, bookingID, expectedVersion, bookingDomain.EventReject, func(bk *bookingDomain.Booking, now time.Time) error {
		return bk.Reject(actor, reason, now)
	})
}

// CancelBooking cancels a pending or accepted booking for its client or provider.
func (s *BookingService) CancelBooking(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID, expectedVersion *int64, reason string) (*BookingDTO, error) {
	return s.apply(ctx, actor, bookingID, expectedVersion, bookingDomain.EventCancel, func(bk *bookingDomain.Booking, now time.Time) error {
		return bk.Cancel(actor, reason, now)
	})
}

// StartBooking marks work as started.
func (s *BookingService) StartBooking(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID, expectedVersion *int64) (*BookingDTO, error) {
	return s.apply(ctx, actor, bookingID, expectedVersion, bookingDomain.EventStart, func(bk *bookingDomain.Booking, now time.Time) error {
		return bk.Start(actor, now)
	})
}

// CompleteBooking finalizes the price and opens the warranty window.
func (s *BookingService) CompleteBooking(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID, expectedVersion *int64, warrantySlip string) (*BookingDTO, error) {
	return s.apply(ctx, actor, bookingID, expectedVersion, bookingDomain.EventComplete, func(bk *bookingDomain.Booking, now time.Time) error {
		return bk.Complete(actor, warrantySlip, s.window, now)
	})
}

// AttachWarrantySlip stores the warranty document on a completed booking.
func (s *BookingService) AttachWarrantySlip(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID, expectedVersion *int64, slip string) (*BookingDTO, error) {
	return s.apply(ctx, actor, bookingID, expectedVersion, bookingDomain.EventAttachWarranty, func(bk *bookingDomain.Booking, now time.Time) error {
		return bk.AttachWarrantySlip(actor, slip, now)
	})
}

// GetBooking returns a booking visible to the caller.
func (s *BookingService) GetBooking(ctx context.Context, actor lifecycle.Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.IsParticipant(actor) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListBookings returns the caller's bookings: own bookings for clients,
// assigned bookings for providers, everything for admins.
func (s *BookingService) ListBookings(ctx context.Context, actor lifecycle.Actor, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	var (
		bookings []*bookingDomain.Booking
		total    int64
		err      error
	)
	switch actor.Role {
	case lifecycle.RoleClient:
		bookings, total, err = s.repo.FindByClientID(ctx, actor.ID, page, limit)
	case lifecycle.RoleProvider:
		bookings, total, err = s.repo.FindByProviderID(ctx, actor.ID, page, limit)
	case lifecycle.RoleAdmin:
		bookings, total, err = s.repo.ListAll(ctx, page, limit)
	default:
		return nil, domain.NewForbiddenError("unknown role")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

// apply runs one transition: load, version check, mutate, conditional write, dispatch.
func (s *BookingService) apply(
	ctx context.Context,
	actor lifecycle.Actor,
	bookingID uuid.UUID,
	expectedVersion *int64,
	event bookingDomain.Event,
	mutate func(bk *bookingDomain.Booking, now time.Time) error,
) (*BookingDTO, error) {
	bk, err := s.load(ctx, bookingID, expectedVersion)
	if err != nil {
		return nil, err
	}

	from := bk.Status()
	if err := mutate(bk, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.commit(ctx, bk, from); err != nil {
		return nil, err
	}

	s.logger.Info("booking transitioned",
		zap.String("booking_id", bk.ID().String()),
		zap.String("event", string(event)),
		zap.String("from", string(from)),
		zap.String("to", string(bk.Status())),
		zap.String("actor_id", actor.ID.String()),
		zap.String("actor_role", string(actor.Role)),
	)

	result := toBookingDTO(bk)
	return &result, nil
}

func (s *BookingService) load(ctx context.Context, bookingID uuid.UUID, expectedVersion *int64) (*bookingDomain.Booking, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(bk.Version(), expectedVersion); err != nil {
		return nil, err
	}
	return bk, nil
}

func (s *BookingService) commit(ctx context.Context, bk *bookingDomain.Booking, from bookingDomain.BookingStatus) error {
	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk, from); err != nil {
		return err
	}
	s.dispatcher.Dispatch(ctx, bk.PullOutbox())
	return nil
}

// checkVersion rejects a command made against a stale read.
func checkVersion(current int64, expected *int64) error {
	if expected == nil || *expected == current {
		return nil
	}
	return domain.NewConflictError("entity was modified since it was read").
		With("expected_version", fmt.Sprint(*expected)).
		With("current_version", fmt.Sprint(current))
}
