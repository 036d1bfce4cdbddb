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
	"github.com/homefix/service-lifecycle/internal/domain/warranty"
)

// WarrantyService manages warranty claims. It reads bookings but never writes them.
type WarrantyService struct {
	claims     warranty.ClaimRepository
	bookings   bookingDomain.BookingRepository
	directory  ProviderDirectory
	dispatcher Dispatcher
	clock      lifecycle.Clock
	logger     *zap.Logger
}

// NewWarrantyService creates a new WarrantyService.
func NewWarrantyService(
	claims warranty.ClaimRepository,
	bookings bookingDomain.BookingRepository,
	directory ProviderDirectory,
	dispatcher Dispatcher,
	clock lifecycle.Clock,
	logger *zap.Logger,
) *WarrantyService {
	return &WarrantyService{
		claims:     claims,
		bookings:   bookings,
		directory:  directory,
		dispatcher: dispatcher,
		clock:      clock,
		logger:     logger,
	}
}

// CreateClaim opens a claim if the booking is completed, its warranty window is
// still open and no claim exists for it yet. The last condition is enforced by
// the repository's unique constraint so concurrent creates cannot both win.
func (s *WarrantyService) CreateClaim(ctx context.Context, actor lifecycle.Actor, req CreateClaimRequest) (*ClaimDTO, error) {
	bk, err := s.bookings.FindByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	claim, err := warranty.NewClaim(actor, bk, req.IssueDetails, req.AttachmentURLs, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.claims.Save(ctx, claim); err != nil {
		if domain.IsKind(err, domain.KindDuplicateClaim) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save warranty claim: %w", err)
	}
	s.dispatcher.Dispatch(ctx, claim.PullOutbox())

	s.logger.Info("warranty claim created",
		zap.String("claim_id", claim.ID().String()),
		zap.String("booking_id", bk.ID().String()),
		zap.String("client_id", actor.ID.String()),
	)

	result := toClaimDTO(claim)
	return &result, nil
}

// AssignAgent hands a pending claim to a provider agent (admin).
func (s *WarrantyService) AssignAgent(ctx context.Context, actor lifecycle.Actor, claimID uuid.UUID, expectedVersion *int64, agentID uuid.UUID) (*ClaimDTO, error) {
	return s.apply(ctx, actor, claimID, expectedVersion, warranty.EventAssign, func(c *warranty.Claim, now time.Time) error {
		if _, err := warranty.Authorize(c, warranty.EventAssign, actor); err != nil {
			return err
		}
		if _, err := s.directory.ResolveProvider(ctx, agentID); err != nil {
			return err
		}
		return c.AdminAssign(actor, agentID, now)
	})
}

// RejectClaim closes a pending claim (admin).
func (s *WarrantyService) RejectClaim(ctx context.Context, actor lifecycle.Actor, claimID uuid.UUID, expectedVersion *int64, notes string) (*ClaimDTO, error) {
	return s.apply(ctx, actor, claimID, expectedVersion, warranty.EventReject, func(c *warranty.Claim, now time.Time) error {
		return c.AdminReject(actor, notes, now)
	})
}

// StartClaim marks an assigned claim as being worked on (assigned agent).
func (s *WarrantyService) StartClaim(ctx context.Context, actor lifecycle.Actor, claimID uuid.UUID, expectedVersion *int64) (*ClaimDTO, error) {
	return s.apply(ctx, actor, claimID, expectedVersion, warranty.EventStart, func(c *warranty.Claim, now time.Time) error {
		return c.AgentStart(actor, now)
	})
}

// ResolveClaim closes an assigned or in-progress claim (admin or assigned agent).
func (s *WarrantyService) ResolveClaim(ctx context.Context, actor lifecycle.Actor, claimID uuid.UUID, expectedVersion *int64, notes string) (*ClaimDTO, error) {
	return s.apply(ctx, actor, claimID, expectedVersion, warranty.EventResolve, func(c *warranty.Claim, now time.Time) error {
		return c.Resolve(actor, notes, now)
	})
}

// GetClaim returns a claim visible to the caller.
func (s *WarrantyService) GetClaim(ctx context.Context, actor lifecycle.Actor, claimID uuid.UUID) (*ClaimDTO, error) {
	c, err := s.claims.FindByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !c.IsVisibleTo(actor) {
		return nil, domain.NewForbiddenError("claim does not belong to this user")
	}
	result := toClaimDTO(c)
	return &result, nil
}

// ListClaims returns the caller's own claims (client), assigned claims (provider)
// or all claims (admin), optionally filtered by status.
func (s *WarrantyService) ListClaims(ctx context.Context, actor lifecycle.Actor, status string, page, limit int) (*domain.PaginatedResult[ClaimDTO], error) {
	var filter warranty.ClaimFilter
	if status != "" {
		st, err := warranty.ParseClaimStatus(status)
		if err != nil {
			return nil, domain.NewValidationError(err.Error())
		}
		filter.Status = st
	}

	id := actor.ID
	switch actor.Role {
	case lifecycle.RoleClient:
		filter.ClientID = &id
	case lifecycle.RoleProvider:
		filter.AssignedAgentID = &id
	case lifecycle.RoleAdmin:
	default:
		return nil, domain.NewForbiddenError("unknown role")
	}

	claims, total, err := s.claims.List(ctx, filter, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list warranty claims: %w", err)
	}

	dtos := make([]ClaimDTO, len(claims))
	for i, c := range claims {
		dtos[i] = toClaimDTO(c)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

func (s *WarrantyService) apply(
	ctx context.Context,
	actor lifecycle.Actor,
	claimID uuid.UUID,
	expectedVersion *int64,
	event warranty.Event,
	mutate func(c *warranty.Claim, now time.Time) error,
) (*ClaimDTO, error) {
	c, err := s.claims.FindByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(c.Version(), expectedVersion); err != nil {
		return nil, err
	}

	from := c.Status()
	if err := mutate(c, s.clock.Now()); err != nil {
		return nil, err
	}

	c.IncrementVersion()
	if err := s.claims.Update(ctx, c, from); err != nil {
		return nil, err
	}
	s.dispatcher.Dispatch(ctx, c.PullOutbox())

	s.logger.Info("warranty claim transitioned",
		zap.String("claim_id", c.ID().String()),
		zap.String("event", string(event)),
		zap.String("from", string(from)),
		zap.String("to", string(c.Status())),
		zap.String("actor_id", actor.ID.String()),
		zap.String("actor_role", string(actor.Role)),
	)

	result := toClaimDTO(c)
	return &result, nil
}
