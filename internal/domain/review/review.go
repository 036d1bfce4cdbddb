package review

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/homefix/service-lifecycle/internal/common/domain"
	"github.com/homefix/service-lifecycle/internal/domain/booking"
	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
)

const (
	MinRating        = 1
	MaxRating        = 5
	maxCommentLength = 2000
)

// Review is a client's rating of the provider who fulfilled a booking.
// A booking carries at most one review.
type Review struct {
	id         uuid.UUID
	bookingID  uuid.UUID
	clientID   uuid.UUID
	providerID uuid.UUID
	rating     int
	comment    string
	createdAt  time.Time

	outbox lifecycle.Outbox
}

// NewReview validates and creates a review for a completed booking.
func NewReview(actor lifecycle.Actor, bk *booking.Booking, rating int, comment string, now time.Time) (*Review, error) {
	clientID := bk.ClientID()
	if !actor.Is(lifecycle.RoleClient, &clientID) {
		return nil, domain.NewForbiddenError("only the booking's client may review it").
			With("role", string(actor.Role))
	}
	if !bk.Status().HasCompleted() || bk.ProviderID() == nil {
		return nil, domain.NewInvalidBookingStateError(string(bk.Status()), "only completed bookings can be reviewed").
			With("event", "review")
	}
	if rating < MinRating || rating > MaxRating {
		return nil, domain.NewValidationError(fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > maxCommentLength {
		return nil, domain.NewValidationError("comment is too long")
	}

	r := &Review{
		id:         uuid.New(),
		bookingID:  bk.ID(),
		clientID:   clientID,
		providerID: *bk.ProviderID(),
		rating:     rating,
		comment:    comment,
		createdAt:  now,
	}
	r.outbox.Record(lifecycle.AuditEvent{
		EntityType: lifecycle.EntityReview,
		EntityID:   r.id,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Event:      "create",
		Timestamp:  now,
		Meta: map[string]string{
			"booking_id": r.bookingID.String(),
			"rating":     fmt.Sprint(rating),
		},
	})
	r.outbox.Notify(lifecycle.ToUser(r.providerID, "review.received", map[string]string{
		"review_id":  r.id.String(),
		"booking_id": r.bookingID.String(),
		"rating":     fmt.Sprint(rating),
	}))
	return r, nil
}

// Reconstruct rebuilds a Review from persistence data.
func Reconstruct(id, bookingID, clientID, providerID uuid.UUID, rating int, comment string, createdAt time.Time) *Review {
	return &Review{
		id:         id,
		bookingID:  bookingID,
		clientID:   clientID,
		providerID: providerID,
		rating:     rating,
		comment:    comment,
		createdAt:  createdAt,
	}
}

func (r *Review) ID() uuid.UUID         { return r.id }
func (r *Review) BookingID() uuid.UUID  { return r.bookingID }
func (r *Review) ClientID() uuid.UUID   { return r.clientID }
func (r *Review) ProviderID() uuid.UUID { return r.providerID }
func (r *Review) Rating() int           { return r.rating }
func (r *Review) Comment() string       { return r.comment }
func (r *Review) CreatedAt() time.Time  { return r.createdAt }

// PullOutbox returns side effects recorded since the last pull.
func (r *Review) PullOutbox() lifecycle.Outbox { return r.outbox.Pull() }
