package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/homefix/service-lifecycle/internal/common/domain"
	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// WarrantyWindow is how long after completion a warranty claim may be opened.
const WarrantyWindow = 14 * 24 * time.Hour

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	clientID      uuid.UUID
	providerID    *uuid.UUID
	serviceID     uuid.UUID
	status        BookingStatus

	basePriceCents int64
	priceCents     int64
	currency       string

	slot          Slot
	address       Address
	paymentMethod PaymentMethod
	extraServices []ExtraServiceRequest

	warrantySlip      string
	warrantyExpiresAt *time.Time
	completedAt       *time.Time
	cancelReason      string
	rejectReason      string
	notes             string

	version         int64
	createdAt       time.Time
	statusUpdatedAt time.Time
	updatedAt       time.Time

	outbox lifecycle.Outbox
}

// NewBookingParams holds the inputs for a new booking.
type NewBookingParams struct {
	ClientID       uuid.UUID
	ServiceID      uuid.UUID
	ServiceName    string
	BasePriceCents int64
	Currency       string
	Slot           Slot
	Address        Address
	PaymentMethod  PaymentMethod
	Notes          string
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// NewBooking creates a new Booking aggregate with status=pending and no provider.
func NewBooking(p NewBookingParams, now time.Time) (*Booking, error) {
	if p.ClientID == uuid.Nil {
		return nil, domain.NewValidationError("client ID is required")
	}
	if p.ServiceID == uuid.Nil {
		return nil, domain.NewValidationError("service ID is required")
	}
	if p.BasePriceCents < 0 {
		return nil, domain.NewValidationError("base price cannot be negative")
	}
	if err := p.Slot.validate(); err != nil {
		return nil, err
	}
	if err := p.Address.validate(); err != nil {
		return nil, err
	}
	if !p.PaymentMethod.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid payment method: %s", p.PaymentMethod))
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(p.Currency)
	if currency == "" {
		currency = "USD"
	}

	b := &Booking{
		id:              uuid.New(),
		bookingNumber:   bookingNumber,
		clientID:        p.ClientID,
		serviceID:       p.ServiceID,
		status:          StatusPending,
		basePriceCents:  p.BasePriceCents,
		currency:        currency,
		slot:            p.Slot,
		address:         p.Address,
		paymentMethod:   p.PaymentMethod,
		extraServices:   []ExtraServiceRequest{},
		notes:           p.Notes,
		version:         1,
		createdAt:       now,
		statusUpdatedAt: now,
		updatedAt:       now,
	}
	b.reprice()

	b.outbox.Record(lifecycle.AuditEvent{
		EntityType: lifecycle.EntityBooking,
		EntityID:   b.id,
		ActorID:    p.ClientID,
		ActorRole:  lifecycle.RoleClient,
		Event:      "create",
		ToState:    string(StatusPending),
		Timestamp:  now,
		Meta:       map[string]string{"service_id": p.ServiceID.String(), "price_cents": fmt.Sprint(b.priceCents)},
	})
	b.outbox.Notify(lifecycle.ToAdmins("booking.created", map[string]string{
		"booking_id":     b.id.String(),
		"booking_number": b.bookingNumber,
		"service":        p.ServiceName,
	}))
	return b, nil
}

// ReconstructParams carries persisted booking state.
type ReconstructParams struct {
	ID                uuid.UUID
	BookingNumber     string
	ClientID          uuid.UUID
	ProviderID        *uuid.UUID
	ServiceID         uuid.UUID
	Status            BookingStatus
	BasePriceCents    int64
	PriceCents        int64
	Currency          string
	Slot              Slot
	Address           Address
	PaymentMethod     PaymentMethod
	ExtraServices     []ExtraServiceRequest
	WarrantySlip      string
	WarrantyExpiresAt *time.Time
	CompletedAt       *time.Time
	CancelReason      string
	RejectReason      string
	Notes             string
	Version           int64
	CreatedAt         time.Time
	StatusUpdatedAt   time.Time
	UpdatedAt         time.Time
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(p ReconstructParams) *Booking {
	extras := p.ExtraServices
	if extras == nil {
		extras = []ExtraServiceRequest{}
	}
	return &Booking{
		id:                p.ID,
		bookingNumber:     p.BookingNumber,
		clientID:          p.ClientID,
		providerID:        p.ProviderID,
		serviceID:         p.ServiceID,
		status:            p.Status,
		basePriceCents:    p.BasePriceCents,
		priceCents:        p.PriceCents,
		currency:          p.Currency,
		slot:              p.Slot,
		address:           p.Address,
		paymentMethod:     p.PaymentMethod,
		extraServices:     extras,
		warrantySlip:      p.WarrantySlip,
		warrantyExpiresAt: p.WarrantyExpiresAt,
		completedAt:       p.CompletedAt,
		cancelReason:      p.CancelReason,
		rejectReason:      p.RejectReason,
		notes:             p.Notes,
		version:           p.Version,
		createdAt:         p.CreatedAt,
		statusUpdatedAt:   p.StatusUpdatedAt,
		updatedAt:         p.UpdatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// ClientID returns the owning client's user ID.
func (b *Booking) ClientID() uuid.UUID { return b.clientID }

// ProviderID returns the assigned provider's user ID, or nil if unassigned.
func (b *Booking) ProviderID() *uuid.UUID { return b.providerID }

// ServiceID returns the booked catalog service.
func (b *Booking) ServiceID() uuid.UUID { return b.serviceID }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// BasePriceCents returns the catalog price captured at creation.
func (b *Booking) BasePriceCents() int64 { return b.basePriceCents }

// PriceCents returns the current payable total.
func (b *Booking) PriceCents() int64 { return b.priceCents }

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

// Slot returns the requested slot.
func (b *Booking) Slot() Slot { return b.slot }

// Address returns the address snapshot.
func (b *Booking) Address() Address { return b.address }

// PaymentMethod returns the payment label.
func (b *Booking) PaymentMethod() PaymentMethod { return b.paymentMethod }

// ExtraServices returns a copy of the extra services in proposal order.
func (b *Booking) ExtraServices() []ExtraServiceRequest {
	out := make([]ExtraServiceRequest, len(b.extraServices))
	copy(out, b.extraServices)
	return out
}

// PendingExtras returns how many extra services await client confirmation.
func (b *Booking) PendingExtras() int {
	n := 0
	for _, e := range b.extraServices {
		if e.IsPending() {
			n++
		}
	}
	return n
}

// WarrantySlip returns the warranty document reference, if any.
func (b *Booking) WarrantySlip() string { return b.warrantySlip }

// WarrantyExpiresAt returns the end of the warranty window, set once at completion.
func (b *Booking) WarrantyExpiresAt() *time.Time { return b.warrantyExpiresAt }

// CompletedAt returns the completion time.
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }

// CancelReason returns the cancellation reason.
func (b *Booking) CancelReason() string { return b.cancelReason }

// RejectReason returns the provider's rejection reason.
func (b *Booking) RejectReason() string { return b.rejectReason }

// Notes returns the client's notes.
func (b *Booking) Notes() string { return b.notes }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// StatusUpdatedAt returns when the status last changed.
func (b *Booking) StatusUpdatedAt() time.Time { return b.statusUpdatedAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// IsParticipant reports whether the actor may view the booking.
func (b *Booking) IsParticipant(a lifecycle.Actor) bool {
	return a.Role == lifecycle.RoleAdmin || isOwner(b, a) || isAssignedProvider(b, a)
}

// WarrantyOpen reports whether a warranty claim may still be opened at now.
// The window is half-open: a claim at exactly the expiry instant is too late.
func (b *Booking) WarrantyOpen(now time.Time) bool {
	return b.status == StatusCompleted && b.warrantyExpiresAt != nil && now.Before(*b.warrantyExpiresAt)
}

// PullOutbox returns side effects recorded since the last pull.
func (b *Booking) PullOutbox() lifecycle.Outbox { return b.outbox.Pull() }

// --- Behavior ---

// AssignProvider sets the provider on a pending, unassigned booking.
func (b *Booking) AssignProvider(actor lifecycle.Actor, providerID uuid.UUID, now time.Time) error {
	to, err := Authorize(b, EventAssign, actor)
	if err != nil {
		return err
	}
	if providerID == uuid.Nil {
		return domain.NewValidationError("provider ID is required")
	}
	if b.providerID != nil {
		return domain.NewInvalidTransitionError(string(b.status), string(EventAssign)).With("reason", "provider already assigned")
	}

	b.providerID = &providerID
	b.transition(actor, EventAssign, to, now, map[string]string{"provider_id": providerID.String()})
	b.outbox.Notify(lifecycle.ToUser(providerID, "booking.assigned", b.payload()))
	return nil
}

// Accept transitions pending to accepted for the assigned provider.
func (b *Booking) Accept(actor lifecycle.Actor, now time.Time) error {
	to, err := Authorize(b, EventAccept, actor)
	if err != nil {
		return err
	}
	b.transition(actor, EventAccept, to, now, nil)
	b.outbox.Notify(lifecycle.ToUser(b.clientID, "booking.accepted", b.payload()))
	return nil
}

// Reject transitions pending or accepted to rejected for the assigned provider.
func (b *Booking) Reject(actor lifecycle.Actor, reason string, now time.Time) error {
	to, err := Authorize(b, EventReject, actor)
	if err != nil {
		return err
	}
	b.rejectReason = reason
	b.transition(actor, EventReject, to, now, map[string]string{"reason": reason})
	b.outbox.Notify(lifecycle.ToUser(b.clientID, "booking.rejected", b.payloadWith("reason", reason)))
	return nil
}

// Cancel transitions pending or accepted to cancelled. Once work has started the
// cancellation window is closed.
func (b *Booking) Cancel(actor lifecycle.Actor, reason string, now time.Time) error {
	to, err := Authorize(b, EventCancel, actor)
	if err != nil {
		return err
	}
	b.cancelReason = reason
	b.transition(actor, EventCancel, to, now, map[string]string{"reason": reason})

	// Tell the other side.
	counterpart := b.clientID
	if actor.Role == lifecycle.RoleClient {
		if b.providerID == nil {
			b.outbox.Notify(lifecycle.ToAdmins("booking.cancelled", b.payloadWith("reason", reason)))
			return nil
		}
		counterpart = *b.providerID
	}
	b.outbox.Notify(lifecycle.ToUser(counterpart, "booking.cancelled", b.payloadWith("reason", reason)))
	return nil
}

// Start transitions accepted to in_progress.
func (b *Booking) Start(actor lifecycle.Actor, now time.Time) error {
	to, err := Authorize(b, EventStart, actor)
	if err != nil {
		return err
	}
	b.transition(actor, EventStart, to, now, nil)
	b.outbox.Notify(lifecycle.ToUser(b.clientID, "booking.started", b.payload()))
	return nil
}

// Complete transitions in_progress to completed. It is refused while any extra
// service is unconfirmed. The warranty window starts here and is never moved.
func (b *Booking) Complete(actor lifecycle.Actor, warrantySlip string, window time.Duration, now time.Time) error {
	to, err := Authorize(b, EventComplete, actor)
	if err != nil {
		return err
	}
	if pending := b.PendingExtras(); pending > 0 {
		return domain.NewInvalidBookingStateError(string(b.status), "extra services are awaiting client confirmation").
			With("pending_extras", fmt.Sprint(pending))
	}
	if window <= 0 {
		window = WarrantyWindow
	}

	b.reprice()
	if b.warrantyExpiresAt == nil {
		expires := now.Add(window)
		b.warrantyExpiresAt = &expires
		completed := now
		b.completedAt = &completed
	}
	if warrantySlip != "" {
		b.warrantySlip = warrantySlip
	}

	b.transition(actor, EventComplete, to, now, map[string]string{
		"price_cents":         fmt.Sprint(b.priceCents),
		"warranty_expires_at": b.warrantyExpiresAt.Format(time.RFC3339Nano),
	})
	b.outbox.Notify(lifecycle.ToUser(b.clientID, "booking.completed", b.payloadWith("price_cents", fmt.Sprint(b.priceCents))))
	return nil
}

// AttachWarrantySlip stores the warranty document on a completed booking.
func (b *Booking) AttachWarrantySlip(actor lifecycle.Actor, slip string, now time.Time) error {
	to, err := Authorize(b, EventAttachWarranty, actor)
	if err != nil {
		return err
	}
	if strings.TrimSpace(slip) == "" {
		return domain.NewValidationError("warranty slip reference is required")
	}
	b.warrantySlip = slip
	b.transition(actor, EventAttachWarranty, to, now, map[string]string{"warranty_slip": slip})
	b.outbox.Notify(lifecycle.ToUser(b.clientID, "booking.warranty_slip_attached", b.payload()))
	return nil
}

// ProposeExtraService appends a pending extra service. Price is unaffected until confirmation.
func (b *Booking) ProposeExtraService(actor lifecycle.Actor, serviceID uuid.UUID, name string, priceCents int64, now time.Time) (ExtraServiceRequest, error) {
	to, err := Authorize(b, EventProposeExtra, actor)
	if err != nil {
		return ExtraServiceRequest{}, err
	}
	if serviceID == uuid.Nil {
		return ExtraServiceRequest{}, domain.NewValidationError("service ID is required")
	}
	if priceCents <= 0 {
		return ExtraServiceRequest{}, domain.NewValidationError("extra service price must be positive")
	}

	extra := ExtraServiceRequest{
		ID:         uuid.New(),
		ServiceID:  serviceID,
		Name:       name,
		PriceCents: priceCents,
		Status:     ExtraPending,
		ProposedAt: now,
	}
	b.extraServices = append(b.extraServices, extra)
	b.transition(actor, EventProposeExtra, to, now, map[string]string{
		"extra_id":    extra.ID.String(),
		"service_id":  serviceID.String(),
		"price_cents": fmt.Sprint(priceCents),
	})
	b.outbox.Notify(lifecycle.ToUser(b.clientID, "booking.extra_proposed", b.payloadWith("price_cents", fmt.Sprint(priceCents))))
	return extra, nil
}

// ConfirmExtraServices confirms every pending extra service as one batch and
// reprices the booking. It returns the number of extras confirmed.
func (b *Booking) ConfirmExtraServices(actor lifecycle.Actor, now time.Time) (int, error) {
	to, err := Authorize(b, EventConfirmExtras, actor)
	if err != nil {
		return 0, err
	}
	if b.PendingExtras() == 0 {
		return 0, domain.NewNothingToConfirmError(b.id.String())
	}

	// Build the confirmed set first so the aggregate never holds a partial batch.
	confirmed := make([]ExtraServiceRequest, len(b.extraServices))
	n := 0
	for i, e := range b.extraServices {
		if e.IsPending() {
			at := now
			e.Status = ExtraConfirmed
			e.ConfirmedAt = &at
			n++
		}
		confirmed[i] = e
	}
	b.extraServices = confirmed

	previous := b.priceCents
	b.reprice()
	b.transition(actor, EventConfirmExtras, to, now, map[string]string{
		"confirmed":       fmt.Sprint(n),
		"old_price_cents": fmt.Sprint(previous),
		"new_price_cents": fmt.Sprint(b.priceCents),
	})
	if b.providerID != nil {
		b.outbox.Notify(lifecycle.ToUser(*b.providerID, "booking.extras_confirmed", b.payloadWith("price_cents", fmt.Sprint(b.priceCents))))
	}
	return n, nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
}

// reprice is the only writer of priceCents.
func (b *Booking) reprice() {
	b.priceCents = ComputePrice(b.basePriceCents, b.extraServices)
}

func (b *Booking) transition(actor lifecycle.Actor, event Event, to BookingStatus, now time.Time, meta map[string]string) {
	from := b.status
	b.status = to
	b.statusUpdatedAt = now
	b.updatedAt = now

	b.outbox.Record(lifecycle.AuditEvent{
		EntityType: lifecycle.EntityBooking,
		EntityID:   b.id,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Event:      string(event),
		FromState:  string(from),
		ToState:    string(to),
		Timestamp:  now,
		Meta:       meta,
	})
}

func (b *Booking) payload() map[string]string {
	return map[string]string{
		"booking_id":     b.id.String(),
		"booking_number": b.bookingNumber,
		"status":         string(b.status),
	}
}

func (b *Booking) payloadWith(key, value string) map[string]string {
	p := b.payload()
	p[key] = value
	return p
}
