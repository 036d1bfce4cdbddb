package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/homefix/service-lifecycle/internal/common/domain"
	bookingDomain "github.com/homefix/service-lifecycle/internal/domain/booking"
	"github.com/homefix/service-lifecycle/internal/domain/catalog"
	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
	"github.com/homefix/service-lifecycle/internal/domain/review"
	"github.com/homefix/service-lifecycle/internal/domain/warranty"
)

// memBookingRepo stores clones so callers can never mutate stored state, and
// applies the same conditional-write rule as the GORM repository.
type memBookingRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*bookingDomain.Booking
	// failUpdate forces Update to fail with an infrastructure error.
	failUpdate error
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{rows: map[uuid.UUID]*bookingDomain.Booking{}}
}

func cloneBooking(b *bookingDomain.Booking) *bookingDomain.Booking {
	var providerID *uuid.UUID
	if p := b.ProviderID(); p != nil {
		v := *p
		providerID = &v
	}
	return bookingDomain.ReconstructBooking(bookingDomain.ReconstructParams{
		ID:                b.ID(),
		BookingNumber:     b.BookingNumber(),
		ClientID:          b.ClientID(),
		ProviderID:        providerID,
		ServiceID:         b.ServiceID(),
		Status:            b.Status(),
		BasePriceCents:    b.BasePriceCents(),
		PriceCents:        b.PriceCents(),
		Currency:          b.Currency(),
		Slot:              b.Slot(),
		Address:           b.Address(),
		PaymentMethod:     b.PaymentMethod(),
		ExtraServices:     b.ExtraServices(),
		WarrantySlip:      b.WarrantySlip(),
		WarrantyExpiresAt: b.WarrantyExpiresAt(),
		CompletedAt:       b.CompletedAt(),
		CancelReason:      b.CancelReason(),
		RejectReason:      b.RejectReason(),
		Notes:             b.Notes(),
		Version:           b.Version(),
		CreatedAt:         b.CreatedAt(),
		StatusUpdatedAt:   b.StatusUpdatedAt(),
		UpdatedAt:         b.UpdatedAt(),
	})
}

func (r *memBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return cloneBooking(b), nil
}

func (r *memBookingRepo) filter(keep func(*bookingDomain.Booking) bool, page, limit int) ([]*bookingDomain.Booking, int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*bookingDomain.Booking
	for _, b := range r.rows {
		if keep(b) {
			all = append(all, cloneBooking(b))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt().After(all[j].CreatedAt()) })
	total := int64(len(all))
	start := domain.Offset(page, limit)
	if start >= len(all) {
		return []*bookingDomain.Booking{}, total
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total
}

func (r *memBookingRepo) FindByClientID(_ context.Context, clientID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	out, total := r.filter(func(b *bookingDomain.Booking) bool { return b.ClientID() == clientID }, page, limit)
	return out, total, nil
}

func (r *memBookingRepo) FindByProviderID(_ context.Context, providerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	out, total := r.filter(func(b *bookingDomain.Booking) bool {
		return b.ProviderID() != nil && *b.ProviderID() == providerID
	}, page, limit)
	return out, total, nil
}

func (r *memBookingRepo) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	out, total := r.filter(func(*bookingDomain.Booking) bool { return true }, page, limit)
	return out, total, nil
}

func (r *memBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int64{}
	for _, b := range r.rows {
		counts[string(b.Status())]++
	}
	return counts, nil
}

func (r *memBookingRepo) Save(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[b.ID()] = cloneBooking(b)
	return nil
}

func (r *memBookingRepo) Update(_ context.Context, b *bookingDomain.Booking, expected bookingDomain.BookingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return r.failUpdate
	}
	stored, ok := r.rows[b.ID()]
	if !ok || stored.Version() != b.Version()-1 || stored.Status() != expected {
		return domain.NewConflictError("booking was modified concurrently")
	}
	r.rows[b.ID()] = cloneBooking(b)
	return nil
}

func (r *memBookingRepo) stored(id uuid.UUID) *bookingDomain.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneBooking(r.rows[id])
}

type memClaimRepo struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]*warranty.Claim
	byBooking map[uuid.UUID]uuid.UUID
}

func newMemClaimRepo() *memClaimRepo {
	return &memClaimRepo{rows: map[uuid.UUID]*warranty.Claim{}, byBooking: map[uuid.UUID]uuid.UUID{}}
}

func cloneClaim(c *warranty.Claim) *warranty.Claim {
	var agent *uuid.UUID
	if a := c.AssignedAgentID(); a != nil {
		v := *a
		agent = &v
	}
	return warranty.ReconstructClaim(warranty.ReconstructParams{
		ID:              c.ID(),
		BookingID:       c.BookingID(),
		ClientID:        c.ClientID(),
		Status:          c.Status(),
		IssueDetails:    c.IssueDetails(),
		AttachmentURLs:  c.AttachmentURLs(),
		AssignedAgentID: agent,
		AdminNotes:      c.AdminNotes(),
		ResolutionNotes: c.ResolutionNotes(),
		Version:         c.Version(),
		CreatedAt:       c.CreatedAt(),
		StatusUpdatedAt: c.StatusUpdatedAt(),
		UpdatedAt:       c.UpdatedAt(),
	})
}

func (r *memClaimRepo) FindByID(_ context.Context, id uuid.UUID) (*warranty.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return nil, domain.NewNotFoundError("warranty claim", id.String())
	}
	return cloneClaim(c), nil
}

func (r *memClaimRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*warranty.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byBooking[bookingID]
	if !ok {
		return nil, domain.NewNotFoundError("warranty claim", bookingID.String())
	}
	return cloneClaim(r.rows[id]), nil
}

func (r *memClaimRepo) List(_ context.Context, f warranty.ClaimFilter, page, limit int) ([]*warranty.Claim, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*warranty.Claim
	for _, c := range r.rows {
		if f.ClientID != nil && c.ClientID() != *f.ClientID {
			continue
		}
		if f.AssignedAgentID != nil && (c.AssignedAgentID() == nil || *c.AssignedAgentID() != *f.AssignedAgentID) {
			continue
		}
		if f.Status != "" && c.Status() != f.Status {
			continue
		}
		out = append(out, cloneClaim(c))
	}
	return out, int64(len(out)), nil
}

func (r *memClaimRepo) Save(_ context.Context, c *warranty.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byBooking[c.BookingID()]; exists {
		return domain.NewDuplicateClaimError(c.BookingID().String())
	}
	r.rows[c.ID()] = cloneClaim(c)
	r.byBooking[c.BookingID()] = c.ID()
	return nil
}

func (r *memClaimRepo) Update(_ context.Context, c *warranty.Claim, expected warranty.ClaimStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.rows[c.ID()]
	if !ok || stored.Version() != c.Version()-1 || stored.Status() != expected {
		return domain.NewConflictError("warranty claim was modified concurrently")
	}
	r.rows[c.ID()] = cloneClaim(c)
	return nil
}

type memReviewRepo struct {
	mu        sync.Mutex
	byBooking map[uuid.UUID]*review.Review
}

func newMemReviewRepo() *memReviewRepo {
	return &memReviewRepo{byBooking: map[uuid.UUID]*review.Review{}}
}

func (r *memReviewRepo) Save(_ context.Context, rv *review.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byBooking[rv.BookingID()]; exists {
		return domain.NewDuplicateReviewError(rv.BookingID().String())
	}
	r.byBooking[rv.BookingID()] = rv
	return nil
}

func (r *memReviewRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*review.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.byBooking[bookingID]
	if !ok {
		return nil, domain.NewNotFoundError("review", bookingID.String())
	}
	return rv, nil
}

func (r *memReviewRepo) FindByProviderID(_ context.Context, providerID uuid.UUID, _, _ int) ([]*review.Review, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*review.Review
	for _, rv := range r.byBooking {
		if rv.ProviderID() == providerID {
			out = append(out, rv)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memReviewRepo) RatingForProvider(ctx context.Context, providerID uuid.UUID) (review.ProviderRating, error) {
	reviews, n, _ := r.FindByProviderID(ctx, providerID, 1, 0)
	if n == 0 {
		return review.ProviderRating{}, nil
	}
	sum := 0
	for _, rv := range reviews {
		sum += rv.Rating()
	}
	return review.ProviderRating{Count: n, Average: float64(sum) / float64(n)}, nil
}

type memServiceRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*catalog.Service
}

func (r *memServiceRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return nil, domain.NewNotFoundError("service", id.String())
	}
	return s, nil
}

func (r *memServiceRepo) ListActive(_ context.Context) ([]*catalog.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*catalog.Service
	for _, s := range r.rows {
		if s.IsActive() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memServiceRepo) Upsert(_ context.Context, s *catalog.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[s.ID()] = s
	return nil
}

type memProviderRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*catalog.Provider
}

func (r *memProviderRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, domain.NewNotFoundError("provider", id.String())
	}
	return p, nil
}

func (r *memProviderRepo) Upsert(_ context.Context, p *catalog.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[p.ID()] = p
	return nil
}

// recordingDispatcher captures outboxes instead of delivering them.
type recordingDispatcher struct {
	mu       sync.Mutex
	outboxes []lifecycle.Outbox
}

func (d *recordingDispatcher) Dispatch(_ context.Context, out lifecycle.Outbox) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outboxes = append(d.outboxes, out)
}

func (d *recordingDispatcher) audits() []lifecycle.AuditEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []lifecycle.AuditEvent
	for _, o := range d.outboxes {
		out = append(out, o.Audits...)
	}
	return out
}

func (d *recordingDispatcher) notifications() []lifecycle.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []lifecycle.Notification
	for _, o := range d.outboxes {
		out = append(out, o.Notifications...)
	}
	return out
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.outboxes)
}

var errSinkDown = errors.New("sink unavailable")

type failingAuditSink struct{ calls int }

func (s *failingAuditSink) Record(context.Context, lifecycle.AuditEvent) error {
	s.calls++
	return errSinkDown
}

type failingNotifier struct{ calls int }

func (n *failingNotifier) Emit(context.Context, lifecycle.Notification) error {
	n.calls++
	return errSinkDown
}

type memAuditSink struct {
	mu     sync.Mutex
	events []lifecycle.AuditEvent
}

func (s *memAuditSink) Record(_ context.Context, e lifecycle.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *memAuditSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type memNotifier struct {
	mu  sync.Mutex
	out []lifecycle.Notification
}

func (n *memNotifier) Emit(_ context.Context, msg lifecycle.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.out = append(n.out, msg)
	return nil
}

func (n *memNotifier) len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.out)
}

// harness wires every service over in-memory stores with a fixed clock.
type harness struct {
	clock      *lifecycle.FixedClock
	bookings   *memBookingRepo
	claims     *memClaimRepo
	reviews    *memReviewRepo
	dispatcher *recordingDispatcher

	catalog  *CatalogService
	booking  *BookingService
	warranty *WarrantyService
	review   *ReviewService

	client   lifecycle.Actor
	provider lifecycle.Actor
	admin    lifecycle.Actor
	service  uuid.UUID
	extraA   uuid.UUID
	extraB   uuid.UUID
}

var start = time.Date(2026, 4, 6, 8, 0, 0, 0, time.UTC)

func newHarness() *harness {
	h := &harness{
		clock:      &lifecycle.FixedClock{T: start},
		bookings:   newMemBookingRepo(),
		claims:     newMemClaimRepo(),
		reviews:    newMemReviewRepo(),
		dispatcher: &recordingDispatcher{},
		client:     lifecycle.Client(uuid.New()),
		provider:   lifecycle.Provider(uuid.New()),
		admin:      lifecycle.Admin(uuid.New()),
		service:    uuid.New(),
		extraA:     uuid.New(),
		extraB:     uuid.New(),
	}
	log := zap.NewNop()

	services := &memServiceRepo{rows: map[uuid.UUID]*catalog.Service{}}
	providers := &memProviderRepo{rows: map[uuid.UUID]*catalog.Provider{}}
	mustService := func(id uuid.UUID, name string, price int64) {
		s, err := catalog.NewService(id, name, "home", price, "USD", start)
		if err != nil {
			panic(err)
		}
		services.rows[id] = s
	}
	mustService(h.service, "Deep clean", 500)
	mustService(h.extraA, "Window wash", 150)
	mustService(h.extraB, "Oven clean", 80)
	p, err := catalog.NewProvider(h.provider.ID, "Ace Cleaning", start)
	if err != nil {
		panic(err)
	}
	providers.rows[p.ID()] = p

	h.catalog = NewCatalogService(services, providers, h.clock, log)
	h.booking = NewBookingService(h.bookings, h.catalog, h.catalog, h.dispatcher, h.clock, bookingDomain.WarrantyWindow, log)
	h.warranty = NewWarrantyService(h.claims, h.bookings, h.catalog, h.dispatcher, h.clock, log)
	h.review = NewReviewService(h.reviews, h.bookings, h.dispatcher, h.clock, log)
	return h
}

func (h *harness) createBooking() (*BookingDTO, error) {
	return h.booking.CreateBooking(context.Background(), h.client, CreateBookingRequest{
		ServiceID:     h.service,
		Slot:          bookingDomain.Slot{Date: start.Add(24 * time.Hour), StartTime: "09:00", EndTime: "11:00"},
		Address:       bookingDomain.Address{Line1: "12 Elm Row", City: "Leeds"},
		PaymentMethod: "card",
	})
}

// inProgress creates a booking and drives it to in_progress.
func (h *harness) inProgress() (uuid.UUID, error) {
	ctx := context.Background()
	bk, err := h.createBooking()
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := h.booking.AssignProvider(ctx, h.admin, bk.ID, nil, h.provider.ID); err != nil {
		return uuid.Nil, err
	}
	if _, err := h.booking.AcceptBooking(ctx, h.provider, bk.ID, nil); err != nil {
		return uuid.Nil, err
	}
	if _, err := h.booking.StartBooking(ctx, h.provider, bk.ID, nil); err != nil {
		return uuid.Nil, err
	}
	return bk.ID, nil
}

// completed creates a booking and drives it to completed at the current clock time.
func (h *harness) completed() (*BookingDTO, error) {
	id, err := h.inProgress()
	if err != nil {
		return nil, err
	}
	return h.booking.CompleteBooking(context.Background(), h.provider, id, nil, "")
}

func ptr[T any](v T) *T { return &v }
