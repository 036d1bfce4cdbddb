package warranty

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/homefix/service-lifecycle/internal/common/domain"
	"github.com/homefix/service-lifecycle/internal/domain/booking"
	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
)

// Claim is a client-initiated service issue report tied to a completed booking.
type Claim struct {
	id              uuid.UUID
	bookingID       uuid.UUID
	clientID        uuid.UUID
	status          ClaimStatus
	issueDetails    string
	attachmentURLs  []string
	assignedAgentID *uuid.UUID
	adminNotes      string
	resolutionNotes string

	version         int64
	createdAt       time.Time
	statusUpdatedAt time.Time
	updatedAt       time.Time

	outbox lifecycle.Outbox
}

// NewClaim opens a claim against a booking. The booking must be completed and the
// warranty window still open at now. The duplicate check is the repository's job:
// it is enforced by a unique index on booking_id.
func NewClaim(actor lifecycle.Actor, bk *booking.Booking, issueDetails string, attachmentURLs []string, now time.Time) (*Claim, error) {
	clientID := bk.ClientID()
	if !actor.Is(lifecycle.RoleClient, &clientID) {
		return nil, domain.NewForbiddenError("only the booking's client may open a warranty claim").
			With("role", string(actor.Role))
	}
	if bk.Status() != booking.StatusCompleted {
		return nil, domain.NewInvalidBookingStateError(string(bk.Status()), "warranty claims require a completed booking").
			With("event", "create_claim")
	}
	if !bk.WarrantyOpen(now) {
		e := domain.NewEligibilityExpiredError("warranty window has closed").With("booking_id", bk.ID().String())
		if exp := bk.WarrantyExpiresAt(); exp != nil {
			e = e.With("warranty_expires_at", exp.Format(time.RFC3339Nano))
		}
		return nil, e
	}
	if strings.TrimSpace(issueDetails) == "" {
		return nil, domain.NewValidationError("issue details are required")
	}

	urls := make([]string, 0, len(attachmentURLs))
	for _, u := range attachmentURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}

	c := &Claim{
		id:              uuid.New(),
		bookingID:       bk.ID(),
		clientID:        clientID,
		status:          ClaimPending,
		issueDetails:    issueDetails,
		attachmentURLs:  urls,
		version:         1,
		createdAt:       now,
		statusUpdatedAt: now,
		updatedAt:       now,
	}
	c.outbox.Record(lifecycle.AuditEvent{
		EntityType: lifecycle.EntityWarrantyClaim,
		EntityID:   c.id,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Event:      "create",
		ToState:    string(ClaimPending),
		Timestamp:  now,
		Meta:       map[string]string{"booking_id": c.bookingID.String()},
	})
	c.outbox.Notify(lifecycle.ToAdmins("warranty.claim_created", c.payload()))
	return c, nil
}

// ReconstructParams carries persisted claim state.
type ReconstructParams struct {
	ID              uuid.UUID
	BookingID       uuid.UUID
	ClientID        uuid.UUID
	Status          ClaimStatus
	IssueDetails    string
	AttachmentURLs  []string
	AssignedAgentID *uuid.UUID
	AdminNotes      string
	ResolutionNotes string
	Version         int64
	CreatedAt       time.Time
	StatusUpdatedAt time.Time
	UpdatedAt       time.Time
}

// ReconstructClaim rebuilds a Claim from persistence data.
func ReconstructClaim(p ReconstructParams) *Claim {
	urls := p.AttachmentURLs
	if urls == nil {
		urls = []string{}
	}
	return &Claim{
		id:              p.ID,
		bookingID:       p.BookingID,
		clientID:        p.ClientID,
		status:          p.Status,
		issueDetails:    p.IssueDetails,
		attachmentURLs:  urls,
		assignedAgentID: p.AssignedAgentID,
		adminNotes:      p.AdminNotes,
		resolutionNotes: p.ResolutionNotes,
		version:         p.Version,
		createdAt:       p.CreatedAt,
		statusUpdatedAt: p.StatusUpdatedAt,
		updatedAt:       p.UpdatedAt,
	}
}

func (c *Claim) ID() uuid.UUID               { return c.id }
func (c *Claim) BookingID() uuid.UUID        { return c.bookingID }
func (c *Claim) ClientID() uuid.UUID         { return c.clientID }
func (c *Claim) Status() ClaimStatus         { return c.status }
func (c *Claim) IssueDetails() string        { return c.issueDetails }
func (c *Claim) AssignedAgentID() *uuid.UUID { return c.assignedAgentID }
func (c *Claim) AdminNotes() string          { return c.adminNotes }
func (c *Claim) ResolutionNotes() string     { return c.resolutionNotes }
func (c *Claim) Version() int64              { return c.version }
func (c *Claim) CreatedAt() time.Time        { return c.createdAt }
func (c *Claim) StatusUpdatedAt() time.Time  { return c.statusUpdatedAt }
func (c *Claim) UpdatedAt() time.Time        { return c.updatedAt }

// AttachmentURLs returns a copy of the attachment references in upload order.
func (c *Claim) AttachmentURLs() []string {
	out := make([]string, len(c.attachmentURLs))
	copy(out, c.attachmentURLs)
	return out
}

// IsVisibleTo reports whether the actor may read the claim.
func (c *Claim) IsVisibleTo(a lifecycle.Actor) bool {
	return a.Role == lifecycle.RoleAdmin || a.Is(lifecycle.RoleClient, &c.clientID) || isAssignedAgent(c, a)
}

// PullOutbox returns side effects recorded since the last pull.
func (c *Claim) PullOutbox() lifecycle.Outbox { return c.outbox.Pull() }

// IncrementVersion bumps the version for optimistic locking.
func (c *Claim) IncrementVersion() { c.version++ }

// AdminAssign hands a pending claim to a provider agent.
func (c *Claim) AdminAssign(actor lifecycle.Actor, agentID uuid.UUID, now time.Time) error {
	to, err := Authorize(c, EventAssign, actor)
	if err != nil {
		return err
	}
	if agentID == uuid.Nil {
		return domain.NewValidationError("agent ID is required")
	}
	c.assignedAgentID = &agentID
	c.transition(actor, EventAssign, to, now, map[string]string{"agent_id": agentID.String()})
	c.outbox.Notify(lifecycle.ToUser(agentID, "warranty.claim_assigned", c.payload()))
	return nil
}

// AdminReject closes a pending claim without work.
func (c *Claim) AdminReject(actor lifecycle.Actor, notes string, now time.Time) error {
	to, err := Authorize(c, EventReject, actor)
	if err != nil {
		return err
	}
	c.adminNotes = notes
	c.transition(actor, EventReject, to, now, map[string]string{"notes": notes})
	c.outbox.Notify(lifecycle.ToUser(c.clientID, "warranty.claim_rejected", c.payloadWith("notes", notes)))
	return nil
}

// AgentStart marks an assigned claim as being worked on.
func (c *Claim) AgentStart(actor lifecycle.Actor, now time.Time) error {
	to, err := Authorize(c, EventStart, actor)
	if err != nil {
		return err
	}
	c.transition(actor, EventStart, to, now, nil)
	return nil
}

// Resolve closes an assigned or in-progress claim. Admins and the assigned agent may resolve.
func (c *Claim) Resolve(actor lifecycle.Actor, notes string, now time.Time) error {
	to, err := Authorize(c, EventResolve, actor)
	if err != nil {
		return err
	}
	c.resolutionNotes = notes
	c.transition(actor, EventResolve, to, now, map[string]string{"notes": notes})
	c.outbox.Notify(lifecycle.ToUser(c.clientID, "warranty.claim_resolved", c.payloadWith("notes", notes)))
	return nil
}

func (c *Claim) transition(actor lifecycle.Actor, event Event, to ClaimStatus, now time.Time, meta map[string]string) {
	from := c.status
	c.status = to
	c.statusUpdatedAt = now
	c.updatedAt = now

	c.outbox.Record(lifecycle.AuditEvent{
		EntityType: lifecycle.EntityWarrantyClaim,
		EntityID:   c.id,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Event:      string(event),
		FromState:  string(from),
		ToState:    string(to),
		Timestamp:  now,
		Meta:       meta,
	})
}

func (c *Claim) payload() map[string]string {
	return map[string]string{
		"claim_id":   c.id.String(),
		"booking_id": c.bookingID.String(),
		"status":     string(c.status),
	}
}

func (c *Claim) payloadWith(key, value string) map[string]string {
	p := c.payload()
	p[key] = value
	return p
}
