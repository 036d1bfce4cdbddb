package lifecycle

import (
	"time"

	"github.com/google/uuid"
)

// EntityType names the kind of record an audit event is about.
type EntityType string

const (
	EntityBooking       EntityType = "booking"
	EntityWarrantyClaim EntityType = "warranty_claim"
	EntityReview        EntityType = "review"
)

// AuditEvent is a compliance record of one state change.
type AuditEvent struct {
	EntityType EntityType        `json:"entity_type"`
	EntityID   uuid.UUID         `json:"entity_id"`
	ActorID    uuid.UUID         `json:"actor_id"`
	ActorRole  Role              `json:"actor_role"`
	Event      string            `json:"event"`
	FromState  string            `json:"from_state"`
	ToState    string            `json:"to_state"`
	Timestamp  time.Time         `json:"timestamp"`
	Meta       map[string]string `json:"meta,omitempty"`
}

// Audience selects who receives a notification.
type Audience string

const (
	AudienceUser   Audience = "user"
	AudienceAdmins Audience = "admins"
)

// Notification is a message for an affected user or the admin pool.
type Notification struct {
	Audience Audience          `json:"audience"`
	ToUserID uuid.UUID         `json:"to_user_id,omitempty"`
	Kind     string            `json:"kind"`
	Payload  map[string]string `json:"payload,omitempty"`
}

// ToUser addresses a notification to one user.
func ToUser(userID uuid.UUID, kind string, payload map[string]string) Notification {
	return Notification{Audience: AudienceUser, ToUserID: userID, Kind: kind, Payload: payload}
}

// ToAdmins addresses a notification to the admin pool.
func ToAdmins(kind string, payload map[string]string) Notification {
	return Notification{Audience: AudienceAdmins, Kind: kind, Payload: payload}
}

// Outbox collects the side effects of a transition. It is dispatched only after
// the transition's write has committed.
type Outbox struct {
	Audits        []AuditEvent
	Notifications []Notification
}

// Record appends an audit event.
func (o *Outbox) Record(e AuditEvent) { o.Audits = append(o.Audits, e) }

// Notify appends notifications.
func (o *Outbox) Notify(n ...Notification) { o.Notifications = append(o.Notifications, n...) }

// Empty reports whether there is nothing to dispatch.
func (o Outbox) Empty() bool { return len(o.Audits) == 0 && len(o.Notifications) == 0 }

// Pull returns the collected side effects and resets the outbox.
func (o *Outbox) Pull() Outbox {
	out := *o
	*o = Outbox{}
	return out
}
