package booking

import (
	"github.com/homefix/service-lifecycle/internal/common/domain"
	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
)

// Event is a command that may move a booking between states.
type Event string

const (
	EventAssign         Event = "assign"
	EventAccept         Event = "accept"
	EventReject         Event = "reject"
	EventCancel         Event = "cancel"
	EventStart          Event = "start"
	EventComplete       Event = "complete"
	EventProposeExtra   Event = "propose_extra"
	EventConfirmExtras  Event = "confirm_extras"
	EventAttachWarranty Event = "attach_warranty_slip"
)

// AllEvents lists every booking event. Each one must have a rule.
var AllEvents = []Event{
	EventAssign,
	EventAccept,
	EventReject,
	EventCancel,
	EventStart,
	EventComplete,
	EventProposeExtra,
	EventConfirmExtras,
	EventAttachWarranty,
}

type actorPredicate func(b *Booking, a lifecycle.Actor) bool

type transitionRule struct {
	from  []BookingStatus
	to    BookingStatus
	actor actorPredicate
	// who names the permitted actor for error context.
	who string
	// stateError overrides the InvalidTransition failure for a disallowed source state.
	stateError func(s BookingStatus, e Event) error
}

func isAdmin(_ *Booking, a lifecycle.Actor) bool { return a.Role == lifecycle.RoleAdmin }

func isAssignedProvider(b *Booking, a lifecycle.Actor) bool {
	return a.Is(lifecycle.RoleProvider, b.providerID)
}

func isOwner(b *Booking, a lifecycle.Actor) bool {
	return a.Is(lifecycle.RoleClient, &b.clientID)
}

func isOwnerOrAssignedProvider(b *Booking, a lifecycle.Actor) bool {
	return isOwner(b, a) || isAssignedProvider(b, a)
}

func cancelStateError(s BookingStatus, e Event) error {
	if s == StatusInProgress || s.HasCompleted() {
		return domain.NewCancelWindowClosedError(string(s))
	}
	return domain.NewInvalidTransitionError(string(s), string(e))
}

func negotiationStateError(s BookingStatus, e Event) error {
	return domain.NewInvalidBookingStateError(string(s), "extra services can only be negotiated while the booking is in progress").
		With("event", string(e))
}

var transitionRules = map[Event]transitionRule{
	EventAssign: {
		from: []BookingStatus{StatusPending}, to: StatusPending,
		actor: isAdmin, who: "admin",
	},
	EventAccept: {
		from: []BookingStatus{StatusPending}, to: StatusAccepted,
		actor: isAssignedProvider, who: "assigned provider",
	},
	EventReject: {
		from: []BookingStatus{StatusPending, StatusAccepted}, to: StatusRejected,
		actor: isAssignedProvider, who: "assigned provider",
	},
	EventCancel: {
		from: []BookingStatus{StatusPending, StatusAccepted}, to: StatusCancelled,
		actor: isOwnerOrAssignedProvider, who: "client or assigned provider",
		stateError: cancelStateError,
	},
	EventStart: {
		from: []BookingStatus{StatusAccepted}, to: StatusInProgress,
		actor: isAssignedProvider, who: "assigned provider",
	},
	EventComplete: {
		from: []BookingStatus{StatusInProgress}, to: StatusCompleted,
		actor: isAssignedProvider, who: "assigned provider",
	},
	EventProposeExtra: {
		from: []BookingStatus{StatusInProgress}, to: StatusInProgress,
		actor: isAssignedProvider, who: "assigned provider",
		stateError: negotiationStateError,
	},
	EventConfirmExtras: {
		from: []BookingStatus{StatusInProgress}, to: StatusInProgress,
		actor: isOwner, who: "client",
		stateError: negotiationStateError,
	},
	EventAttachWarranty: {
		from: []BookingStatus{StatusCompleted}, to: StatusCompleted,
		actor: isAssignedProvider, who: "assigned provider",
		stateError: func(s BookingStatus, _ Event) error {
			return domain.NewInvalidBookingStateError(string(s), "warranty slip can only be attached to a completed booking")
		},
	},
}

// Authorize checks (current state, event, actor) against the transition matrix and
// returns the target state. Anything not explicitly allowed is denied, including
// unknown events.
func Authorize(b *Booking, event Event, actor lifecycle.Actor) (BookingStatus, error) {
	rule, ok := transitionRules[event]
	if !ok {
		return "", domain.NewInvalidTransitionError(string(b.status), string(event)).With("reason", "unknown event")
	}

	if !containsStatus(rule.from, b.status) {
		if rule.stateError != nil {
			return "", rule.stateError(b.status, event)
		}
		return "", domain.NewInvalidTransitionError(string(b.status), string(event))
	}

	if !rule.actor(b, actor) {
		return "", domain.NewForbiddenError("caller may not "+string(event)+" this booking").
			With("event", string(event)).
			With("state", string(b.status)).
			With("role", string(actor.Role)).
			With("required", rule.who)
	}

	return rule.to, nil
}

// Allowed reports whether the event is legal from the status for some actor.
func Allowed(status BookingStatus, event Event) bool {
	rule, ok := transitionRules[event]
	return ok && containsStatus(rule.from, status)
}

func containsStatus(list []BookingStatus, s BookingStatus) bool {
	for _, st := range list {
		if st == s {
			return true
		}
	}
	return false
}
