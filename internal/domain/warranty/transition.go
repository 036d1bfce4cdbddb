package warranty

import (
	"github.com/homefix/service-lifecycle/internal/common/domain"
	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
)

// Event is a command on a warranty claim.
type Event string

const (
	EventAssign  Event = "assign"
	EventReject  Event = "reject"
	EventStart   Event = "start"
	EventResolve Event = "resolve"
)

// AllEvents lists every claim event. Each one must have a rule.
var AllEvents = []Event{EventAssign, EventReject, EventStart, EventResolve}

type transitionRule struct {
	from  []ClaimStatus
	to    ClaimStatus
	actor func(c *Claim, a lifecycle.Actor) bool
	who   string
}

func isAdmin(_ *Claim, a lifecycle.Actor) bool { return a.Role == lifecycle.RoleAdmin }

func isAssignedAgent(c *Claim, a lifecycle.Actor) bool {
	return a.Is(lifecycle.RoleProvider, c.assignedAgentID)
}

func isAdminOrAssignedAgent(c *Claim, a lifecycle.Actor) bool {
	return isAdmin(c, a) || isAssignedAgent(c, a)
}

var transitionRules = map[Event]transitionRule{
	EventAssign:  {from: []ClaimStatus{ClaimPending}, to: ClaimAssigned, actor: isAdmin, who: "admin"},
	EventReject:  {from: []ClaimStatus{ClaimPending}, to: ClaimRejected, actor: isAdmin, who: "admin"},
	EventStart:   {from: []ClaimStatus{ClaimAssigned}, to: ClaimInProgress, actor: isAssignedAgent, who: "assigned agent"},
	EventResolve: {from: []ClaimStatus{ClaimAssigned, ClaimInProgress}, to: ClaimResolved, actor: isAdminOrAssignedAgent, who: "admin or assigned agent"},
}

// Authorize checks (state, event, actor) and returns the target state. Unlisted
// pairs and unknown events are denied.
func Authorize(c *Claim, event Event, actor lifecycle.Actor) (ClaimStatus, error) {
	rule, ok := transitionRules[event]
	if !ok {
		return "", domain.NewInvalidTransitionError(string(c.status), string(event)).With("reason", "unknown event")
	}
	if !containsStatus(rule.from, c.status) {
		return "", domain.NewInvalidTransitionError(string(c.status), string(event))
	}
	if !rule.actor(c, actor) {
		return "", domain.NewForbiddenError("caller may not "+string(event)+" this claim").
			With("event", string(event)).
			With("state", string(c.status)).
			With("role", string(actor.Role)).
			With("required", rule.who)
	}
	return rule.to, nil
}

// Allowed reports whether the event is legal from the status for some actor.
func Allowed(status ClaimStatus, event Event) bool {
	rule, ok := transitionRules[event]
	return ok && containsStatus(rule.from, status)
}

func containsStatus(list []ClaimStatus, s ClaimStatus) bool {
	for _, st := range list {
		if st == s {
			return true
		}
	}
	return false
}
