package booking

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/homefix/service-lifecycle/internal/common/domain"
	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
)

func TestTransitionRules_EveryEventHasRule(t *testing.T) {
	for _, e := range AllEvents {
		_, ok := transitionRules[e]
		assert.True(t, ok, "event %s has no rule", e)
	}
	assert.Len(t, transitionRules, len(AllEvents))
}

func TestAuthorize_UnknownEventDenied(t *testing.T) {
	f := newFixture()
	b := f.newBooking(t, 100)

	_, err := Authorize(b, Event("teleport"), f.admin())
	assert.True(t, domain.IsKind(err, domain.KindInvalidTransition))
}

// Every (state, event) pair outside the matrix must be denied, whoever asks.
func TestAuthorize_DeniesByDefault(t *testing.T) {
	providerID := uuid.New()
	clientID := uuid.New()
	actors := []lifecycle.Actor{
		lifecycle.Admin(uuid.New()),
		lifecycle.Client(clientID),
		lifecycle.Provider(providerID),
	}

	for _, status := range AllStatuses {
		b := ReconstructBooking(ReconstructParams{
			ID:         uuid.New(),
			ClientID:   clientID,
			ProviderID: &providerID,
			Status:     status,
		})
		for _, event := range AllEvents {
			if Allowed(status, event) {
				continue
			}
			for _, a := range actors {
				_, err := Authorize(b, event, a)
				assert.Error(t, err, "%s/%s by %s", status, event, a.Role)
				kind, _ := domain.KindOf(err)
				assert.NotEqual(t, domain.KindForbidden, kind, "state must be checked before role for %s/%s", status, event)
			}
		}
	}
}

func TestAuthorize_Matrix(t *testing.T) {
	providerID := uuid.New()
	clientID := uuid.New()
	client := lifecycle.Client(clientID)
	provider := lifecycle.Provider(providerID)
	admin := lifecycle.Admin(uuid.New())

	cases := []struct {
		status BookingStatus
		event  Event
		actor  lifecycle.Actor
		to     BookingStatus
		kind   domain.Kind
	}{
		{StatusPending, EventAssign, admin, StatusPending, ""},
		{StatusPending, EventAssign, provider, "", domain.KindForbidden},
		{StatusPending, EventAccept, provider, StatusAccepted, ""},
		{StatusPending, EventAccept, client, "", domain.KindForbidden},
		{StatusAccepted, EventAccept, provider, "", domain.KindInvalidTransition},
		{StatusAccepted, EventReject, provider, StatusRejected, ""},
		{StatusPending, EventCancel, client, StatusCancelled, ""},
		{StatusAccepted, EventCancel, provider, StatusCancelled, ""},
		{StatusAccepted, EventCancel, admin, "", domain.KindForbidden},
		{StatusInProgress, EventCancel, client, "", domain.KindCancelWindowClosed},
		{StatusWarrantyClaimed, EventCancel, client, "", domain.KindCancelWindowClosed},
		{StatusCancelled, EventCancel, client, "", domain.KindInvalidTransition},
		{StatusAccepted, EventStart, provider, StatusInProgress, ""},
		{StatusPending, EventStart, provider, "", domain.KindInvalidTransition},
		{StatusInProgress, EventComplete, provider, StatusCompleted, ""},
		{StatusInProgress, EventComplete, admin, "", domain.KindForbidden},
		{StatusInProgress, EventProposeExtra, provider, StatusInProgress, ""},
		{StatusCompleted, EventProposeExtra, provider, "", domain.KindInvalidBookingState},
		{StatusInProgress, EventConfirmExtras, client, StatusInProgress, ""},
		{StatusAccepted, EventConfirmExtras, client, "", domain.KindInvalidBookingState},
	}

	for _, tc := range cases {
		b := ReconstructBooking(ReconstructParams{ID: uuid.New(), ClientID: clientID, ProviderID: &providerID, Status: tc.status})
		to, err := Authorize(b, tc.event, tc.actor)
		if tc.kind == "" {
			assert.NoError(t, err, "%s/%s", tc.status, tc.event)
			assert.Equal(t, tc.to, to)
			continue
		}
		assert.True(t, domain.IsKind(err, tc.kind), "%s/%s by %s: got %v", tc.status, tc.event, tc.actor.Role, err)
	}
}
