package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homefix/service-lifecycle/internal/common/domain"
	"github.com/homefix/service-lifecycle/internal/domain/lifecycle"
)

func claimReq(bookingID uuid.UUID) CreateClaimRequest {
	return CreateClaimRequest{BookingID: bookingID, IssueDetails: "grout cracked again", AttachmentURLs: []string{"att/1.png"}}
}

func TestCreateClaim_OneMillisecondBeforeExpiry(t *testing.T) {
	h := newHarness()
	done, err := h.completed()
	require.NoError(t, err)

	h.clock.Set(done.WarrantyExpiresAt.Add(-time.Millisecond))
	claim, err := h.warranty.CreateClaim(context.Background(), h.client, claimReq(done.ID))
	require.NoError(t, err)
	assert.Equal(t, "pending", claim.Status)
	assert.Equal(t, []string{"att/1.png"}, claim.AttachmentURLs)
}

func TestCreateClaim_AtExpiry(t *testing.T) {
	h := newHarness()
	done, err := h.completed()
	require.NoError(t, err)

	h.clock.Set(*done.WarrantyExpiresAt)
	_, err = h.warranty.CreateClaim(context.Background(), h.client, claimReq(done.ID))
	assert.True(t, domain.IsKind(err, domain.KindEligibilityExpired), "got %v", err)
}

func TestCreateClaim_BookingNotCompleted(t *testing.T) {
	h := newHarness()
	id, err := h.inProgress()
	require.NoError(t, err)

	_, err = h.warranty.CreateClaim(context.Background(), h.client, claimReq(id))
	assert.True(t, domain.IsKind(err, domain.KindInvalidBookingState))
}

func TestCreateClaim_UnknownBooking(t *testing.T) {
	h := newHarness()

	_, err := h.warranty.CreateClaim(context.Background(), h.client, claimReq(uuid.New()))
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestCreateClaim_DuplicateRegardlessOfStatus(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	done, err := h.completed()
	require.NoError(t, err)

	first, err := h.warranty.CreateClaim(ctx, h.client, claimReq(done.ID))
	require.NoError(t, err)
	_, err = h.warranty.RejectClaim(ctx, h.admin, first.ID, nil, "not covered")
	require.NoError(t, err)

	_, err = h.warranty.CreateClaim(ctx, h.client, claimReq(done.ID))
	assert.True(t, domain.IsKind(err, domain.KindDuplicateClaim))
}

func TestCreateClaim_ConcurrentCreatesOneWins(t *testing.T) {
	h := newHarness()
	done, err := h.completed()
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.warranty.CreateClaim(context.Background(), h.client, claimReq(done.ID))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, e := range errs {
		if e == nil {
			successes++
			continue
		}
		assert.True(t, domain.IsKind(e, domain.KindDuplicateClaim), "got %v", e)
	}
	assert.Equal(t, 1, successes)
}

func TestClaimLifecycle(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	done, err := h.completed()
	require.NoError(t, err)
	claim, err := h.warranty.CreateClaim(ctx, h.client, claimReq(done.ID))
	require.NoError(t, err)

	_, err = h.warranty.AssignAgent(ctx, h.admin, claim.ID, nil, uuid.New())
	assert.True(t, domain.IsKind(err, domain.KindNotFound), "agent must resolve to a provider")

	assigned, err := h.warranty.AssignAgent(ctx, h.admin, claim.ID, ptr(claim.Version), h.provider.ID)
	require.NoError(t, err)
	assert.Equal(t, "assigned", assigned.Status)
	assert.Equal(t, h.provider.ID, *assigned.AssignedAgentID)

	_, err = h.warranty.StartClaim(ctx, lifecycle.Provider(uuid.New()), claim.ID, nil)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))

	started, err := h.warranty.StartClaim(ctx, h.provider, claim.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "in_progress", started.Status)

	_, err = h.warranty.ResolveClaim(ctx, h.provider, claim.ID, ptr(assigned.Version), "stale")
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	resolved, err := h.warranty.ResolveClaim(ctx, h.provider, claim.ID, ptr(started.Version), "regrouted")
	require.NoError(t, err)
	assert.Equal(t, "resolved", resolved.Status)
	assert.Equal(t, "regrouted", resolved.ResolutionNotes)

	_, err = h.warranty.RejectClaim(ctx, h.admin, claim.ID, nil, "")
	assert.True(t, domain.IsKind(err, domain.KindInvalidTransition))
}

func TestListClaims_ByRole(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	done, err := h.completed()
	require.NoError(t, err)
	claim, err := h.warranty.CreateClaim(ctx, h.client, claimReq(done.ID))
	require.NoError(t, err)

	mine, err := h.warranty.ListClaims(ctx, h.client, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), mine.Total)

	assigned, err := h.warranty.ListClaims(ctx, h.provider, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), assigned.Total)

	_, err = h.warranty.AssignAgent(ctx, h.admin, claim.ID, nil, h.provider.ID)
	require.NoError(t, err)
	assigned, err = h.warranty.ListClaims(ctx, h.provider, "assigned", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), assigned.Total)

	_, err = h.warranty.ListClaims(ctx, h.admin, "bogus", 1, 10)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = h.warranty.GetClaim(ctx, lifecycle.Client(uuid.New()), claim.ID)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))
}
