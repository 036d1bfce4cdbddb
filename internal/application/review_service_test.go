package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homefix/service-lifecycle/internal/common/domain"
)

func TestSubmitReview(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	done, err := h.completed()
	require.NoError(t, err)

	rv, err := h.review.SubmitReview(ctx, h.client, done.ID, SubmitReviewRequest{Rating: 4, Comment: "on time"})
	require.NoError(t, err)
	assert.Equal(t, h.provider.ID, rv.ProviderID)

	_, err = h.review.SubmitReview(ctx, h.client, done.ID, SubmitReviewRequest{Rating: 5})
	assert.True(t, domain.IsKind(err, domain.KindDuplicateReview))

	page, err := h.review.ListProviderReviews(ctx, h.provider.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.ReviewCount)
	assert.Equal(t, int64(1), page.Total)
	assert.InDelta(t, 4.0, page.AverageRating, 0.001)
	require.Len(t, page.Reviews, 1)
}

func TestSubmitReview_NotCompleted(t *testing.T) {
	h := newHarness()
	id, err := h.inProgress()
	require.NoError(t, err)

	_, err = h.review.SubmitReview(context.Background(), h.client, id, SubmitReviewRequest{Rating: 5})
	assert.True(t, domain.IsKind(err, domain.KindInvalidBookingState))
}
