package services

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/tarotgarden/internal/database/testutil"
	"github.com/charlesng35/tarotgarden/internal/models"
)

func newSubscriptionService(t *testing.T) (*SubscriptionService, *clockwork.FakeClock) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC))
	svc, err := NewSubscriptionService(db, clock)
	require.NoError(t, err)
	return svc, clock
}

func TestIsPremiumAnonymous(t *testing.T) {
	svc, _ := newSubscriptionService(t)

	premium, err := svc.IsPremium(context.Background(), "")
	require.NoError(t, err)
	require.False(t, premium)
}

func TestIsPremiumFollowsStatusAndExpiry(t *testing.T) {
	ctx := context.Background()
	svc, clock := newSubscriptionService(t)

	premium, err := svc.IsPremium(ctx, readerID)
	require.NoError(t, err)
	require.False(t, premium)

	expires := clock.Now().Add(24 * time.Hour)
	_, err = svc.Upsert(ctx, readerID, SubscriptionInput{
		ProductID: "garden_premium_monthly",
		Store:     "app_store",
		Status:    models.SubscriptionActive,
		ExpiresAt: &expires,
	})
	require.NoError(t, err)

	premium, err = svc.IsPremium(ctx, readerID)
	require.NoError(t, err)
	require.True(t, premium)

	clock.Advance(25 * time.Hour)
	premium, err = svc.IsPremium(ctx, readerID)
	require.NoError(t, err)
	require.False(t, premium)
}

func TestIsPremiumLifetimeAndCancelled(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSubscriptionService(t)

	_, err := svc.Upsert(ctx, readerID, SubscriptionInput{ProductID: "garden_lifetime", Status: "ACTIVE"})
	require.NoError(t, err)
	premium, err := svc.IsPremium(ctx, readerID)
	require.NoError(t, err)
	require.True(t, premium)

	sub, err := svc.Upsert(ctx, readerID, SubscriptionInput{ProductID: "garden_lifetime", Status: models.SubscriptionCancelled})
	require.NoError(t, err)
	require.Equal(t, models.SubscriptionCancelled, sub.Status)

	premium, err = svc.IsPremium(ctx, readerID)
	require.NoError(t, err)
	require.False(t, premium)

	subs, err := svc.ListForUser(ctx, readerID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
}

func TestUpsertRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSubscriptionService(t)

	_, err := svc.Upsert(ctx, readerID, SubscriptionInput{Status: models.SubscriptionActive})
	require.ErrorIs(t, err, ErrInvalidSubscription)

	_, err = svc.Upsert(ctx, readerID, SubscriptionInput{ProductID: "garden_premium_monthly", Status: "paused"})
	require.ErrorIs(t, err, ErrInvalidSubscription)

	_, err = svc.Upsert(ctx, "", SubscriptionInput{ProductID: "garden_premium_monthly", Status: models.SubscriptionActive})
	require.ErrorIs(t, err, ErrUserIDRequired)
}
