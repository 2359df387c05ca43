package services

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/tarotgarden/internal/database/testutil"
)

func TestEnsureUserCreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))

	svc, err := NewUserService(db, clock)
	require.NoError(t, err)

	user, err := svc.EnsureUser(ctx, readerID, "reader@example.com", "")
	require.NoError(t, err)
	require.Equal(t, "email", user.Provider)
	require.NotNil(t, user.LastSignInAt)

	clock.Advance(time.Hour)
	user, err = svc.EnsureUser(ctx, readerID, "reader@garden.app", "google")
	require.NoError(t, err)
	require.Equal(t, "reader@garden.app", user.Email)
	require.Equal(t, "google", user.Provider)
	require.True(t, user.LastSignInAt.Equal(clock.Now()))
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewUserService(db, nil)
	require.NoError(t, err)

	_, err = svc.EnsureUser(ctx, readerID, "reader@example.com", "email")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, readerID))
	require.ErrorIs(t, svc.DeleteUser(ctx, readerID), ErrUserNotFound)
	require.ErrorIs(t, svc.DeleteUser(ctx, ""), ErrUserIDRequired)
}
