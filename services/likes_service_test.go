package services

import (
	"context"
	"testing"

	"github.com/districtone/backend/models"
	"github.com/stretchr/testify/require"
)

func TestLikeUnlikeTeam(t *testing.T) {
	db := newTestDB(t)
	svc := NewLikesService(db)
	ctx := context.Background()

	account := models.Account{DialCode: "1", PhoneNumber: "5551234", ReferralCode: "oy42io"}
	require.NoError(t, db.Create(&account).Error)

	require.NoError(t, svc.LikeTeam(ctx, account.ID, 254))
	require.NoError(t, svc.LikeTeam(ctx, account.ID, 1678))
	// Idempotent.
	require.NoError(t, svc.LikeTeam(ctx, account.ID, 254))

	teamLikes, eventLikes, err := svc.TeamAndEventLikes(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, []int{254, 1678}, teamLikes)
	require.Empty(t, eventLikes)

	count, err := svc.TeamLikeCount(ctx, 254)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	require.NoError(t, svc.UnlikeTeam(ctx, account.ID, 254))
	teamLikes, _, err = svc.TeamAndEventLikes(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, []int{1678}, teamLikes)

	// Unliking something never liked is a no-op.
	require.NoError(t, svc.UnlikeTeam(ctx, account.ID, 9999))
}

func TestLikeUnlikeEvent(t *testing.T) {
	db := newTestDB(t)
	svc := NewLikesService(db)
	ctx := context.Background()

	account := models.Account{DialCode: "1", PhoneNumber: "5551234", ReferralCode: "oy42io"}
	require.NoError(t, db.Create(&account).Error)

	require.NoError(t, svc.LikeEvent(ctx, account.ID, "2026onsc"))
	require.NoError(t, svc.LikeEvent(ctx, account.ID, "2026onsc"))

	_, eventLikes, err := svc.TeamAndEventLikes(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"2026onsc"}, eventLikes)

	require.NoError(t, svc.UnlikeEvent(ctx, account.ID, "2026onsc"))
	_, eventLikes, err = svc.TeamAndEventLikes(ctx, account.ID)
	require.NoError(t, err)
	require.Empty(t, eventLikes)
}

func TestLikesAreScopedPerAccount(t *testing.T) {
	db := newTestDB(t)
	svc := NewLikesService(db)
	ctx := context.Background()

	a := models.Account{DialCode: "1", PhoneNumber: "5550001", ReferralCode: "oy42io"}
	b := models.Account{DialCode: "1", PhoneNumber: "5550002", ReferralCode: "ea07uy"}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)

	require.NoError(t, svc.LikeTeam(ctx, a.ID, 254))
	require.NoError(t, svc.LikeTeam(ctx, b.ID, 254))

	count, err := svc.TeamLikeCount(ctx, 254)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	teamLikes, _, err := svc.TeamAndEventLikes(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, []int{254}, teamLikes)
}
