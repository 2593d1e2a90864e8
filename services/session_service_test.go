package services

import (
	"context"
	"testing"
	"time"

	"github.com/districtone/backend/models"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionService(db)
	ctx := context.Background()

	key, err := svc.Create(ctx, "1", "5551234", "1.2.3.4")
	require.NoError(t, err)
	require.Len(t, key, 24)

	session, err := svc.Validate(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Equal(t, "1", session.DialCode)
	require.Equal(t, "5551234", session.PhoneNumber)

	// Validation is idempotent and side-effect free.
	again, err := svc.Validate(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, again)
	require.Equal(t, session.ID, again.ID)
	require.Equal(t, session.ExpiresAt.Unix(), again.ExpiresAt.Unix())
}

func TestValidateMalformedKeySkipsStorage(t *testing.T) {
	// A nil handle panics on any query; the length pre-filter must answer
	// before storage is touched.
	svc := NewSessionService(nil)

	for _, key := range []string{"", "abcde", "0123456789abcdef", "tooLongToBeAKey_tooLongToBeAKey"} {
		session, err := svc.Validate(context.Background(), key)
		require.NoError(t, err)
		require.Nil(t, session)
	}
}

func TestValidateUnknownAndExpiredKeys(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionService(db)
	ctx := context.Background()

	// Well-formed but unknown.
	session, err := svc.Validate(ctx, "00000000000000000000dead")
	require.NoError(t, err)
	require.Nil(t, session)

	key, err := svc.Create(ctx, "1", "5551234", "1.2.3.4")
	require.NoError(t, err)

	// Force expiry; the row stays, only validation treats it as gone.
	err = db.Model(&models.Session{}).
		Where("key = ?", key).
		Update("expires_at", time.Now().Add(-time.Minute)).Error
	require.NoError(t, err)

	session, err = svc.Validate(ctx, key)
	require.NoError(t, err)
	require.Nil(t, session)

	var count int64
	require.NoError(t, db.Model(&models.Session{}).Count(&count).Error)
	require.EqualValues(t, 1, count, "expiry is lazy, rows are never deleted")
}

func TestGrantDailyRewardOncePerWindow(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionService(db)
	ctx := context.Background()

	account := models.Account{DialCode: "1", PhoneNumber: "5551234", ReferralCode: "oy42io"}
	require.NoError(t, db.Create(&account).Error)

	key, err := svc.Create(ctx, "1", "5551234", "1.2.3.4")
	require.NoError(t, err)
	session, err := svc.Validate(ctx, key)
	require.NoError(t, err)

	gave, err := svc.GrantDailyReward(ctx, session)
	require.NoError(t, err)
	require.True(t, gave, "first-ever validation grants")

	gave, err = svc.GrantDailyReward(ctx, session)
	require.NoError(t, err)
	require.False(t, gave, "second call inside the window must not grant")

	var stored models.Account
	require.NoError(t, db.First(&stored, "id = ?", account.ID).Error)
	require.EqualValues(t, DailyRewardAmount, stored.Balance, "balance rises by at most one increment")
}

func TestGrantDailyRewardAfterWindow(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionService(db)
	ctx := context.Background()

	account := models.Account{DialCode: "1", PhoneNumber: "5551234", ReferralCode: "oy42io"}
	require.NoError(t, db.Create(&account).Error)

	key, err := svc.Create(ctx, "1", "5551234", "1.2.3.4")
	require.NoError(t, err)
	session, err := svc.Validate(ctx, key)
	require.NoError(t, err)

	gave, err := svc.GrantDailyReward(ctx, session)
	require.NoError(t, err)
	require.True(t, gave)

	// Age the reward past the 6-hour gate.
	stale := time.Now().Add(-rewardInterval - time.Minute)
	err = db.Model(&models.Session{}).
		Where("id = ?", session.ID).
		Update("last_login_reward_time", stale).Error
	require.NoError(t, err)

	session, err = svc.Validate(ctx, key)
	require.NoError(t, err)

	gave, err = svc.GrantDailyReward(ctx, session)
	require.NoError(t, err)
	require.True(t, gave)

	var stored models.Account
	require.NoError(t, db.First(&stored, "id = ?", account.ID).Error)
	require.EqualValues(t, 2*DailyRewardAmount, stored.Balance)
}

func TestGrantDailyRewardConditionalUpdateRace(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionService(db)
	ctx := context.Background()

	account := models.Account{DialCode: "1", PhoneNumber: "5551234", ReferralCode: "oy42io"}
	require.NoError(t, db.Create(&account).Error)

	key, err := svc.Create(ctx, "1", "5551234", "1.2.3.4")
	require.NoError(t, err)

	// Two validations holding the same stale in-memory session; the
	// conditional update lets only one of them grant.
	first, err := svc.Validate(ctx, key)
	require.NoError(t, err)
	second, err := svc.Validate(ctx, key)
	require.NoError(t, err)

	gaveFirst, err := svc.GrantDailyReward(ctx, first)
	require.NoError(t, err)
	gaveSecond, err := svc.GrantDailyReward(ctx, second)
	require.NoError(t, err)

	require.True(t, gaveFirst)
	require.False(t, gaveSecond)

	var stored models.Account
	require.NoError(t, db.First(&stored, "id = ?", account.ID).Error)
	require.EqualValues(t, DailyRewardAmount, stored.Balance)
}
