package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/districtone/backend/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedAttempts(t *testing.T, db *gorm.DB, n int, ip, dialCode, phoneNumber string, at time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		attempt := models.SendAttempt{
			IP:          ip,
			DialCode:    dialCode,
			PhoneNumber: phoneNumber,
			CreatedAt:   at,
		}
		require.NoError(t, db.Create(&attempt).Error)
	}
}

func TestIsAbusiveIPWindow(t *testing.T) {
	db := newTestDB(t)
	svc := NewAbuseService(db)
	ctx := context.Background()

	// Attempts from one IP, each for a different number, so only the
	// IP-scoped window accumulates.
	for i := 0; i < 4; i++ {
		seedAttempts(t, db, 1, "1.2.3.4", "1", fmt.Sprintf("555000%d", i), time.Now())

		abusive, err := svc.IsAbusive(ctx, "1.2.3.4", "1", "5559999")
		require.NoError(t, err)
		require.False(t, abusive, "should allow with %d recorded attempts", i+1)
	}

	seedAttempts(t, db, 1, "1.2.3.4", "1", "5550004", time.Now())
	abusive, err := svc.IsAbusive(ctx, "1.2.3.4", "1", "5559999")
	require.NoError(t, err)
	require.True(t, abusive, "5th recorded attempt should trip the IP window")

	// A different IP is unaffected.
	abusive, err = svc.IsAbusive(ctx, "5.6.7.8", "1", "5559999")
	require.NoError(t, err)
	require.False(t, abusive)
}

func TestIsAbusivePhoneWindow(t *testing.T) {
	db := newTestDB(t)
	svc := NewAbuseService(db)
	ctx := context.Background()

	// Same number from distinct IPs, so only the phone window accumulates.
	for i := 0; i < 3; i++ {
		seedAttempts(t, db, 1, fmt.Sprintf("10.0.0.%d", i), "44", "7700900123", time.Now())

		abusive, err := svc.IsAbusive(ctx, "10.0.0.99", "44", "7700900123")
		require.NoError(t, err)
		require.False(t, abusive, "should allow with %d recorded attempts", i+1)
	}

	seedAttempts(t, db, 1, "10.0.0.50", "44", "7700900123", time.Now())
	abusive, err := svc.IsAbusive(ctx, "10.0.0.99", "44", "7700900123")
	require.NoError(t, err)
	require.True(t, abusive, "4th recorded attempt should trip the phone window")

	// Same count against another number is fine.
	abusive, err = svc.IsAbusive(ctx, "10.0.0.99", "44", "7700900999")
	require.NoError(t, err)
	require.False(t, abusive)
}

func TestIsAbusiveOldAttemptsFallOut(t *testing.T) {
	db := newTestDB(t)
	svc := NewAbuseService(db)
	ctx := context.Background()

	stale := time.Now().Add(-abuseWindow - time.Second)
	seedAttempts(t, db, 10, "1.2.3.4", "1", "5551234", stale)

	abusive, err := svc.IsAbusive(ctx, "1.2.3.4", "1", "5551234")
	require.NoError(t, err)
	require.False(t, abusive, "attempts older than the window must not count")
}

func TestRecordSendAttemptAppends(t *testing.T) {
	db := newTestDB(t)
	svc := NewAbuseService(db)
	ctx := context.Background()

	require.NoError(t, svc.RecordSendAttempt(ctx, "1.2.3.4", "1", "5551234"))
	require.NoError(t, svc.RecordSendAttempt(ctx, "1.2.3.4", "1", "5551234"))

	var count int64
	require.NoError(t, db.Model(&models.SendAttempt{}).Count(&count).Error)
	require.EqualValues(t, 2, count)
}
