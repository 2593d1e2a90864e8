package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/districtone/backend/models"
	"gorm.io/gorm"
)

// Rate limits for SMS sends. Two independent rolling windows: one per source
// IP, one per phone number. The comparison is strict, so the 5th request
// from an IP inside the window is the first one rejected.
const (
	abuseWindow      = 5 * time.Minute
	maxIPRequests    = 4
	maxPhoneRequests = 3
)

type AbuseService struct {
	db *gorm.DB
}

func NewAbuseService(db *gorm.DB) *AbuseService {
	return &AbuseService{db: db}
}

// RecordSendAttempt appends one attempt row. Every send request is logged,
// regardless of whether the provider call succeeds.
func (s *AbuseService) RecordSendAttempt(ctx context.Context, ip, dialCode, phoneNumber string) error {
	attempt := models.SendAttempt{
		IP:          ip,
		DialCode:    dialCode,
		PhoneNumber: phoneNumber,
		CreatedAt:   time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&attempt).Error; err != nil {
		return fmt.Errorf("failed to log send attempt: %w", err)
	}
	return nil
}

// IsAbusive must run before RecordSendAttempt so the current request does
// not count against itself. Attempts older than the window stop counting on
// their own; nothing is evicted.
func (s *AbuseService) IsAbusive(ctx context.Context, ip, dialCode, phoneNumber string) (bool, error) {
	since := time.Now().Add(-abuseWindow)

	var fromIP int64
	err := s.db.WithContext(ctx).Model(&models.SendAttempt{}).
		Where("ip = ? AND created_at >= ?", ip, since).
		Count(&fromIP).Error
	if err != nil {
		return false, fmt.Errorf("failed to count attempts for IP: %w", err)
	}

	var forNumber int64
	err = s.db.WithContext(ctx).Model(&models.SendAttempt{}).
		Where("dial_code = ? AND phone_number = ? AND created_at >= ?", dialCode, phoneNumber, since).
		Count(&forNumber).Error
	if err != nil {
		return false, fmt.Errorf("failed to count attempts for number: %w", err)
	}

	log.Printf("Requests from IP %s: %d | Requests for +%s%s: %d", ip, fromIP, dialCode, phoneNumber, forNumber)
	return fromIP > maxIPRequests || forNumber > maxPhoneRequests, nil
}
