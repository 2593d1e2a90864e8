package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/districtone/backend/models"
	"github.com/districtone/backend/utils"
	"gorm.io/gorm"
)

const (
	sessionTTL     = 14 * 24 * time.Hour
	rewardInterval = 6 * time.Hour
)

const DailyRewardAmount = 5

type SessionService struct {
	db *gorm.DB
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db}
}

// Create issues a fresh session for a verified phone identity and returns
// the opaque key the client must echo on subsequent requests.
func (s *SessionService) Create(ctx context.Context, dialCode, phoneNumber, ip string) (string, error) {
	key, err := utils.GenerateSessionKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate session key: %w", err)
	}

	session := models.Session{
		Key:         key,
		DialCode:    dialCode,
		PhoneNumber: phoneNumber,
		IP:          ip,
		ExpiresAt:   time.Now().Add(sessionTTL),
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	log.Printf("Created session for %s %s from %s", dialCode, phoneNumber, ip)
	return key, nil
}

// Validate resolves a session key to its session, or nil when the key is
// malformed, unknown or expired. Those three cases are deliberately
// indistinguishable to the caller. Keys of the wrong length are rejected
// before any storage access.
func (s *SessionService) Validate(ctx context.Context, key string) (*models.Session, error) {
	if len(key) != utils.SessionKeyLength && len(key) != utils.LegacySessionKeyLength {
		return nil, nil
	}

	var session models.Session
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	// Lazy expiry: nothing sweeps session rows, expiry only matters here.
	if !time.Now().Before(session.ExpiresAt) {
		return nil, nil
	}
	return &session, nil
}

// GrantDailyReward credits the session owner's balance once per 6-hour
// window. The timestamp update is conditional on the window still being
// open, so concurrent checks inside the window grant at most once; the
// timestamp and the balance credit move inside one transaction.
func (s *SessionService) GrantDailyReward(ctx context.Context, session *models.Session) (bool, error) {
	now := time.Now()
	if session.LastLoginRewardTime != nil && now.Before(session.LastLoginRewardTime.Add(rewardInterval)) {
		return false, nil
	}

	granted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Session{}).
			Where("id = ? AND (last_login_reward_time IS NULL OR last_login_reward_time <= ?)",
				session.ID, now.Add(-rewardInterval)).
			Update("last_login_reward_time", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		err := tx.Model(&models.Account{}).
			Where("dial_code = ? AND phone_number = ?", session.DialCode, session.PhoneNumber).
			Update("balance", gorm.Expr("balance + ?", DailyRewardAmount)).Error
		if err != nil {
			return err
		}
		granted = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to grant daily reward: %w", err)
	}

	if granted {
		session.LastLoginRewardTime = &now
		log.Printf("Granted daily login reward to %s %s", session.DialCode, session.PhoneNumber)
	}
	return granted, nil
}
