package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/districtone/backend/models"
	"github.com/districtone/backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const ReferralBonus = 5

// Referral codes are 6 characters over a 16-symbol alphabet; running out of
// fresh codes after 20 draws means the code space is effectively exhausted
// and we fail loudly instead of looping.
const maxReferralCodeAttempts = 20

var (
	ErrAccountExists     = errors.New("account already exists")
	ErrReferralCodeSpace = errors.New("could not generate an unused referral code")
)

type AccountService struct {
	db *gorm.DB
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// Exists probes for an account by its natural key.
func (s *AccountService) Exists(ctx context.Context, dialCode, phoneNumber string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("dial_code = ? AND phone_number = ?", dialCode, phoneNumber).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check for account: %w", err)
	}
	return count > 0, nil
}

// FindByPhone returns the account for a phone identity, nil when absent.
func (s *AccountService) FindByPhone(ctx context.Context, dialCode, phoneNumber string) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).
		Where("dial_code = ? AND phone_number = ?", dialCode, phoneNumber).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return &account, nil
}

// Create inserts a new account, at most one per (dialCode, phoneNumber).
// The insert is conditional on the natural key, so two concurrent creations
// for the same number cannot both succeed; the loser gets ErrAccountExists.
// A collision on the generated referral code retries with a fresh draw.
func (s *AccountService) Create(ctx context.Context, dialCode, phoneNumber, referrerCode string) (*models.Account, error) {
	var account *models.Account
	for attempt := 0; attempt < maxReferralCodeAttempts; attempt++ {
		candidate := models.Account{
			DialCode:     dialCode,
			PhoneNumber:  phoneNumber,
			ReferralCode: utils.GenerateReferralCode(),
			ReferredBy:   referrerCode,
		}
		res := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "dial_code"}, {Name: "phone_number"}},
				DoNothing: true,
			}).
			Create(&candidate)
		if res.Error != nil {
			// The natural-key conflict is swallowed by the clause above, so
			// a duplicated-key error here is the referral code colliding.
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				continue
			}
			return nil, fmt.Errorf("failed to create account: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrAccountExists
		}
		account = &candidate
		break
	}
	if account == nil {
		return nil, ErrReferralCodeSpace
	}

	log.Printf("Created account for %s %s referred by %q given referral code %s",
		dialCode, phoneNumber, referrerCode, account.ReferralCode)

	if referrerCode != "" {
		if err := s.creditReferral(ctx, account, referrerCode); err != nil {
			return nil, err
		}
	}
	return account, nil
}

// creditReferral pays both sides of a referral in one batched update keyed
// by referral-code membership. An unknown referrer code is logged and
// dropped: the account stays, nobody is credited, the link is never retried.
func (s *AccountService) creditReferral(ctx context.Context, account *models.Account, referrerCode string) error {
	var referrer models.Account
	err := s.db.WithContext(ctx).
		Where("referral_code = ?", referrerCode).
		First(&referrer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Invalid referral code used: %s", referrerCode)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to resolve referrer: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&models.Account{}).
		Where("referral_code IN ?", []string{referrerCode, account.ReferralCode}).
		Update("balance", gorm.Expr("balance + ?", ReferralBonus)).Error
	if err != nil {
		return fmt.Errorf("failed to credit referral: %w", err)
	}

	account.Balance += ReferralBonus
	log.Printf("Credited accounts %s and %s for the referral", referrerCode, account.ReferralCode)
	return nil
}
