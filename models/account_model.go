package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Account struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	DialCode    string    `gorm:"size:8;not null;uniqueIndex:idx_accounts_phone" json:"dial_code"`
	PhoneNumber string    `gorm:"size:32;not null;uniqueIndex:idx_accounts_phone" json:"phone_number"`

	// ReferralCode is this account's own shareable code; ReferredBy is the
	// code it was signed up with, empty when nobody referred it.
	ReferralCode string `gorm:"size:10;not null;uniqueIndex" json:"referral_code"`
	ReferredBy   string `gorm:"size:10" json:"referred_by"`

	Balance int64 `gorm:"not null;default:0" json:"balance"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
