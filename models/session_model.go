package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Session struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`

	// Key is the opaque value clients echo on every request. Current keys
	// are 24 hex characters; 12-character keys from older clients are still
	// structurally accepted by validation.
	Key string `gorm:"size:24;not null;uniqueIndex" json:"-"`

	DialCode    string `gorm:"size:8;not null" json:"dial_code"`
	PhoneNumber string `gorm:"size:32;not null" json:"phone_number"`
	IP          string `gorm:"size:64" json:"-"`

	// Expiry is checked lazily at validation time; rows are never swept.
	ExpiresAt           time.Time  `gorm:"not null" json:"expires_at"`
	LastLoginRewardTime *time.Time `json:"last_login_reward_time"`

	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
