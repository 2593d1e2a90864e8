package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SendAttempt logs one SMS-send request. Rows are append-only: the abuse
// window is a query-time filter, nothing is ever updated or deleted.
type SendAttempt struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	IP          string    `gorm:"size:64;not null;index"`
	DialCode    string    `gorm:"size:8;not null;index:idx_send_attempts_phone"`
	PhoneNumber string    `gorm:"size:32;not null;index:idx_send_attempts_phone"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

func (a *SendAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
