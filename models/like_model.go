package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TeamLike struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	AccountID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_team_likes_account_team" json:"account_id"`
	TeamNumber int       `gorm:"not null;uniqueIndex:idx_team_likes_account_team;index" json:"team_number"`
	CreatedAt  time.Time `json:"created_at"`
}

func (l *TeamLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type EventLike struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_event_likes_account_event" json:"account_id"`
	EventKey  string    `gorm:"size:32;not null;uniqueIndex:idx_event_likes_account_event" json:"event_key"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *EventLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
