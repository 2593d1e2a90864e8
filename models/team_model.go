package models

import (
	"time"

	"gorm.io/datatypes"
)

// Team is a row of the FRC roster synced from The Blue Alliance. Raw keeps
// the full upstream payload so new fields can be surfaced without a resync.
type Team struct {
	TeamNumber int    `gorm:"primaryKey;autoIncrement:false" json:"team_number"`
	Nickname   string `gorm:"size:255" json:"nickname"`
	City       string `gorm:"size:255" json:"city"`
	Country    string `gorm:"size:255" json:"country"`

	AvatarURL string         `gorm:"size:512" json:"avatar_url"`
	Raw       datatypes.JSON `json:"-"`

	UpdatedAt time.Time `json:"updated_at"`
}
