package services

import (
	"context"
	"fmt"

	"github.com/districtone/backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LikesService struct {
	db *gorm.DB
}

func NewLikesService(db *gorm.DB) *LikesService {
	return &LikesService{db: db}
}

// LikeTeam is idempotent: liking an already-liked team is a no-op.
func (s *LikesService) LikeTeam(ctx context.Context, accountID uuid.UUID, teamNumber int) error {
	like := models.TeamLike{AccountID: accountID, TeamNumber: teamNumber}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "team_number"}},
			DoNothing: true,
		}).
		Create(&like).Error
	if err != nil {
		return fmt.Errorf("failed to like team: %w", err)
	}
	return nil
}

func (s *LikesService) UnlikeTeam(ctx context.Context, accountID uuid.UUID, teamNumber int) error {
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND team_number = ?", accountID, teamNumber).
		Delete(&models.TeamLike{}).Error
	if err != nil {
		return fmt.Errorf("failed to unlike team: %w", err)
	}
	return nil
}

func (s *LikesService) LikeEvent(ctx context.Context, accountID uuid.UUID, eventKey string) error {
	like := models.EventLike{AccountID: accountID, EventKey: eventKey}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "event_key"}},
			DoNothing: true,
		}).
		Create(&like).Error
	if err != nil {
		return fmt.Errorf("failed to like event: %w", err)
	}
	return nil
}

func (s *LikesService) UnlikeEvent(ctx context.Context, accountID uuid.UUID, eventKey string) error {
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND event_key = ?", accountID, eventKey).
		Delete(&models.EventLike{}).Error
	if err != nil {
		return fmt.Errorf("failed to unlike event: %w", err)
	}
	return nil
}

// TeamAndEventLikes returns both like lists for an account. Slices are never
// nil so they serialize as [] rather than null.
func (s *LikesService) TeamAndEventLikes(ctx context.Context, accountID uuid.UUID) ([]int, []string, error) {
	teamLikes := []int{}
	err := s.db.WithContext(ctx).Model(&models.TeamLike{}).
		Where("account_id = ?", accountID).
		Order("team_number").
		Pluck("team_number", &teamLikes).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list team likes: %w", err)
	}

	eventLikes := []string{}
	err = s.db.WithContext(ctx).Model(&models.EventLike{}).
		Where("account_id = ?", accountID).
		Order("event_key").
		Pluck("event_key", &eventLikes).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list event likes: %w", err)
	}

	return teamLikes, eventLikes, nil
}

// TeamLikeCount feeds the live like-count broadcasts.
func (s *LikesService) TeamLikeCount(ctx context.Context, teamNumber int) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.TeamLike{}).
		Where("team_number = ?", teamNumber).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count team likes: %w", err)
	}
	return count, nil
}
