package services

import (
	"context"

	"grudge-match-system/models"
	"grudge-match-system/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeService struct {
	DB *gorm.DB
}

func NewBadgeService(db *gorm.DB) *BadgeService {
	return &BadgeService{DB: db}
}

// SeedBadgeTypes upserts the static badge catalogue.
func (s *BadgeService) SeedBadgeTypes(ctx context.Context) error {
	for _, bt := range models.BadgeTriggers {
		bt := bt
		if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "rarity", "threshold"}),
		}).Create(&bt).Error; err != nil {
			return err
		}
	}
	return nil
}

// AwardBadges checks every trigger against freshly updated stats and awards the
// ones not yet held. Runs on the finalize transaction.
func (s *BadgeService) AwardBadges(tx *gorm.DB, st *models.UserStats, matchID string) ([]string, error) {
	var awarded []string
	for _, trigger := range models.BadgeTriggers {
		if !meetsThreshold(st, trigger.Threshold) {
			continue
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.UserBadge{
			ID:        uuid.NewString(),
			UserID:    st.UserID,
			BadgeCode: trigger.Code,
			MatchID:   matchID,
		})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected > 0 {
			awarded = append(awarded, trigger.Code)
			utils.L().Info("[BADGE] awarded",
				zap.String("user_id", st.UserID),
				zap.String("badge", trigger.Code),
				zap.String("match_id", matchID),
			)
		}
	}
	return awarded, nil
}

// UserBadges lists a user's badges, newest first.
func (s *BadgeService) UserBadges(ctx context.Context, userID string) ([]models.UserBadge, error) {
	badges := []models.UserBadge{}
	err := s.DB.WithContext(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("awarded_at DESC").
		Find(&badges).Error
	return badges, err
}

func meetsThreshold(st *models.UserStats, req map[string]int64) bool {
	for key, required := range req {
		switch key {
		case models.ThresholdWins:
			if st.Wins < required {
				return false
			}
		case models.ThresholdWinStreak:
			if st.WinStreak < required {
				return false
			}
		case models.ThresholdTotalMatches:
			if st.TotalMatches < required {
				return false
			}
		case models.ThresholdBestReactionMax:
			// a false start records a negative reaction and earns nothing
			if st.BestReactionMs == nil || *st.BestReactionMs < 0 || *st.BestReactionMs > float64(required) {
				return false
			}
		default:
			return false
		}
	}
	return true
}
