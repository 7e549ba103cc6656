// services/stats.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"grudge-match-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StatsService struct {
	DB *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db}
}

// RecordOutcome folds one finalized result into the user's stats row. It must
// run on the finalize transaction so it commits or rolls back with the match.
func (s *StatsService) RecordOutcome(tx *gorm.DB, o models.Outcome) (*models.UserStats, error) {
	// Insert-if-absent keeps two matches finalizing for the same user from
	// racing on row creation; the row lock below serialises the update.
	seed := models.UserStats{ID: uuid.NewString(), UserID: o.UserID}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&seed).Error; err != nil {
		return nil, fmt.Errorf("ensure stats row for %s: %w", o.UserID, err)
	}

	var st models.UserStats
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", o.UserID).
		First(&st).Error; err != nil {
		return nil, fmt.Errorf("lock stats row for %s: %w", o.UserID, err)
	}

	st.Apply(o)

	if err := tx.Save(&st).Error; err != nil {
		return nil, fmt.Errorf("save stats for %s: %w", o.UserID, err)
	}
	return &st, nil
}

// GetStats returns a user's stats row.
func (s *StatsService) GetStats(ctx context.Context, userID string) (*models.UserStats, error) {
	var st models.UserStats
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(ErrStatsNotFound)
		}
		return nil, err
	}
	return &st, nil
}

// LeaderboardSort whitelists the columns the leaderboard can be ordered by.
var LeaderboardSort = map[string]string{
	"wins":             "wins DESC",
	"win_streak":       "win_streak DESC",
	"best_win_streak":  "best_win_streak DESC",
	"total_matches":    "total_matches DESC",
	"best_reaction_ms": "best_reaction_ms ASC",
	"avg_reaction_ms":  "avg_reaction_ms ASC",
}

const (
	DefaultLeaderboardSort  = "wins"
	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 100
)

// NormalizeLeaderboardQuery applies defaults and rejects unknown sort keys.
func NormalizeLeaderboardQuery(sortBy string, limit int) (string, int, error) {
	sortBy = strings.TrimSpace(sortBy)
	if sortBy == "" {
		sortBy = DefaultLeaderboardSort
	}
	if _, ok := LeaderboardSort[sortBy]; !ok {
		return "", 0, invalid(ErrInvalidSort, "%q", sortBy)
	}
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	return sortBy, limit, nil
}

// Leaderboard reads the top stats rows straight from the database.
func (s *StatsService) Leaderboard(ctx context.Context, sortBy string, limit int) ([]models.UserStats, error) {
	sortBy, limit, err := NormalizeLeaderboardQuery(sortBy, limit)
	if err != nil {
		return nil, err
	}

	order := LeaderboardSort[sortBy]
	column, direction := strings.Fields(order)[0], strings.Fields(order)[1]

	db := s.DB.WithContext(ctx).Model(&models.UserStats{})
	if direction == "ASC" {
		db = db.Where(column + " IS NOT NULL")
	}

	// ties break on user_id in the sort direction, the same order redis
	// ZREVRANGE gives the cached columns
	var rows []models.UserStats
	if err := db.Order(order).Order("user_id " + direction).Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// StatsByUsers loads rows for ids, preserving the order of ids.
func (s *StatsService) StatsByUsers(ctx context.Context, userIDs []string) ([]models.UserStats, error) {
	if len(userIDs) == 0 {
		return []models.UserStats{}, nil
	}
	var rows []models.UserStats
	if err := s.DB.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]models.UserStats, len(rows))
	for _, r := range rows {
		byID[r.UserID] = r
	}
	out := make([]models.UserStats, 0, len(userIDs))
	for _, id := range userIDs {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// AllStats returns every stats row; used by the audit and cache rebuild jobs.
func (s *StatsService) AllStats(ctx context.Context) ([]models.UserStats, error) {
	var rows []models.UserStats
	err := s.DB.WithContext(ctx).Order("user_id ASC").Find(&rows).Error
	return rows, err
}

// StatsDrift describes a stats row that disagrees with the match table.
type StatsDrift struct {
	UserID           string `json:"user_id"`
	TotalMatches     int64  `json:"total_matches"`
	CompletedMatches int64  `json:"completed_matches"`
	Wins             int64  `json:"wins"`
	Losses           int64  `json:"losses"`
}

// Audit compares each stats row with the completed matches it was built from.
// It only reports; nothing is corrected.
func (s *StatsService) Audit(ctx context.Context) ([]StatsDrift, error) {
	type completedCount struct {
		UserID string
		Total  int64
	}
	var counts []completedCount
	err := s.DB.WithContext(ctx).Raw(`
		SELECT user_id, COUNT(*) AS total FROM (
			SELECT challenger_id AS user_id FROM matches WHERE status = ?
			UNION ALL
			SELECT opponent_id AS user_id FROM matches WHERE status = ?
		) participants
		GROUP BY user_id
	`, models.MatchStatusCompleted, models.MatchStatusCompleted).Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("count completed matches: %w", err)
	}
	completed := make(map[string]int64, len(counts))
	for _, c := range counts {
		completed[c.UserID] = c.Total
	}

	rows, err := s.AllStats(ctx)
	if err != nil {
		return nil, err
	}

	var drift []StatsDrift
	for _, r := range rows {
		n := completed[r.UserID]
		if r.TotalMatches != n || r.Wins+r.Losses != r.TotalMatches {
			drift = append(drift, StatsDrift{
				UserID:           r.UserID,
				TotalMatches:     r.TotalMatches,
				CompletedMatches: n,
				Wins:             r.Wins,
				Losses:           r.Losses,
			})
		}
		delete(completed, r.UserID)
	}
	// completed matches whose participant never got a stats row
	for userID, n := range completed {
		drift = append(drift, StatsDrift{UserID: userID, CompletedMatches: n})
	}
	return drift, nil
}
