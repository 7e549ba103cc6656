// services/challenge.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"grudge-match-system/models"
	"grudge-match-system/utils"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Fairness pair ranges for simple/roll matches.
const (
	MinFairWeightLbs = 2500
	MaxFairWeightLbs = 4500
	MinFairHP        = 300
	MaxFairHP        = 700
)

// GenerateFairnessPair draws one plausible car; weight and power are uniform in
// [min, max).
func GenerateFairnessPair() models.FairnessPair {
	return models.FairnessPair{
		WeightLbs:  MinFairWeightLbs + rand.Intn(MaxFairWeightLbs-MinFairWeightLbs),
		Horsepower: MinFairHP + rand.Intn(MaxFairHP-MinFairHP),
	}
}

type ChallengeService struct {
	DB    *gorm.DB
	Users *UserService

	// Fairness and Now are replaceable for deterministic tests.
	Fairness func() models.FairnessPair
	Now      func() time.Time
}

func NewChallengeService(db *gorm.DB, users *UserService) *ChallengeService {
	return &ChallengeService{
		DB:       db,
		Users:    users,
		Fairness: GenerateFairnessPair,
		Now:      time.Now,
	}
}

// CreateMatchInput is a challenge as issued by the challenger.
type CreateMatchInput struct {
	ChallengerID  string
	OpponentID    string
	MatchType     string
	ChallengerRef *string // pro only
	OpponentRef   *string // pro only
}

// CreateMatch validates the challenge and persists a new pending match.
func (s *ChallengeService) CreateMatch(ctx context.Context, in CreateMatchInput) (*models.Match, error) {
	opponentID := strings.TrimSpace(in.OpponentID)
	if opponentID == "" {
		return nil, invalid(ErrMissingField, "opponent_id")
	}
	if opponentID == in.ChallengerID {
		return nil, invalid(ErrSelfChallenge, "")
	}
	matchType, ok := models.ParseMatchType(strings.TrimSpace(in.MatchType))
	if !ok {
		return nil, invalid(ErrInvalidMatchType, "%q", in.MatchType)
	}

	exists, err := s.Users.Exists(ctx, opponentID)
	if err != nil {
		return nil, fmt.Errorf("lookup opponent: %w", err)
	}
	if !exists {
		return nil, notFound(ErrOpponentNotFound)
	}

	match := &models.Match{
		ID:           uuid.NewString(),
		ChallengerID: in.ChallengerID,
		OpponentID:   opponentID,
		MatchType:    matchType,
		Status:       models.MatchStatusPending,
	}

	if matchType.UsesFairnessPair() {
		pair := s.Fairness()
		match.WeightLbs = &pair.WeightLbs
		match.Horsepower = &pair.Horsepower
	} else {
		match.ChallengerRef = nonEmpty(in.ChallengerRef)
		match.OpponentRef = nonEmpty(in.OpponentRef)
	}

	match.Slug = s.matchSlug(ctx, match)

	if err := s.DB.WithContext(ctx).Create(match).Error; err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	utils.L().Info("[CHALLENGE] match created",
		zap.String("match_id", match.ID),
		zap.String("challenger_id", match.ChallengerID),
		zap.String("opponent_id", match.OpponentID),
		zap.String("match_type", string(match.MatchType)),
	)
	return match, nil
}

// matchSlug builds a share handle from usernames, falling back to raw ids.
func (s *ChallengeService) matchSlug(ctx context.Context, m *models.Match) string {
	names, err := s.Users.Usernames(ctx, m.ChallengerID, m.OpponentID)
	if err != nil {
		utils.L().Warn("[CHALLENGE] username lookup failed, slugging ids", zap.Error(err))
		names = map[string]string{}
	}
	label := func(id string) string {
		if n := names[id]; n != "" {
			return n
		}
		return id
	}
	return slug.Make(fmt.Sprintf("%s vs %s %s", label(m.ChallengerID), label(m.OpponentID), m.ID[:8]))
}

// GetMatch is the read-only projection of a match.
func (s *ChallengeService) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	return loadMatch(s.DB.WithContext(ctx), id)
}

// AcceptMatch lets the opponent acknowledge a pending challenge.
func (s *ChallengeService) AcceptMatch(ctx context.Context, matchID, callerID string) (*models.Match, error) {
	var out *models.Match
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := loadMatch(tx, matchID)
		if err != nil {
			return err
		}
		if callerID != m.OpponentID {
			return forbidden(ErrNotOpponent)
		}
		if m.IsCompleted() {
			return conflict(ErrAlreadyCompleted)
		}
		if !models.CanTransition(m.Status, models.MatchStatusAccepted) {
			return conflict(ErrNotPending)
		}

		now := s.Now()
		res := tx.Model(&models.Match{}).
			Where("id = ? AND version = ?", m.ID, m.Version).
			Updates(map[string]any{
				"status":      models.MatchStatusAccepted,
				"accepted_at": now,
				"version":     gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return conflict(ErrNotPending)
		}

		m.Status = models.MatchStatusAccepted
		m.AcceptedAt = &now
		m.Version++
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Inbox is what a racer sees when opening the grudge page.
type Inbox struct {
	PendingChallenges []models.Match `json:"pending_challenges"`
	ActiveMatches     []models.Match `json:"active_matches"`
}

// Inbox lists challenges waiting on userID and every unfinished match userID is in.
func (s *ChallengeService) Inbox(ctx context.Context, userID string) (*Inbox, error) {
	db := s.DB.WithContext(ctx)
	inbox := &Inbox{PendingChallenges: []models.Match{}, ActiveMatches: []models.Match{}}

	if err := db.Where("opponent_id = ? AND status = ?", userID, models.MatchStatusPending).
		Order("created_at DESC").
		Find(&inbox.PendingChallenges).Error; err != nil {
		return nil, fmt.Errorf("pending challenges: %w", err)
	}

	if err := db.Where("(challenger_id = ? OR opponent_id = ?) AND status <> ?", userID, userID, models.MatchStatusCompleted).
		Order("created_at DESC").
		Find(&inbox.ActiveMatches).Error; err != nil {
		return nil, fmt.Errorf("active matches: %w", err)
	}
	return inbox, nil
}

func loadMatch(db *gorm.DB, id string) (*models.Match, error) {
	var m models.Match
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(ErrMatchNotFound)
		}
		return nil, fmt.Errorf("load match %s: %w", id, err)
	}
	return &m, nil
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
