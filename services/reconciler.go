// services/reconciler.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"grudge-match-system/models"
	"grudge-match-system/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// errStaleMatch means the conditional write lost to a concurrent writer. It
// never leaves this package: it is either retried or turned into a Conflict.
var errStaleMatch = errors.New("match version changed")

// DefaultSubmitAttempts is the first try plus one retry after a lost race.
const DefaultSubmitAttempts = 2

// StatsPublisher receives stats rows after a finalize commits.
type StatsPublisher interface {
	Push(ctx context.Context, rows ...models.UserStats) error
}

// MatchArchiver stores a JSON copy of a completed match.
type MatchArchiver interface {
	PutJSON(ctx context.Context, key string, v any) error
}

// ReconcilerService turns two independent submissions into one outcome.
type ReconcilerService struct {
	DB     *gorm.DB
	Stats  *StatsService
	Badges *BadgeService

	// Optional post-commit sinks; nil disables them.
	Leaderboard StatsPublisher
	Archive     MatchArchiver

	Now         func() time.Time
	MaxAttempts int
}

func NewReconcilerService(db *gorm.DB, stats *StatsService, badges *BadgeService) *ReconcilerService {
	return &ReconcilerService{
		DB:          db,
		Stats:       stats,
		Badges:      badges,
		Now:         time.Now,
		MaxAttempts: DefaultSubmitAttempts,
	}
}

// Submission is one participant's time slip for a match.
type Submission struct {
	MatchID  string
	CallerID string
	Role     string
	Payload  ResultPayload
}

// submitResult is what a successful attempt produced.
type submitResult struct {
	match     *models.Match
	finalized []models.UserStats
}

// SubmitResult stores the caller's slip write-once and, when it is the second
// slip, finalizes the match and both participants' stats in the same
// transaction.
func (s *ReconcilerService) SubmitResult(ctx context.Context, sub Submission) (*models.Match, error) {
	role, ok := models.ParseRole(sub.Role)
	if !ok {
		return nil, invalid(ErrInvalidRole, "%q", sub.Role)
	}

	attempts := s.MaxAttempts
	if attempts < 1 {
		attempts = DefaultSubmitAttempts
	}

	var res *submitResult
	for attempt := 1; ; attempt++ {
		var err error
		res, err = s.attempt(ctx, sub, role)
		if err == nil {
			break
		}
		if !errors.Is(err, errStaleMatch) {
			return nil, err
		}
		if attempt >= attempts {
			utils.L().Warn("[RECONCILE] giving up after lost races",
				zap.String("match_id", sub.MatchID),
				zap.String("role", string(role)),
				zap.Int("attempts", attempt),
			)
			return nil, conflict(ErrConcurrentSubmission)
		}
		utils.L().Info("[RECONCILE] lost race, reloading match",
			zap.String("match_id", sub.MatchID),
			zap.String("role", string(role)),
		)
	}

	if len(res.finalized) > 0 {
		s.afterFinalize(ctx, res)
	}
	return res.match, nil
}

func (s *ReconcilerService) attempt(ctx context.Context, sub Submission, role models.Role) (*submitResult, error) {
	var out *submitResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := loadMatch(tx, sub.MatchID)
		if err != nil {
			return err
		}
		out, err = s.apply(tx, m, sub.CallerID, role, sub.Payload)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// apply runs the decision logic against m as loaded by this attempt. The match
// write is conditional on m.Version; losing it returns errStaleMatch and the
// caller's transaction rolls back anything written here.
func (s *ReconcilerService) apply(tx *gorm.DB, m *models.Match, callerID string, role models.Role, payload ResultPayload) (*submitResult, error) {
	if m.ParticipantID(role) != callerID {
		if _, ok := m.RoleOf(callerID); !ok {
			return nil, forbidden(ErrNotParticipant)
		}
		return nil, forbidden(ErrRoleMismatch)
	}
	if m.IsCompleted() {
		return nil, conflict(ErrAlreadyCompleted)
	}
	if m.Result(role) != nil {
		return nil, conflict(ErrDuplicateSubmission)
	}

	slip, err := payload.ToSlip(m.MatchType.Mode())
	if err != nil {
		return nil, err
	}

	m.SetResult(role, slip)
	slot := m.ChallengerResult
	if role == models.RoleOpponent {
		slot = m.OpponentResult
	}
	updates := map[string]any{
		resultColumn(role): slot,
		"version":          gorm.Expr("version + 1"),
	}

	next := models.MatchStatusWaitingOpponent
	if m.Result(role.Other()) != nil {
		next = models.MatchStatusCompleted
	}
	if !models.CanTransition(m.Status, next) {
		return nil, fmt.Errorf("match %s: illegal transition %s -> %s", m.ID, m.Status, next)
	}
	m.Status = next
	updates["status"] = next

	var now time.Time
	if next == models.MatchStatusCompleted {
		now = s.Now()
		winnerID := m.ParticipantID(DetermineWinner(m.Result(models.RoleChallenger), m.Result(models.RoleOpponent)))
		m.WinnerID = &winnerID
		m.CompletedAt = &now
		updates["winner_id"] = winnerID
		updates["completed_at"] = now
	}

	res := tx.Model(&models.Match{}).
		Where("id = ? AND version = ?", m.ID, m.Version).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("write match %s: %w", m.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, errStaleMatch
	}
	m.Version++

	out := &submitResult{match: m}
	if next != models.MatchStatusCompleted {
		utils.L().Info("[RECONCILE] first result stored",
			zap.String("match_id", m.ID),
			zap.String("role", string(role)),
		)
		return out, nil
	}

	for _, r := range []models.Role{models.RoleChallenger, models.RoleOpponent} {
		userID := m.ParticipantID(r)
		st, err := s.Stats.RecordOutcome(tx, models.Outcome{
			UserID:     userID,
			Won:        userID == *m.WinnerID,
			ReactionMs: models.ReactionMillis(m.Result(r)),
			At:         now,
		})
		if err != nil {
			return nil, err
		}
		if s.Badges != nil {
			if _, err := s.Badges.AwardBadges(tx, st, m.ID); err != nil {
				return nil, fmt.Errorf("award badges for %s: %w", userID, err)
			}
		}
		out.finalized = append(out.finalized, *st)
	}

	utils.L().Info("[RECONCILE] match completed",
		zap.String("match_id", m.ID),
		zap.String("match_type", string(m.MatchType)),
		zap.String("winner_id", *m.WinnerID),
	)
	return out, nil
}

// afterFinalize pushes committed results to the optional sinks. Failures are
// logged and never change the response.
func (s *ReconcilerService) afterFinalize(ctx context.Context, res *submitResult) {
	if s.Leaderboard != nil {
		if err := s.Leaderboard.Push(ctx, res.finalized...); err != nil {
			utils.L().Warn("[RECONCILE] leaderboard push failed", zap.String("match_id", res.match.ID), zap.Error(err))
		}
	}
	if s.Archive != nil {
		key := fmt.Sprintf("matches/%s.json", res.match.ID)
		if err := s.Archive.PutJSON(ctx, key, res.match); err != nil {
			utils.L().Warn("[RECONCILE] archive failed", zap.String("match_id", res.match.ID), zap.Error(err))
		}
	}
}

func resultColumn(r models.Role) string {
	if r == models.RoleChallenger {
		return "challenger_result"
	}
	return "opponent_result"
}
