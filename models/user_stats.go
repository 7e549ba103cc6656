package models

import (
	"time"

	"gorm.io/gorm"
)

// UserStats tracks grudge-match results for each user (denormalized for the leaderboard)
type UserStats struct {
	ID     string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID string `gorm:"type:varchar(64);uniqueIndex;not null" json:"user_id"` // links to profile service

	// Outcome counters
	TotalMatches  int64 `json:"total_matches" gorm:"not null;default:0"`
	Wins          int64 `json:"wins" gorm:"not null;default:0"`
	Losses        int64 `json:"losses" gorm:"not null;default:0"`
	WinStreak     int64 `json:"win_streak" gorm:"not null;default:0"`
	BestWinStreak int64 `json:"best_win_streak" gorm:"not null;default:0"`

	// Reaction aggregates over every finalized match, in milliseconds.
	AvgReactionMs  *float64 `json:"avg_reaction_ms,omitempty"`
	BestReactionMs *float64 `json:"best_reaction_ms,omitempty"`

	LastMatchAt *time.Time `json:"last_match_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// Outcome is one participant's share of a finalized match.
type Outcome struct {
	UserID     string
	Won        bool
	ReactionMs float64
	At         time.Time
}

// Apply folds one outcome into the accumulator. A zero-value row behaves like
// a freshly created one.
func (s *UserStats) Apply(o Outcome) {
	s.TotalMatches++
	if o.Won {
		s.Wins++
		s.WinStreak++
		if s.WinStreak > s.BestWinStreak {
			s.BestWinStreak = s.WinStreak
		}
	} else {
		s.Losses++
		s.WinStreak = 0
	}

	// TotalMatches already counts this outcome.
	r := o.ReactionMs
	if s.TotalMatches == 1 || s.AvgReactionMs == nil || s.BestReactionMs == nil {
		avg, best := r, r
		s.AvgReactionMs, s.BestReactionMs = &avg, &best
	} else {
		n := float64(s.TotalMatches)
		avg := (*s.AvgReactionMs*(n-1) + r) / n
		s.AvgReactionMs = &avg
		if r < *s.BestReactionMs {
			best := r
			s.BestReactionMs = &best
		}
	}

	if !o.At.IsZero() {
		at := o.At
		s.LastMatchAt = &at
	}
}
