package models

import (
	"time"
)

// BadgeType: static config, seeded from BadgeTriggers at startup
type BadgeType struct {
	Code        string           `gorm:"primaryKey;type:varchar(32)" json:"code"` // e.g., "FIRST_WIN", "ON_FIRE"
	Name        string           `gorm:"not null" json:"name"`
	Description string           `json:"description"`
	Rarity      string           `gorm:"type:varchar(16);default:'common'" json:"rarity"` // common, rare, epic, legendary
	Threshold   map[string]int64 `gorm:"serializer:json;type:text" json:"threshold"`      // e.g., {"win_streak": 5}
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

// UserBadge: awarded instance, at most one per user and badge
type UserBadge struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(64);uniqueIndex:idx_user_badge;not null" json:"user_id"`
	BadgeCode string    `gorm:"type:varchar(32);uniqueIndex:idx_user_badge;not null" json:"badge_code"`
	MatchID   string    `gorm:"type:varchar(36)" json:"match_id"` // match that triggered the award
	AwardedAt time.Time `gorm:"autoCreateTime" json:"awarded_at"`

	Badge *BadgeType `gorm:"foreignKey:BadgeCode;references:Code" json:"badge,omitempty"`
}

// Threshold keys understood by the badge service.
const (
	ThresholdWins            = "wins"
	ThresholdWinStreak       = "win_streak"
	ThresholdTotalMatches    = "total_matches"
	ThresholdBestReactionMax = "best_reaction_ms_max" // satisfied when best reaction <= value
)

var BadgeTriggers = []BadgeType{
	{
		Code:        "FIRST_WIN",
		Name:        "First Blood",
		Description: "Won your first grudge match",
		Rarity:      "common",
		Threshold:   map[string]int64{ThresholdWins: 1},
	},
	{
		Code:        "HAT_TRICK",
		Name:        "Hat Trick",
		Description: "Won three grudge matches in a row",
		Rarity:      "rare",
		Threshold:   map[string]int64{ThresholdWinStreak: 3},
	},
	{
		Code:        "ON_FIRE",
		Name:        "On Fire",
		Description: "Won five grudge matches in a row",
		Rarity:      "epic",
		Threshold:   map[string]int64{ThresholdWinStreak: 5},
	},
	{
		Code:        "VETERAN",
		Name:        "Veteran",
		Description: "Raced 25 grudge matches",
		Rarity:      "rare",
		Threshold:   map[string]int64{ThresholdTotalMatches: 25},
	},
	{
		Code:        "LIGHTNING",
		Name:        "Lightning Tree",
		Description: "Cut a reaction time of 100 ms or better",
		Rarity:      "legendary",
		Threshold:   map[string]int64{ThresholdBestReactionMax: 100},
	},
}
