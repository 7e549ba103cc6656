package models

import (
	"time"
)

// MatchType selects how a grudge match is equalised and scored.
type MatchType string

const (
	MatchTypeSimple MatchType = "simple" // drag race, shared fairness pair
	MatchTypePro    MatchType = "pro"    // drag race, each side brings its own dyno record
	MatchTypeRoll   MatchType = "roll"   // 60-130 roll race, shared fairness pair
)

// ParseMatchType returns false for anything outside the three defined variants.
func ParseMatchType(s string) (MatchType, bool) {
	switch MatchType(s) {
	case MatchTypeSimple, MatchTypePro, MatchTypeRoll:
		return MatchType(s), true
	}
	return "", false
}

// Mode reports which time-slip shape the match type expects.
func (t MatchType) Mode() SlipMode {
	if t == MatchTypeRoll {
		return SlipModeRoll
	}
	return SlipModeDrag
}

// UsesFairnessPair is true for the modes where both cars get identical specs.
func (t MatchType) UsesFairnessPair() bool {
	return t == MatchTypeSimple || t == MatchTypeRoll
}

type MatchStatus string

const (
	MatchStatusPending         MatchStatus = "pending"
	MatchStatusAccepted        MatchStatus = "accepted"
	MatchStatusWaitingOpponent MatchStatus = "waiting_opponent"
	MatchStatusCompleted       MatchStatus = "completed"
)

// matchTransitions is the full set of legal status moves. completed has none.
var matchTransitions = map[MatchStatus][]MatchStatus{
	MatchStatusPending:         {MatchStatusAccepted, MatchStatusWaitingOpponent},
	MatchStatusAccepted:        {MatchStatusWaitingOpponent},
	MatchStatusWaitingOpponent: {MatchStatusCompleted},
}

// CanTransition reports whether a match may move from one status to another.
func CanTransition(from, to MatchStatus) bool {
	for _, next := range matchTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Role identifies which side of a match a participant is on.
type Role string

const (
	RoleChallenger Role = "challenger"
	RoleOpponent   Role = "opponent"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleChallenger, RoleOpponent:
		return Role(s), true
	}
	return "", false
}

// Other returns the opposite role.
func (r Role) Other() Role {
	if r == RoleChallenger {
		return RoleOpponent
	}
	return RoleChallenger
}

// FairnessPair is the simulated car both racers get in simple/roll matches.
type FairnessPair struct {
	WeightLbs  int `json:"weight_lbs"`
	Horsepower int `json:"hp"`
}

// Match is one asynchronous race between two users.
type Match struct {
	ID           string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Slug         string      `gorm:"type:varchar(160);index" json:"slug"`
	ChallengerID string      `gorm:"type:varchar(64);index;not null" json:"challenger_id"`
	OpponentID   string      `gorm:"type:varchar(64);index;not null" json:"opponent_id"`
	MatchType    MatchType   `gorm:"type:varchar(16);not null" json:"match_type"`
	Status       MatchStatus `gorm:"type:varchar(24);index;not null;default:'pending'" json:"status"`

	// Fairness pair (simple/roll). Both sides always receive the same numbers.
	WeightLbs  *int `json:"weight_lbs,omitempty"`
	Horsepower *int `json:"hp,omitempty"`

	// Dyno-verified performance references (pro only).
	ChallengerRef *string `gorm:"type:varchar(64)" json:"challenger_ref,omitempty"`
	OpponentRef   *string `gorm:"type:varchar(64)" json:"opponent_ref,omitempty"`

	ChallengerResult *SlipColumn `gorm:"type:text" json:"challenger_result,omitempty"`
	OpponentResult   *SlipColumn `gorm:"type:text" json:"opponent_result,omitempty"`

	WinnerID *string `gorm:"type:varchar(64);index" json:"winner_id,omitempty"`

	// Version backs the conditional write in the submission path.
	Version int64 `gorm:"not null;default:0" json:"-"`

	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IsCompleted is the guard every mutating operation checks first.
func (m *Match) IsCompleted() bool {
	return m.Status == MatchStatusCompleted
}

// Fairness returns the shared pair, or nil for pro matches.
func (m *Match) Fairness() *FairnessPair {
	if m.WeightLbs == nil || m.Horsepower == nil {
		return nil
	}
	return &FairnessPair{WeightLbs: *m.WeightLbs, Horsepower: *m.Horsepower}
}

// RoleOf returns the role userID plays in this match.
func (m *Match) RoleOf(userID string) (Role, bool) {
	switch userID {
	case m.ChallengerID:
		return RoleChallenger, true
	case m.OpponentID:
		return RoleOpponent, true
	}
	return "", false
}

// ParticipantID returns the user bound to role.
func (m *Match) ParticipantID(r Role) string {
	if r == RoleChallenger {
		return m.ChallengerID
	}
	return m.OpponentID
}

// Result returns the slip stored in role's slot, nil when the slot is empty.
func (m *Match) Result(r Role) Slip {
	col := m.ChallengerResult
	if r == RoleOpponent {
		col = m.OpponentResult
	}
	if col == nil {
		return nil
	}
	return col.Slip
}

// SetResult fills role's slot. Callers enforce write-once.
func (m *Match) SetResult(r Role, s Slip) {
	col := &SlipColumn{Slip: s}
	if r == RoleChallenger {
		m.ChallengerResult = col
	} else {
		m.OpponentResult = col
	}
}

// FilledSlots counts non-empty result slots.
func (m *Match) FilledSlots() int {
	n := 0
	if m.ChallengerResult != nil && m.ChallengerResult.Slip != nil {
		n++
	}
	if m.OpponentResult != nil && m.OpponentResult.Slip != nil {
		n++
	}
	return n
}
