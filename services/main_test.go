package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"grudge-match-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// fixedNow is the clock every test service uses.
var fixedNow = time.Date(2026, 5, 2, 19, 30, 0, 0, time.UTC)

// newTestDB opens a private in-memory sqlite database with the full schema.
// One connection keeps every transaction on the same in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:grudge_%s_%d?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"), dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.RacerUser{},
		&models.Match{},
		&models.UserStats{},
		&models.BadgeType{},
		&models.UserBadge{},
	))
	require.NoError(t, NewBadgeService(db).SeedBadgeTypes(context.Background()))
	return db
}

func seedRacers(t *testing.T, db *gorm.DB, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, db.Create(&models.RacerUser{
			ID:             uuid.NewString(),
			ExternalUserID: name,
			Username:       strings.ToUpper(name[:1]) + name[1:],
		}).Error)
	}
}

// harness wires the services the way main does, minus the optional sinks.
type harness struct {
	db         *gorm.DB
	users      *UserService
	stats      *StatsService
	badges     *BadgeService
	challenges *ChallengeService
	reconciler *ReconcilerService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newTestDB(t)
	seedRacers(t, db, "alice", "bob", "carol")

	h := &harness{db: db}
	h.users = NewUserService(db)
	h.stats = NewStatsService(db)
	h.badges = NewBadgeService(db)
	h.challenges = NewChallengeService(db, h.users)
	h.challenges.Fairness = func() models.FairnessPair {
		return models.FairnessPair{WeightLbs: 3300, Horsepower: 480}
	}
	h.challenges.Now = func() time.Time { return fixedNow }
	h.reconciler = NewReconcilerService(db, h.stats, h.badges)
	h.reconciler.Now = func() time.Time { return fixedNow }
	return h
}

func (h *harness) createMatch(t *testing.T, challenger, opponent string, mt models.MatchType) *models.Match {
	t.Helper()
	m, err := h.challenges.CreateMatch(context.Background(), CreateMatchInput{
		ChallengerID: challenger,
		OpponentID:   opponent,
		MatchType:    string(mt),
	})
	require.NoError(t, err)
	return m
}

func (h *harness) submit(m *models.Match, role models.Role, p ResultPayload) (*models.Match, error) {
	return h.reconciler.SubmitResult(context.Background(), Submission{
		MatchID:  m.ID,
		CallerID: m.ParticipantID(role),
		Role:     string(role),
		Payload:  p,
	})
}

func f(v float64) *float64 { return &v }

func dragPayload(reaction float64) ResultPayload {
	return ResultPayload{
		ReactionTime:   f(reaction),
		SixtyFoot:      f(1.72),
		EighthMileET:   f(7.41),
		EighthMileMPH:  f(94.8),
		QuarterMileET:  f(11.62),
		QuarterMileMPH: f(118.3),
	}
}

func rollPayload(reaction, total float64) ResultPayload {
	return ResultPayload{
		ReactionTime:         f(reaction),
		SixtyToHundred:       f(3.1),
		HundredToOneTwenty:   f(2.3),
		OneTwentyToOneThirty: f(total - 5.4),
		Total:                f(total),
	}
}
