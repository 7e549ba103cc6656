// services/scheduler.go
package services

import (
	"context"
	"time"

	"grudge-match-system/utils"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// MaintenanceJobs runs the periodic stats audit and leaderboard rebuild.
type MaintenanceJobs struct {
	Stats       *StatsService
	Leaderboard *LeaderboardService
	Interval    time.Duration

	sched gocron.Scheduler
}

func NewMaintenanceJobs(stats *StatsService, leaderboard *LeaderboardService, interval time.Duration) *MaintenanceJobs {
	return &MaintenanceJobs{Stats: stats, Leaderboard: leaderboard, Interval: interval}
}

// Start registers the jobs and starts the scheduler. Jobs stop when ctx is
// cancelled or Shutdown is called.
func (j *MaintenanceJobs) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(j.Interval),
		gocron.NewTask(func() { j.RunAudit(ctx) }),
		gocron.WithName("stats-audit"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return err
	}

	if j.Leaderboard != nil && j.Leaderboard.Cache != nil {
		if _, err := sched.NewJob(
			gocron.DurationJob(j.Interval),
			gocron.NewTask(func() { j.RunLeaderboardRebuild(ctx) }),
			gocron.WithName("leaderboard-rebuild"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		); err != nil {
			return err
		}
	}

	sched.Start()
	j.sched = sched
	utils.L().Info("[AUDIT] maintenance jobs started", zap.Duration("interval", j.Interval))
	return nil
}

// Shutdown stops the scheduler and waits for running jobs.
func (j *MaintenanceJobs) Shutdown() error {
	if j.sched == nil {
		return nil
	}
	return j.sched.Shutdown()
}

// RunAudit logs every stats row that disagrees with the completed matches.
func (j *MaintenanceJobs) RunAudit(ctx context.Context) int {
	drift, err := j.Stats.Audit(ctx)
	if err != nil {
		utils.L().Error("[AUDIT] stats audit failed", zap.Error(err))
		return 0
	}
	for _, d := range drift {
		utils.L().Warn("[AUDIT] stats drift",
			zap.String("user_id", d.UserID),
			zap.Int64("total_matches", d.TotalMatches),
			zap.Int64("completed_matches", d.CompletedMatches),
			zap.Int64("wins", d.Wins),
			zap.Int64("losses", d.Losses),
		)
	}
	if len(drift) == 0 {
		utils.L().Debug("[AUDIT] stats consistent")
	}
	return len(drift)
}

func (j *MaintenanceJobs) RunLeaderboardRebuild(ctx context.Context) {
	start := time.Now()
	if err := j.Leaderboard.Rebuild(ctx); err != nil {
		utils.L().Warn("[AUDIT] leaderboard rebuild failed", zap.Error(err))
		return
	}
	utils.L().Debug("[AUDIT] leaderboard rebuilt", zap.Duration("took", time.Since(start)))
}
