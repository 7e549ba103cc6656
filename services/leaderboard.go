// services/leaderboard.go
package services

import (
	"context"
	"fmt"

	"grudge-match-system/models"
	"grudge-match-system/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const leaderboardKeyPrefix = "grudge:leaderboard:"

// leaderboardBuiltKey marks sorted sets loaded from the full stats table. Push
// alone only ever holds the users who finished a match since redis came up.
const leaderboardBuiltKey = leaderboardKeyPrefix + "built"

// cachedScores are the leaderboard orderings kept as redis sorted sets. The
// reaction orderings are ascending and nullable, so they always go to the DB.
var cachedScores = map[string]func(models.UserStats) float64{
	"wins":            func(s models.UserStats) float64 { return float64(s.Wins) },
	"win_streak":      func(s models.UserStats) float64 { return float64(s.WinStreak) },
	"best_win_streak": func(s models.UserStats) float64 { return float64(s.BestWinStreak) },
	"total_matches":   func(s models.UserStats) float64 { return float64(s.TotalMatches) },
}

// RedisLeaderboard mirrors stats counters into sorted sets.
type RedisLeaderboard struct {
	rdb *redis.Client
}

func NewRedisLeaderboard(rdb *redis.Client) *RedisLeaderboard {
	return &RedisLeaderboard{rdb: rdb}
}

func (l *RedisLeaderboard) key(sortBy string) string { return leaderboardKeyPrefix + sortBy }

// Push writes the absolute counters of each row.
func (l *RedisLeaderboard) Push(ctx context.Context, rows ...models.UserStats) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := l.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for sortBy, score := range cachedScores {
			members := make([]redis.Z, 0, len(rows))
			for _, r := range rows {
				members = append(members, redis.Z{Score: score(r), Member: r.UserID})
			}
			p.ZAdd(ctx, l.key(sortBy), members...)
		}
		return nil
	})
	return err
}

// Rebuild replaces every sorted set with the given rows.
func (l *RedisLeaderboard) Rebuild(ctx context.Context, rows []models.UserStats) error {
	_, err := l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for sortBy, score := range cachedScores {
			p.Del(ctx, l.key(sortBy))
			if len(rows) == 0 {
				continue
			}
			members := make([]redis.Z, 0, len(rows))
			for _, r := range rows {
				members = append(members, redis.Z{Score: score(r), Member: r.UserID})
			}
			p.ZAdd(ctx, l.key(sortBy), members...)
		}
		p.Set(ctx, leaderboardBuiltKey, "1", 0)
		return nil
	})
	return err
}

// Top returns the user ids at the head of a cached ordering, highest score
// first and equal scores by user id descending. ok is false when the ordering
// is not cached or no Rebuild has run against this redis.
func (l *RedisLeaderboard) Top(ctx context.Context, sortBy string, limit int) (ids []string, ok bool, err error) {
	if _, cached := cachedScores[sortBy]; !cached {
		return nil, false, nil
	}
	n, err := l.rdb.Exists(ctx, leaderboardBuiltKey).Result()
	if err != nil {
		return nil, false, err
	}
	if n == 0 {
		return nil, false, nil
	}
	ids, err = l.rdb.ZRevRange(ctx, l.key(sortBy), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, false, err
	}
	return ids, true, nil
}

// LeaderboardService serves the leaderboard from redis when it can and from
// the stats table otherwise.
type LeaderboardService struct {
	Stats *StatsService
	Cache *RedisLeaderboard // nil when redis is not configured
}

func NewLeaderboardService(stats *StatsService, cache *RedisLeaderboard) *LeaderboardService {
	return &LeaderboardService{Stats: stats, Cache: cache}
}

func (s *LeaderboardService) Top(ctx context.Context, sortBy string, limit int) ([]models.UserStats, error) {
	sortBy, limit, err := NormalizeLeaderboardQuery(sortBy, limit)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		ids, ok, err := s.Cache.Top(ctx, sortBy, limit)
		switch {
		case err != nil:
			utils.L().Warn("[LEADERBOARD] cache read failed, using database", zap.String("sort_by", sortBy), zap.Error(err))
		case ok:
			rows, err := s.Stats.StatsByUsers(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("load cached leaderboard rows: %w", err)
			}
			return rows, nil
		}
	}
	return s.Stats.Leaderboard(ctx, sortBy, limit)
}

// Rebuild reloads the cache from the stats table.
func (s *LeaderboardService) Rebuild(ctx context.Context) error {
	if s.Cache == nil {
		return nil
	}
	rows, err := s.Stats.AllStats(ctx)
	if err != nil {
		return err
	}
	return s.Cache.Rebuild(ctx, rows)
}
