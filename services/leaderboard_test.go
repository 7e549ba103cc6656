package services

import (
	"context"
	"testing"

	"grudge-match-system/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisLeaderboard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLeaderboard(rdb), mr
}

func TestRedisLeaderboardPushAndTop(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	ids, ok, err := cache.Top(ctx, "wins", 10)
	require.NoError(t, err)
	assert.False(t, ok, "empty cache must fall through")
	assert.Nil(t, ids)

	require.NoError(t, cache.Rebuild(ctx, nil))
	require.NoError(t, cache.Push(ctx,
		models.UserStats{UserID: "alice", Wins: 2, TotalMatches: 3},
		models.UserStats{UserID: "bob", Wins: 5, TotalMatches: 6},
		models.UserStats{UserID: "carol", Wins: 1, TotalMatches: 9},
	))

	ids, ok, err = cache.Top(ctx, "wins", 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"bob", "alice"}, ids)

	ids, _, err = cache.Top(ctx, "total_matches", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "bob", "alice"}, ids)

	// pushes carry absolute values
	require.NoError(t, cache.Push(ctx, models.UserStats{UserID: "carol", Wins: 7}))
	ids, _, err = cache.Top(ctx, "wins", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, ids)

	_, ok, err = cache.Top(ctx, "best_reaction_ms", 10)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisLeaderboardIgnoresPushesWithoutRebuild(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Rebuild(ctx, []models.UserStats{
		{UserID: "alice", Wins: 4},
		{UserID: "bob", Wins: 3},
	}))
	_, ok, err := cache.Top(ctx, "wins", 10)
	require.NoError(t, err)
	require.True(t, ok)

	// after a flush only the latest finishers would be in the sets
	mr.FlushAll()
	require.NoError(t, cache.Push(ctx, models.UserStats{UserID: "carol", Wins: 1}))

	ids, ok, err := cache.Top(ctx, "wins", 10)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, ids)
}

func TestLeaderboardTiesOrderTheSameWithAndWithoutCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	race(t, h, "alice", "bob", "alice", 300, 450)
	race(t, h, "carol", "bob", "carol", 280, 300)
	race(t, h, "bob", "alice", "bob", 250, 400)

	fromDB, err := NewLeaderboardService(h.stats, nil).Top(ctx, "wins", 10)
	require.NoError(t, err)

	cache, _ := newTestCache(t)
	svc := NewLeaderboardService(h.stats, cache)
	require.NoError(t, svc.Rebuild(ctx))
	fromCache, err := svc.Top(ctx, "wins", 10)
	require.NoError(t, err)

	ids := func(rows []models.UserStats) []string {
		out := make([]string, len(rows))
		for i, r := range rows {
			out[i] = r.UserID
		}
		return out
	}
	assert.Equal(t, []string{"carol", "bob", "alice"}, ids(fromDB))
	assert.Equal(t, ids(fromDB), ids(fromCache))

	// limit cuts inside the tie the same way
	top2, err := NewLeaderboardService(h.stats, nil).Top(ctx, "wins", 2)
	require.NoError(t, err)
	cached2, err := svc.Top(ctx, "wins", 2)
	require.NoError(t, err)
	assert.Equal(t, ids(top2), ids(cached2))
}

func TestRedisLeaderboardRebuild(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Push(ctx, models.UserStats{UserID: "ghost", Wins: 99}))
	require.NoError(t, cache.Rebuild(ctx, []models.UserStats{
		{UserID: "alice", Wins: 1},
		{UserID: "bob", Wins: 2},
	}))

	members, err := mr.ZMembers(leaderboardKeyPrefix + "wins")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, members)

	score, err := mr.ZScore(leaderboardKeyPrefix+"wins", "bob")
	require.NoError(t, err)
	assert.Equal(t, 2.0, score)
}

func TestLeaderboardServiceUsesCacheThenDatabase(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	race(t, h, "alice", "bob", "alice", 300, 450)
	race(t, h, "carol", "bob", "carol", 280, 300)

	cache, mr := newTestCache(t)
	svc := NewLeaderboardService(h.stats, cache)

	// cold cache reads the table
	rows, err := svc.Top(ctx, "wins", 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.NoError(t, svc.Rebuild(ctx))
	// drop bob from the cached ordering so the cached path is observable
	mr.ZRem(leaderboardKeyPrefix+"wins", "bob")

	rows, err = svc.Top(ctx, "wins", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.NotEqual(t, "bob", r.UserID)
		assert.EqualValues(t, 1, r.Wins)
	}

	// reaction orderings always come from the table
	rows, err = svc.Top(ctx, "best_reaction_ms", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "carol", rows[0].UserID)

	// a dead redis degrades to the table
	mr.Close()
	rows, err = svc.Top(ctx, "wins", 10)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestReconcilerPushesToRedis(t *testing.T) {
	h := newHarness(t)
	cache, _ := newTestCache(t)
	h.reconciler.Leaderboard = cache
	require.NoError(t, cache.Rebuild(context.Background(), nil))

	race(t, h, "alice", "bob", "bob", 200, 300)

	ids, ok, err := cache.Top(context.Background(), "wins", 10)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bob", ids[0])
}
