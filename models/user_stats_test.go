package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyCounters(t *testing.T) {
	var s UserStats
	results := []bool{true, true, false, true, true, true, false}
	for _, won := range results {
		s.Apply(Outcome{Won: won, ReactionMs: 400})
	}

	assert.EqualValues(t, 7, s.TotalMatches)
	assert.EqualValues(t, 5, s.Wins)
	assert.EqualValues(t, 2, s.Losses)
	assert.Equal(t, s.TotalMatches, s.Wins+s.Losses)
	assert.EqualValues(t, 0, s.WinStreak)
	assert.EqualValues(t, 3, s.BestWinStreak)
}

func TestApplyStreak(t *testing.T) {
	var s UserStats
	s.Apply(Outcome{Won: true})
	s.Apply(Outcome{Won: true})
	assert.EqualValues(t, 2, s.WinStreak)

	s.Apply(Outcome{Won: false})
	assert.EqualValues(t, 0, s.WinStreak)
	assert.EqualValues(t, 2, s.BestWinStreak)

	s.Apply(Outcome{Won: true})
	assert.EqualValues(t, 1, s.WinStreak)
	assert.EqualValues(t, 2, s.BestWinStreak)
}

func TestApplyReactionMeanIsOrderIndependent(t *testing.T) {
	samples := []float64{412, 389, 501.5, 275, 333.25}
	orders := [][]int{
		{0, 1, 2, 3, 4},
		{4, 3, 2, 1, 0},
		{2, 0, 4, 1, 3},
	}

	want := 0.0
	for _, v := range samples {
		want += v
	}
	want /= float64(len(samples))

	for _, order := range orders {
		var s UserStats
		for _, i := range order {
			s.Apply(Outcome{Won: i%2 == 0, ReactionMs: samples[i]})
		}
		require.NotNil(t, s.AvgReactionMs)
		require.NotNil(t, s.BestReactionMs)
		assert.InDelta(t, want, *s.AvgReactionMs, 1e-9)
		assert.Equal(t, 275.0, *s.BestReactionMs)
		assert.EqualValues(t, len(samples), s.TotalMatches)
	}
}

func TestApplyFirstMatchSeedsReaction(t *testing.T) {
	var s UserStats
	s.Apply(Outcome{Won: false, ReactionMs: 999999})
	require.NotNil(t, s.AvgReactionMs)
	require.NotNil(t, s.BestReactionMs)
	assert.Equal(t, 999999.0, *s.AvgReactionMs)
	assert.Equal(t, 999999.0, *s.BestReactionMs)

	s.Apply(Outcome{Won: true, ReactionMs: 401})
	assert.Equal(t, 500200.0, *s.AvgReactionMs)
	assert.Equal(t, 401.0, *s.BestReactionMs)
}

func TestApplyLastMatchAt(t *testing.T) {
	var s UserStats
	at := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	s.Apply(Outcome{Won: true, At: at})
	require.NotNil(t, s.LastMatchAt)
	assert.True(t, at.Equal(*s.LastMatchAt))
}
