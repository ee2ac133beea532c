package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyResult(t *testing.T) {
	t.Parallel()

	playedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		before     PlayerStats
		result     PlayerResult
		wantDelta  int
		wantScore  int
		wantStreak int
		wantMax    int
		wantDist   [6]int
	}{
		{
			name:       "first win in three",
			result:     PlayerResult{PlayerName: "alice", Won: true, Guesses: 3},
			wantDelta:  13,
			wantScore:  13,
			wantStreak: 1,
			wantMax:    1,
			wantDist:   [6]int{0, 0, 1, 0, 0, 0},
		},
		{
			name:       "third win in a row gets bonus",
			before:     PlayerStats{TotalGames: 2, Wins: 2, Score: 20, CurrentStreak: 2, MaxWinStreak: 2},
			result:     PlayerResult{PlayerName: "alice", Won: true, Guesses: 6},
			wantDelta:  10 + streakBonus3,
			wantScore:  32,
			wantStreak: 3,
			wantMax:    3,
			wantDist:   [6]int{0, 0, 0, 0, 0, 1},
		},
		{
			name:       "loss breaks streak",
			before:     PlayerStats{TotalGames: 4, Wins: 4, Score: 50, CurrentStreak: 4, MaxWinStreak: 4},
			result:     PlayerResult{PlayerName: "alice", Guesses: 6},
			wantDelta:  lossScore,
			wantScore:  47,
			wantStreak: -1,
			wantMax:    4,
		},
		{
			name:       "score never below zero",
			before:     PlayerStats{TotalGames: 1, Losses: 1, Score: 1, CurrentStreak: -1},
			result:     PlayerResult{PlayerName: "bob", Guesses: 6},
			wantDelta:  lossScore,
			wantScore:  0,
			wantStreak: -2,
			wantMax:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stats := tt.before
			delta := applyResult(&stats, tt.result, playedAt)

			assert.Equal(t, tt.wantDelta, delta)
			assert.Equal(t, tt.wantScore, stats.Score)
			assert.Equal(t, tt.wantStreak, stats.CurrentStreak)
			assert.Equal(t, tt.wantMax, stats.MaxWinStreak)
			assert.Equal(t, tt.wantDist, stats.Distribution)
			assert.Equal(t, tt.before.TotalGames+1, stats.TotalGames)
			assert.Equal(t, tt.result.PlayerName, stats.PlayerName)
			assert.Equal(t, playedAt.Unix(), stats.LastPlayedAt)
			assert.Equal(t, stats.Wins+stats.Losses, stats.TotalGames)
		})
	}
}

func TestStreakBonus(t *testing.T) {
	t.Parallel()

	tests := map[int]int{-3: 0, 0: 0, 2: 0, 3: streakBonus3, 4: streakBonus3, 5: streakBonus5, 9: streakBonus5, 10: streakBonus10, 25: streakBonus10}
	for streak, want := range tests {
		assert.Equal(t, want, streakBonus(streak), "streak %d", streak)
	}
}

func TestWinRate(t *testing.T) {
	t.Parallel()

	assert.Zero(t, winRate(0, 0))
	assert.InDelta(t, 50.0, winRate(1, 2), 1e-9)
	assert.InDelta(t, 100.0, winRate(3, 3), 1e-9)
}
