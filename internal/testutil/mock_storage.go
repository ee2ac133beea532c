//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/wordle-party/internal/server/storage"
)

// MockStore 存储后端 mock，实现 storage.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) RecordGameResult(ctx context.Context, result *storage.GameResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockStore) GetPlayerStats(ctx context.Context, playerName string) (*storage.PlayerStats, error) {
	args := m.Called(ctx, playerName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.PlayerStats), args.Error(1)
}

func (m *MockStore) GetLeaderboard(ctx context.Context, limit int) ([]storage.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.LeaderboardEntry), args.Error(1)
}

func (m *MockStore) GetRecentGames(ctx context.Context, limit int) ([]storage.GameResult, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.GameResult), args.Error(1)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Results 返回所有 RecordGameResult 调用收到的结果，需在记录协程结束后调用
func (m *MockStore) Results() []*storage.GameResult {
	var out []*storage.GameResult
	for _, c := range m.Calls {
		if c.Method == "RecordGameResult" {
			out = append(out, c.Arguments.Get(1).(*storage.GameResult))
		}
	}
	return out
}
