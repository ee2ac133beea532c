package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/wordle-party/internal/game/room"
	"github.com/palemoky/wordle-party/internal/protocol"
	"github.com/palemoky/wordle-party/internal/protocol/codec"
	"github.com/palemoky/wordle-party/internal/server/storage"
	"github.com/palemoky/wordle-party/internal/testutil"
)

func getJSON(t *testing.T, ts *testServer, path string, out any) int {
	t.Helper()
	resp, err := http.Get(ts.ts.URL + path)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestAPI_Health(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil, nil)

	var body healthBody
	assert.Equal(t, http.StatusOK, getJSON(t, ts, "/health", &body))
	assert.Equal(t, healthBody{Status: "ok"}, body)

	ws := ts.connect(t)
	sendJSON(t, ws, protocol.MsgCreateRoom, protocol.CreateRoomPayload{PlayerName: "alice"})
	expect(t, ws, protocol.MsgRoomJoined)

	assert.Equal(t, http.StatusOK, getJSON(t, ts, "/health", &body))
	assert.Equal(t, 1, body.Rooms)
	assert.Equal(t, 1, body.Online)
	assert.Zero(t, body.ActiveGames)
}

func TestAPI_Rooms(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil, nil)

	var rooms []room.Summary
	assert.Equal(t, http.StatusOK, getJSON(t, ts, "/api/rooms", &rooms))
	assert.Empty(t, rooms)

	ws := ts.connect(t)
	sendJSON(t, ws, protocol.MsgCreateRoom, protocol.CreateRoomPayload{PlayerName: "alice", GameMode: "sabotage"})
	msg, _ := expect(t, ws, protocol.MsgRoomJoined)
	joined, err := codec.ParsePayload[protocol.RoomJoinedPayload](msg)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, getJSON(t, ts, "/api/rooms", &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, joined.RoomCode, rooms[0].Code)
	assert.Equal(t, room.ModeSabotage, rooms[0].GameMode)
	assert.Equal(t, 1, rooms[0].Players)
}

func TestAPI_PlayerStats(t *testing.T) {
	t.Parallel()

	store := &testutil.MockStore{}
	store.On("GetPlayerStats", mock.Anything, "alice").Return(&storage.PlayerStats{PlayerName: "alice", TotalGames: 3, Wins: 2}, nil)
	store.On("GetPlayerStats", mock.Anything, "ghost").Return(nil, nil)
	store.On("GetPlayerStats", mock.Anything, "broken").Return(nil, errors.New("redis down"))
	ts := newTestServer(t, store, nil)

	var stats storage.PlayerStats
	assert.Equal(t, http.StatusOK, getJSON(t, ts, "/api/stats/alice", &stats))
	assert.Equal(t, 2, stats.Wins)

	var e errorBody
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts, "/api/stats/ghost", &e))
	assert.Equal(t, "player_not_found", e.Error)

	assert.Equal(t, http.StatusInternalServerError, getJSON(t, ts, "/api/stats/broken", &e))
	assert.Equal(t, "store_error", e.Error)

	store.AssertExpectations(t)
}

func TestAPI_LeaderboardLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query string
		limit int
	}{
		{"", defaultListLimit},
		{"?limit=3", 3},
		{"?limit=-1", defaultListLimit},
		{"?limit=abc", defaultListLimit},
		{"?limit=5000", maxListLimit},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()

			store := &testutil.MockStore{}
			store.On("GetLeaderboard", mock.Anything, tt.limit).Return([]storage.LeaderboardEntry{{Rank: 1, PlayerName: "alice", Score: 42}}, nil)
			ts := newTestServer(t, store, nil)

			var entries []storage.LeaderboardEntry
			assert.Equal(t, http.StatusOK, getJSON(t, ts, "/api/leaderboard"+tt.query, &entries))
			require.Len(t, entries, 1)
			assert.Equal(t, 42, entries[0].Score)
			store.AssertExpectations(t)
		})
	}
}

func TestAPI_RecentGames(t *testing.T) {
	t.Parallel()

	store := &testutil.MockStore{}
	store.On("GetRecentGames", mock.Anything, 2).Return(nil, nil)
	ts := newTestServer(t, store, nil)

	var games []storage.GameResult
	assert.Equal(t, http.StatusOK, getJSON(t, ts, "/api/games/recent?limit=2", &games))
	assert.NotNil(t, games)
	assert.Empty(t, games)
}

func TestAPI_DailyLeaderboardUnsupported(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil, nil)

	var e errorBody
	assert.Equal(t, http.StatusNotImplemented, getJSON(t, ts, "/api/leaderboard/daily", &e))
	assert.Equal(t, "not_supported", e.Error)
}

func TestAPI_NotFound(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil, nil)

	var e errorBody
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts, "/nope", &e))
	assert.Equal(t, "/nope", e.Path)
}

func TestGracefulShutdown_NoActiveGames(t *testing.T) {
	t.Parallel()

	store := &testutil.MockStore{}
	store.On("Close").Return(nil).Once()
	ts := newTestServer(t, store, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		ts.s.GracefulShutdown(ctx, time.Minute)
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("shutdown did not finish")
	}
	assert.True(t, ts.s.IsMaintenanceMode())
	store.AssertExpectations(t)
}
