package client

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/wordle-party/internal/game/rule"
	"github.com/palemoky/wordle-party/internal/protocol"
	"github.com/palemoky/wordle-party/internal/protocol/codec"
)

func apply(t *testing.T, s State, msgType protocol.MessageType, payload any) State {
	t.Helper()
	next, err := s.Apply(codec.MustNewMessage(msgType, payload))
	require.NoError(t, err)
	return next
}

// midGame 返回一局进行中的破坏模式状态
func midGame(t *testing.T) State {
	t.Helper()

	s := NewState("alice")
	s = apply(t, s, protocol.MsgConnected, protocol.ConnectedPayload{ConnectionID: "conn-1"})
	s = apply(t, s, protocol.MsgRoomJoined, protocol.RoomJoinedPayload{
		RoomCode:       "ABCD",
		PlayerID:       "p1",
		ReconnectToken: "token",
		State: protocol.RoomStatePayload{
			Code:     "ABCD",
			GameMode: "sabotage",
			WordMode: "random",
			Phase:    PhaseWaiting,
			Players: []protocol.PlayerInfo{
				{ID: "p1", Name: "alice", IsCreator: true, IsReady: true, Connection: "connected"},
			},
		},
	})
	s = apply(t, s, protocol.MsgPlayerJoined, protocol.PlayerJoinedPayload{
		Player: protocol.PlayerInfo{ID: "p2", Name: "bob", IsReady: true, Connection: "connected"},
	})
	s = apply(t, s, protocol.MsgSelectionStarted, protocol.SelectionStartedPayload{TargetID: "p2", TargetName: "bob", Deadline: 1000})
	s = apply(t, s, protocol.MsgWordAccepted, protocol.WordAcceptedPayload{TargetID: "p2", Word: "crane"})
	s = apply(t, s, protocol.MsgGameStarted, protocol.GameStartedPayload{GameStartedAt: 2000, Deadline: 5000})
	s = apply(t, s, protocol.MsgGuessResult, protocol.GuessResultPayload{
		PlayerID:   "p1",
		Word:       "slate",
		Result:     []string{"absent", "absent", "present", "absent", "correct"},
		GuessCount: 1,
	})
	return s
}

func TestState_Sequence(t *testing.T) {
	t.Parallel()

	s := midGame(t)

	assert.Equal(t, "conn-1", s.ConnectionID)
	assert.Equal(t, "ABCD", s.RoomCode)
	assert.True(t, s.IsCreator())
	assert.True(t, s.AllPlayersReady())
	assert.Equal(t, PhasePlaying, s.Phase)
	assert.Equal(t, []Opponent{{TargetID: "p2", TargetName: "bob", Word: "crane"}}, s.Opponents)
	assert.Empty(t, s.PendingOpponents())
	assert.Equal(t, []string{"slate"}, s.Guesses)
	require.Len(t, s.Results, 1)
	assert.Equal(t, rule.Present, s.Results[0][2])
	assert.Equal(t, 1, s.Players[0].GuessCount)

	// 其他玩家的结果不带单词，也不进入自己的猜测列表
	s = apply(t, s, protocol.MsgGuessResult, protocol.GuessResultPayload{
		PlayerID:   "p2",
		Result:     []string{"correct", "correct", "correct", "correct", "correct"},
		GuessCount: 1,
		Finished:   true,
		Won:        true,
	})
	assert.Len(t, s.Guesses, 1)
	assert.True(t, s.Players[1].Won)
	assert.False(t, s.Won)

	s = apply(t, s, protocol.MsgGameOver, protocol.GameOverPayload{Reason: "all_finished"})
	assert.Equal(t, PhaseResults, s.Phase)
	require.NotNil(t, s.GameOver)
}

func TestState_ResetRoom(t *testing.T) {
	t.Parallel()

	s := midGame(t)
	r := s.ResetRoom()

	assert.Equal(t, PhaseLobby, r.Phase)
	assert.Empty(t, r.Opponents)
	assert.NotNil(t, r.Guesses)
	assert.Empty(t, r.Guesses)
	assert.Empty(t, r.Results)
	assert.Empty(t, r.RoomCode)
	assert.Empty(t, r.PlayerID)
	assert.Empty(t, r.ReconnectToken)
	assert.Empty(t, r.Players)
	assert.Nil(t, r.GameOver)
	assert.False(t, r.InRoom())

	// 连接身份保留
	assert.Equal(t, "conn-1", r.ConnectionID)
	assert.Equal(t, "alice", r.PlayerName)

	// 原值不受影响
	assert.Equal(t, "ABCD", s.RoomCode)
	assert.Len(t, s.Guesses, 1)
}

func TestState_ResetGame(t *testing.T) {
	t.Parallel()

	s := midGame(t)
	g := s.ResetGame()

	assert.Equal(t, "ABCD", g.RoomCode)
	assert.Equal(t, "p1", g.PlayerID)
	assert.Equal(t, "token", g.ReconnectToken)
	assert.Equal(t, "sabotage", g.GameMode)
	assert.True(t, g.IsCreator())

	assert.Equal(t, PhaseWaiting, g.Phase)
	assert.Empty(t, g.Opponents)
	assert.Empty(t, g.Guesses)
	assert.Empty(t, g.Results)
	assert.Zero(t, g.GameStartedAt)
	assert.False(t, g.AllPlayersReady())
	for _, p := range g.Players {
		assert.Zero(t, p.GuessCount)
		assert.Empty(t, p.Results)
	}

	// 原值不受影响
	assert.True(t, s.Players[0].IsReady)
	assert.Equal(t, 1, s.Players[0].GuessCount)
}

func TestState_RoomStateAfterResults(t *testing.T) {
	t.Parallel()

	s := midGame(t)
	s = apply(t, s, protocol.MsgGameOver, protocol.GameOverPayload{Reason: "timeout"})

	s = apply(t, s, protocol.MsgRoomState, protocol.RoomStatePayload{
		Code:       "ABCD",
		GameMode:   "sabotage",
		Phase:      PhaseWaiting,
		Generation: 2,
		Players: []protocol.PlayerInfo{
			{ID: "p1", Name: "alice", IsCreator: true},
			{ID: "p2", Name: "bob"},
		},
	})
	assert.Equal(t, PhaseWaiting, s.Phase)
	assert.Empty(t, s.Guesses)
	assert.Empty(t, s.Opponents)
	assert.Nil(t, s.GameOver)
	assert.Equal(t, uint64(2), s.Generation)
	assert.Equal(t, "token", s.ReconnectToken)
}

func TestState_ReconnectRestoresProgress(t *testing.T) {
	t.Parallel()

	s := NewState("alice")
	s = apply(t, s, protocol.MsgReconnected, protocol.ReconnectedPayload{
		PlayerID: "p1",
		RoomCode: "ABCD",
		State: protocol.RoomStatePayload{
			Code:  "ABCD",
			Phase: PhasePlaying,
			Players: []protocol.PlayerInfo{{
				ID:         "p1",
				Name:       "alice",
				GuessCount: 2,
				Results: [][]string{
					{"absent", "absent", "absent", "absent", "absent"},
					{"correct", "absent", "absent", "absent", "absent"},
				},
			}},
		},
	})
	assert.Equal(t, PhasePlaying, s.Phase)
	assert.Len(t, s.Results, 2)
	assert.Equal(t, rule.Correct, s.Results[1][0])
}

func TestState_PlayerLeft(t *testing.T) {
	t.Parallel()

	s := midGame(t)
	other := apply(t, s, protocol.MsgPlayerLeft, protocol.PlayerLeftPayload{PlayerID: "p2", Reason: "left"})
	assert.Len(t, other.Players, 1)
	assert.Len(t, s.Players, 2)

	self := apply(t, s, protocol.MsgPlayerLeft, protocol.PlayerLeftPayload{PlayerID: "p1", Reason: "timed_out"})
	assert.False(t, self.InRoom())
	assert.Equal(t, PhaseLobby, self.Phase)
}

func TestState_Connection(t *testing.T) {
	t.Parallel()

	s := midGame(t)
	s = apply(t, s, protocol.MsgPlayerOffline, protocol.PlayerOfflinePayload{PlayerID: "p2"})
	assert.Equal(t, "disconnected", s.Players[1].Connection)
	s = apply(t, s, protocol.MsgPlayerOnline, protocol.PlayerOnlinePayload{PlayerID: "p2"})
	assert.Equal(t, "connected", s.Players[1].Connection)
}

func TestState_ApplyErrors(t *testing.T) {
	t.Parallel()

	s := midGame(t)

	next, err := s.Apply(&protocol.Message{Type: protocol.MsgRoomState, Payload: []byte(`{"players":1}`)})
	require.Error(t, err)
	assert.Empty(t, cmp.Diff(s, next))

	_, err = s.Apply(codec.MustNewMessage(protocol.MsgGuessResult, protocol.GuessResultPayload{PlayerID: "p1", Result: []string{"green"}}))
	require.Error(t, err)

	s = apply(t, s, protocol.MsgError, protocol.ErrorPayload{Code: protocol.ErrCodeInvalidMsg, Message: "bad"})
	require.NotNil(t, s.LastError)
	assert.Equal(t, protocol.ErrCodeInvalidMsg, s.LastError.Code)

	// 未知类型不改变状态
	unchanged, err := s.Apply(&protocol.Message{Type: protocol.MsgPong})
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(s, unchanged))
}
