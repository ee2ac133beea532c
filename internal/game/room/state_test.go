package room

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/palemoky/wordle-party/internal/apperrors"
)

func TestAllPlayersReady(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		players []PlayerState
		want    bool
	}{
		{"no players", nil, false},
		{"single ready", []PlayerState{{ID: "a", IsReady: true}}, true},
		{"single not ready", []PlayerState{{ID: "a"}}, false},
		{"all ready", []PlayerState{{ID: "a", IsReady: true}, {ID: "b", IsReady: true}, {ID: "c", IsReady: true}}, true},
		{"one holdout", []PlayerState{{ID: "a", IsReady: true}, {ID: "b"}, {ID: "c", IsReady: true}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, AllPlayersReady(tt.players))
		})
	}
}

// 对房间做任意变更后，派生值始终与玩家列表一致
func TestAllPlayersReady_TracksMutations(t *testing.T) {
	t.Parallel()

	r := newTestRoom(ModeClassic)
	assert.False(t, AllPlayersReady(r.Players()))

	seatPlayers(t, r, 3)
	readyAll(t, r)
	assert.True(t, AllPlayersReady(r.Players()))

	_, err := r.Join("p4", "Player4")
	assert.NoError(t, err)
	assert.False(t, AllPlayersReady(r.Players()), "新加入的玩家未准备")

	r.Leave("p4", LeaveReasonLeft, epoch)
	assert.True(t, AllPlayersReady(r.Players()))

	_, err = r.SetReady("p2", false)
	assert.NoError(t, err)
	assert.False(t, AllPlayersReady(r.Players()))
}

func TestParseModes(t *testing.T) {
	t.Parallel()

	gm, err := ParseGameMode("")
	assert.NoError(t, err)
	assert.Equal(t, ModeClassic, gm)

	gm, err = ParseGameMode("Sabotage")
	assert.NoError(t, err)
	assert.Equal(t, ModeSabotage, gm)

	_, err = ParseGameMode("battle")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidConfig))

	wm, err := ParseWordMode("daily")
	assert.NoError(t, err)
	assert.Equal(t, WordDaily, wm)

	_, err = ParseWordMode("weekly")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidConfig))
}
