package room

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/palemoky/wordle-party/internal/words"
)

var (
	testCorpus = words.Default("test-salt")
	epoch      = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
)

func newTestRoom(mode GameMode) *Room {
	return New("ABCD", Config{
		GameMode:         mode,
		WordMode:         WordRandom,
		MaxPlayers:       4,
		SelectionTimeout: time.Minute,
		GameTimeout:      5 * time.Minute,
	}, testCorpus)
}

// seatPlayers 加入 n 个玩家（p1..pn），p1 为房主
func seatPlayers(t *testing.T, r *Room, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		_, err := r.Join(fmt.Sprintf("p%d", i), fmt.Sprintf("Player%d", i))
		require.NoError(t, err)
	}
}

func readyAll(t *testing.T, r *Room) {
	t.Helper()
	for _, id := range r.PlayerIDs() {
		_, err := r.SetReady(id, true)
		require.NoError(t, err)
	}
}

// wrongWords 返回 n 个与 target 不同的合法猜测
func wrongWords(target string, n int) []string {
	out := make([]string, 0, n)
	for _, w := range []string{"about", "above", "actor", "adapt", "adult", "after", "again", "agent"} {
		if w != target && len(out) < n {
			out = append(out, w)
		}
	}
	return out
}

func eventTypes(evs []Event) []string {
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = string(e.Type)
	}
	return out
}
