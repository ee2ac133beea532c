package room

import (
	"time"

	"github.com/palemoky/wordle-party/internal/game/rule"
)

// PlayerState 房间内的玩家状态，只属于所在房间
type PlayerState struct {
	ID         string
	Name       string
	IsCreator  bool
	IsReady    bool
	Connection ConnectionState
	GraceEpoch uint64 // 每次断线加一，过期的保留期回调据此丢弃
	Guesses    []string
	Results    []rule.Result
	Finished   bool
	Won        bool
	FinishTime time.Time
}

// clone 深拷贝，快照与原状态互不影响
func (p *PlayerState) clone() PlayerState {
	c := *p
	c.Guesses = append([]string(nil), p.Guesses...)
	c.Results = append([]rule.Result(nil), p.Results...)
	return c
}

// resetGame 清除单局数据，保留身份与连接状态
func (p *PlayerState) resetGame() {
	p.IsReady = false
	p.Guesses = nil
	p.Results = nil
	p.Finished = false
	p.Won = false
	p.FinishTime = time.Time{}
}

// record 追加一次猜测，猜中或用完次数时标记完成
func (p *PlayerState) record(word string, res rule.Result, now time.Time) {
	p.Guesses = append(p.Guesses, word)
	p.Results = append(p.Results, res)
	switch {
	case res.Solved():
		p.Finished, p.Won = true, true
		p.FinishTime = now
	case len(p.Guesses) >= rule.MaxGuesses:
		p.Finished = true
		p.FinishTime = now
	}
}
