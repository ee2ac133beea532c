package main

import (
	"math/rand/v2"

	"github.com/palemoky/wordle-party/internal/game/rule"
)

// solver 根据已有反馈筛选候选词
type solver struct {
	pool     []string
	rejected map[string]struct{}
	rng      *rand.Rand
}

func newSolver(pool []string, seed uint64) *solver {
	return &solver{
		pool:     pool,
		rejected: make(map[string]struct{}),
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// reject 服务端拒绝的词不再尝试
func (s *solver) reject(word string) {
	s.rejected[word] = struct{}{}
}

// candidates 与全部历史反馈一致的词
func (s *solver) candidates(guesses []string, results []rule.Result) []string {
	var out []string
	for _, w := range s.pool {
		if _, bad := s.rejected[w]; bad {
			continue
		}
		if consistent(w, guesses, results) {
			out = append(out, w)
		}
	}
	return out
}

// next 下一次猜测，没有候选时返回空串
func (s *solver) next(guesses []string, results []rule.Result) string {
	c := s.candidates(guesses, results)
	if len(c) == 0 {
		return ""
	}
	return c[s.rng.IntN(len(c))]
}

// pick 从词池随机选一个词（破坏模式给对手出题）
func (s *solver) pick() string {
	if len(s.pool) == 0 {
		return ""
	}
	return s.pool[s.rng.IntN(len(s.pool))]
}

// consistent 假设 word 是答案时，每次猜测都会得到相同的反馈
func consistent(word string, guesses []string, results []rule.Result) bool {
	n := min(len(guesses), len(results))
	for i := range n {
		if rule.Score(guesses[i], word) != results[i] {
			return false
		}
	}
	return true
}
