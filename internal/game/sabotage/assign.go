// Package sabotage 实现破坏模式的选词分配：每位玩家为另一位玩家挑选目标词。
package sabotage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/palemoky/wordle-party/internal/apperrors"
	"github.com/palemoky/wordle-party/internal/game/rule"
	"github.com/palemoky/wordle-party/internal/words"
)

// Player 参与分配的玩家
type Player struct {
	ID   string
	Name string
}

// WordAssignment 一条选词分配：Picker 为 Target 选词
type WordAssignment struct {
	TargetID   string
	TargetName string
	Word       string
	PickerID   string
	PickerName string
}

// Eligibility 判断单词能否作为目标词
type Eligibility interface {
	IsSabotageEligible(word string) bool
}

// Assign 按稳定顺序生成错排：第 i 位玩家的目标由第 i+1 位玩家选词
//
// 两人时等价于互换，三人及以上为偏移 1 的轮转，任何玩家都不会为自己选词。
// 少于两人时返回 nil。
func Assign(players []Player) []WordAssignment {
	n := len(players)
	if n < 2 {
		return nil
	}

	out := make([]WordAssignment, n)
	for i, target := range players {
		picker := players[(i+1)%n]
		out[i] = WordAssignment{
			TargetID:   target.ID,
			TargetName: target.Name,
			PickerID:   picker.ID,
			PickerName: picker.Name,
		}
	}
	return out
}

// ValidateWord 校验选词：5 个字母且在基础 + 高难词表中
func ValidateWord(word string, corpus Eligibility) (string, error) {
	w := rule.Normalize(word)
	if !rule.IsWord(w) {
		return "", apperrors.ErrInvalidWord
	}
	if !corpus.IsSabotageEligible(w) {
		return "", apperrors.ErrNotInWordList.WithMessage(
			fmt.Sprintf("%s 不能作为目标词", strings.ToUpper(w)))
	}
	return w, nil
}

// Submit 为 pickerID 负责的分配写入单词，校验失败时原分配保持不变
func Submit(assignments []WordAssignment, pickerID, word string, corpus Eligibility) (int, error) {
	idx := IndexByPicker(assignments, pickerID)
	if idx < 0 {
		return -1, apperrors.ErrNoAssignment
	}

	w, err := ValidateWord(word, corpus)
	if err != nil {
		return idx, err
	}
	assignments[idx].Word = w
	return idx, nil
}

// IndexByPicker 返回 pickerID 负责的分配下标，不存在时返回 -1
func IndexByPicker(assignments []WordAssignment, pickerID string) int {
	for i := range assignments {
		if assignments[i].PickerID == pickerID {
			return i
		}
	}
	return -1
}

// IndexByTarget 返回目标为 targetID 的分配下标，不存在时返回 -1
func IndexByTarget(assignments []WordAssignment, targetID string) int {
	for i := range assignments {
		if assignments[i].TargetID == targetID {
			return i
		}
	}
	return -1
}

// Complete 是否所有分配都已有单词
func Complete(assignments []WordAssignment) bool {
	for _, a := range assignments {
		if a.Word == "" {
			return false
		}
	}
	return true
}

// Fallback 为未提交的分配确定性地选一个词，种子为 房间号|目标玩家|局号
func Fallback(pool []string, roomCode, targetID string, generation uint64) string {
	return words.Pick(pool, words.Seed(roomCode, targetID, strconv.FormatUint(generation, 10)))
}

// FillMissing 返回补齐兜底单词后的新分配切片，不修改入参
func FillMissing(assignments []WordAssignment, pool []string, roomCode string, generation uint64) []WordAssignment {
	out := make([]WordAssignment, len(assignments))
	copy(out, assignments)
	for i := range out {
		if out[i].Word == "" {
			out[i].Word = Fallback(pool, roomCode, out[i].TargetID, generation)
		}
	}
	return out
}
