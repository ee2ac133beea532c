package rule

import (
	"fmt"
	"strings"
)

const (
	// WordLength 单词长度
	WordLength = 5
	// MaxGuesses 每局最多猜测次数
	MaxGuesses = 6
)

// LetterStatus 单个字母的判定结果
type LetterStatus string

const (
	Correct LetterStatus = "correct" // 字母和位置都正确
	Present LetterStatus = "present" // 字母存在但位置不对
	Absent  LetterStatus = "absent"  // 字母不存在（或已被计满）
)

// Result 一次猜测的逐字母结果
type Result [WordLength]LetterStatus

// Solved 是否全部命中
func (r Result) Solved() bool {
	for _, s := range r {
		if s != Correct {
			return false
		}
	}
	return true
}

// Strings 转换为协议使用的字符串切片
func (r Result) Strings() []string {
	out := make([]string, WordLength)
	for i, s := range r {
		out[i] = string(s)
	}
	return out
}

// ParseResult 从协议字符串切片还原结果
func ParseResult(ss []string) (Result, error) {
	var r Result
	if len(ss) != WordLength {
		return r, fmt.Errorf("result length %d, want %d", len(ss), WordLength)
	}
	for i, s := range ss {
		switch st := LetterStatus(s); st {
		case Correct, Present, Absent:
			r[i] = st
		default:
			return r, fmt.Errorf("unknown letter status %q", s)
		}
	}
	return r, nil
}

// Normalize 统一转为小写并去除空白
func Normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// IsWord 是否为 5 个 a-z 字母（需先 Normalize）
func IsWord(word string) bool {
	if len(word) != WordLength {
		return false
	}
	for i := 0; i < len(word); i++ {
		if word[i] < 'a' || word[i] > 'z' {
			return false
		}
	}
	return true
}

// Score 按标准两遍算法计算 guess 相对 target 的结果
//
// 第一遍标记位置正确的字母，并统计 target 中剩余字母的数量；
// 第二遍从左到右扫描其余字母，剩余数量大于 0 时标记为 present 并扣减。
// 因此 Score("SPEED", "ERASE") 只会给一个 E 标记 present。
func Score(guess, target string) Result {
	g, t := Normalize(guess), Normalize(target)

	var res Result
	for i := range res {
		res[i] = Absent
	}
	if !IsWord(g) || !IsWord(t) {
		return res
	}

	var counts [26]int
	for i := 0; i < WordLength; i++ {
		if g[i] == t[i] {
			res[i] = Correct
		} else {
			counts[t[i]-'a']++
		}
	}

	for i := 0; i < WordLength; i++ {
		if res[i] == Correct {
			continue
		}
		c := g[i] - 'a'
		if counts[c] > 0 {
			res[i] = Present
			counts[c]--
		}
	}

	return res
}
