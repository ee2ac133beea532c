package rule

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/palemoky/wordle-party/internal/apperrors"
)

// Dictionary 允许猜测的词表
type Dictionary interface {
	IsValidGuess(word string) bool
}

// ValidateGuess 校验长度、字母和词表，返回规范化后的单词
func ValidateGuess(word string, dict Dictionary) (string, error) {
	w := Normalize(word)
	if !IsWord(w) {
		return "", apperrors.ErrInvalidWord
	}
	if dict != nil && !dict.IsValidGuess(w) {
		return "", apperrors.ErrNotInWordList.WithMessage(fmt.Sprintf("%s 不在词库中", strings.ToUpper(w)))
	}
	return w, nil
}

// CheckHardMode 困难模式：新猜测必须沿用之前所有提示
//
// 位置正确的字母必须留在原位置；correct/present 字母必须全部出现，
// 且出现次数不少于某次猜测中被提示的次数。两种违规返回不同的错误。
func CheckHardMode(guess string, guesses []string, results []Result) error {
	g := Normalize(guess)
	if !IsWord(g) {
		return apperrors.ErrInvalidWord
	}

	var have [26]int
	for i := 0; i < WordLength; i++ {
		have[g[i]-'a']++
	}

	for i := 0; i < len(guesses) && i < len(results); i++ {
		prev, res := Normalize(guesses[i]), results[i]
		if !IsWord(prev) {
			continue
		}

		for p := 0; p < WordLength; p++ {
			if res[p] == Correct && g[p] != prev[p] {
				return apperrors.ErrHardModePosition.WithMessage(
					fmt.Sprintf("困难模式：第 %d 个字母必须是 %c", p+1, unicode.ToUpper(rune(prev[p]))))
			}
		}

		var need [26]int
		for p := 0; p < WordLength; p++ {
			if res[p] != Absent {
				need[prev[p]-'a']++
			}
		}
		for c := 0; c < 26; c++ {
			if have[c] < need[c] {
				return apperrors.ErrHardModeMissing.WithMessage(
					fmt.Sprintf("困难模式：必须包含字母 %c", 'A'+rune(c)))
			}
		}
	}

	return nil
}
