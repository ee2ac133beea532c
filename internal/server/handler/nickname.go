package handler

import (
	"math/rand/v2"
	"strings"
	"unicode/utf8"
)

// 昵称最大字符数
const maxNameLength = 16

// 昵称词库
var (
	adjectives = []string{
		"勇敢的", "聪明的", "快乐的", "神秘的", "淡定的",
		"机智的", "认真的", "好奇的", "沉稳的", "活泼的",
	}

	nouns = []string{
		"词典", "字母", "书虫", "猜谜人", "拼写家",
		"墨水", "铅笔", "书签", "卡片", "方块",
	}
)

// GenerateNickname 生成随机昵称
func GenerateNickname() string {
	return adjectives[rand.IntN(len(adjectives))] + nouns[rand.IntN(len(nouns))]
}

// NormalizeName 去掉首尾空白并截断过长的昵称，空昵称随机生成
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return GenerateNickname()
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}
	return name
}
