// Package words 提供只读词库：猜测词表、破坏模式可选词表和每日单词。
//
// 词表文件每行一个单词，加载时统一小写并丢弃非 5 字母的行。
// 未配置文件时使用内置词库。
package words

import (
	"bufio"
	"crypto/hmac"
	"crypto/sha256"
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"time"
)

//go:embed answers.txt
var embeddedAnswers string

//go:embed challenging.txt
var embeddedChallenging string

//go:embed allowed.txt
var embeddedAllowed string

// Options 词库加载选项，文件为空时使用内置词表
type Options struct {
	AnswersFile     string
	AllowedFile     string
	ChallengingFile string
	DailySalt       string
}

// Corpus 词库，构造后只读，可并发访问
type Corpus struct {
	answers     []string // 基础词表（经典模式答案）
	challenging []string // 高难词表（仅破坏模式可选）
	pool        []string // answers ∪ challenging

	eligibleSet map[string]struct{}
	allowedSet  map[string]struct{} // answers ∪ challenging ∪ allowed
	salt        string
}

// New 从给定词表构造词库
func New(answers, challenging, allowed []string, salt string) *Corpus {
	c := &Corpus{
		answers:     normalizeList(answers),
		challenging: normalizeList(challenging),
		eligibleSet: make(map[string]struct{}),
		allowedSet:  make(map[string]struct{}),
		salt:        salt,
	}

	for _, list := range [][]string{c.answers, c.challenging} {
		for _, w := range list {
			if _, dup := c.eligibleSet[w]; !dup {
				c.eligibleSet[w] = struct{}{}
				c.pool = append(c.pool, w)
			}
			c.allowedSet[w] = struct{}{}
		}
	}
	for _, w := range normalizeList(allowed) {
		c.allowedSet[w] = struct{}{}
	}
	return c
}

// Default 返回内置词库
func Default(salt string) *Corpus {
	return New(
		normalizeLines(embeddedAnswers),
		normalizeLines(embeddedChallenging),
		normalizeLines(embeddedAllowed),
		salt,
	)
}

// Load 按选项加载词库，未配置的文件回退到内置词表
func Load(opts Options) (*Corpus, error) {
	answers, err := readOrEmbedded(opts.AnswersFile, embeddedAnswers)
	if err != nil {
		return nil, fmt.Errorf("读取基础词表失败: %w", err)
	}
	challenging, err := readOrEmbedded(opts.ChallengingFile, embeddedChallenging)
	if err != nil {
		return nil, fmt.Errorf("读取高难词表失败: %w", err)
	}
	allowed, err := readOrEmbedded(opts.AllowedFile, embeddedAllowed)
	if err != nil {
		return nil, fmt.Errorf("读取猜测词表失败: %w", err)
	}
	if len(answers) == 0 {
		return nil, errors.New("words: answers list is empty")
	}
	return New(answers, challenging, allowed, opts.DailySalt), nil
}

// IsValidGuess 是否可以作为猜测提交
func (c *Corpus) IsValidGuess(word string) bool {
	_, ok := c.allowedSet[word]
	return ok
}

// IsSabotageEligible 是否可以被选作破坏模式的目标词
func (c *Corpus) IsSabotageEligible(word string) bool {
	_, ok := c.eligibleSet[word]
	return ok
}

// DailyWord 返回指定日期（UTC）的每日单词
func (c *Corpus) DailyWord(t time.Time) string {
	if len(c.answers) == 0 {
		return ""
	}
	return c.answers[WordIndex(t, c.salt, len(c.answers))]
}

// Answers 基础词表，调用方不得修改
func (c *Corpus) Answers() []string { return c.answers }

// SabotagePool 破坏模式可选词（基础 + 高难），调用方不得修改
func (c *Corpus) SabotagePool() []string { return c.pool }

// Stats 返回 (基础词数, 可选词数, 允许猜测词数)
func (c *Corpus) Stats() (answers, eligible, allowed int) {
	return len(c.answers), len(c.pool), len(c.allowedSet)
}

// DateKey 返回 UTC 日期 YYYY-MM-DD
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// WordIndex 用 HMAC(salt, YYYY-MM-DD) 计算当日单词下标
func WordIndex(date time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	return int(binary.BigEndian.Uint64(sum[:8]) % uint64(n))
}

// Seed 由若干字符串派生确定性种子（FNV-1a 64）
func Seed(parts ...string) uint64 {
	h := fnv.New64a()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{'|'})
		}
		h.Write([]byte(p))
	}
	return h.Sum64()
}

// Pick 按种子从词表中确定性地选一个词
func Pick(pool []string, seed uint64) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[seed%uint64(len(pool))]
}

func readOrEmbedded(path, embedded string) ([]string, error) {
	if path == "" {
		return normalizeLines(embedded), nil
	}
	return readWordFile(path)
}

func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if w := normalize(sc.Text()); w != "" {
			out = append(out, w)
		}
	}
	return out, sc.Err()
}

func normalizeLines(s string) []string {
	return normalizeList(strings.Split(s, "\n"))
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, line := range in {
		if w := normalize(line); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func normalize(line string) string {
	w := strings.ToLower(strings.TrimSpace(line))
	if len(w) != 5 {
		return ""
	}
	for i := 0; i < len(w); i++ {
		if w[i] < 'a' || w[i] > 'z' {
			return ""
		}
	}
	return w
}
