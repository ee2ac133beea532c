package words

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Lists(t *testing.T) {
	t.Parallel()

	c := Default("salt")
	answers, eligible, allowed := c.Stats()
	assert.Positive(t, answers)
	assert.Greater(t, eligible, answers)
	assert.Greater(t, allowed, eligible)

	// 基础词：可猜、可选
	assert.True(t, c.IsValidGuess("crane"))
	assert.True(t, c.IsSabotageEligible("crane"))

	// 高难词：可猜、可选，但不是经典模式答案
	assert.True(t, c.IsValidGuess("fjord"))
	assert.True(t, c.IsSabotageEligible("fjord"))
	assert.NotContains(t, c.Answers(), "fjord")

	// 仅允许猜测的词不能被选作目标
	assert.True(t, c.IsValidGuess("tilde"))
	assert.False(t, c.IsSabotageEligible("tilde"))

	assert.False(t, c.IsValidGuess("zzzzz"))
}

func TestNew_NormalizesAndDedupes(t *testing.T) {
	t.Parallel()

	c := New([]string{" CRANE ", "toolong", "ab1de"}, []string{"Fjord", "crane"}, []string{"tilde"}, "")
	assert.Equal(t, []string{"crane"}, c.Answers())
	assert.Equal(t, []string{"crane", "fjord"}, c.SabotagePool())
	assert.True(t, c.IsValidGuess("tilde"))
}

func TestDailyWord_Deterministic(t *testing.T) {
	t.Parallel()

	c := Default("pepper")
	day := time.Date(2026, 3, 14, 1, 0, 0, 0, time.UTC)
	sameDay := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)

	w := c.DailyWord(day)
	assert.NotEmpty(t, w)
	assert.Equal(t, w, c.DailyWord(sameDay))
	assert.Contains(t, c.Answers(), w)

	// 同一 UTC 日期下标一致
	assert.Equal(t, WordIndex(day, "pepper", len(c.Answers())), WordIndex(sameDay, "pepper", len(c.Answers())))
	assert.Equal(t, 0, WordIndex(day, "pepper", 0))
}

func TestLoad_FromFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	answers := filepath.Join(dir, "answers.txt")
	require.NoError(t, os.WriteFile(answers, []byte("Crane\nslate\n\nbad\n"), 0o600))

	c, err := Load(Options{AnswersFile: answers, DailySalt: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"crane", "slate"}, c.Answers())
	// 未配置的高难词表回退到内置
	assert.True(t, c.IsSabotageEligible("fjord"))
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	_, err := Load(Options{AnswersFile: "/nonexistent/answers.txt"})
	assert.Error(t, err)

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n"), 0o600))
	_, err = Load(Options{AnswersFile: empty})
	assert.Error(t, err)
}

func TestSeedAndPick(t *testing.T) {
	t.Parallel()

	pool := []string{"crane", "slate", "trace"}
	s1 := Seed("ABCD", "player-1", "1")
	s2 := Seed("ABCD", "player-1", "1")
	s3 := Seed("ABCD", "player-2", "1")

	assert.Equal(t, s1, s2)
	assert.NotEqual(t, s1, s3)
	// 分隔符避免拼接歧义
	assert.NotEqual(t, Seed("ab", "c"), Seed("a", "bc"))

	assert.Equal(t, Pick(pool, s1), Pick(pool, s2))
	assert.Contains(t, pool, Pick(pool, s3))
	assert.Empty(t, Pick(nil, s1))
}
