package registry

import (
	"math/rand/v2"
	"time"

	"github.com/palemoky/wordle-party/internal/apperrors"
)

const (
	// CodeAlphabet 去掉了容易混淆的 0 O 1 I
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	defaultCodeLength   = 4
	defaultCodeAttempts = 16
)

// CodeGenerator 房间号生成器，非并发安全，由 Registry 加锁调用
type CodeGenerator struct {
	rng      *rand.Rand
	length   int
	attempts int
}

// NewSeededRand 创建 PCG 随机源，seed 为 0 时使用当前时间
func NewSeededRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewCodeGenerator 创建房间号生成器
func NewCodeGenerator(rng *rand.Rand, length, attempts int) *CodeGenerator {
	if rng == nil {
		rng = NewSeededRand(0)
	}
	if length <= 0 {
		length = defaultCodeLength
	}
	if attempts <= 0 {
		attempts = defaultCodeAttempts
	}
	return &CodeGenerator{rng: rng, length: length, attempts: attempts}
}

// Generate 生成未被占用的房间号，重试次数用尽时返回 ErrCodeSpaceExhausted
func (g *CodeGenerator) Generate(taken func(code string) bool) (string, error) {
	buf := make([]byte, g.length)
	for range g.attempts {
		for i := range buf {
			buf[i] = CodeAlphabet[g.rng.IntN(len(CodeAlphabet))]
		}
		code := string(buf)
		if taken == nil || !taken(code) {
			return code, nil
		}
	}
	return "", apperrors.ErrCodeSpaceExhausted
}
