package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/wordle-party/internal/apperrors"
)

func TestCodeGenerator_Alphabet(t *testing.T) {
	t.Parallel()

	g := NewCodeGenerator(NewSeededRand(42), 0, 0)
	for range 200 {
		code, err := g.Generate(nil)
		require.NoError(t, err)
		require.Len(t, code, defaultCodeLength)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(CodeAlphabet, c), "unexpected %q in %s", c, code)
		}
	}
	assert.NotContains(t, CodeAlphabet, "0")
	assert.NotContains(t, CodeAlphabet, "O")
	assert.NotContains(t, CodeAlphabet, "1")
	assert.NotContains(t, CodeAlphabet, "I")
}

func TestCodeGenerator_SameSeedSameCodes(t *testing.T) {
	t.Parallel()

	a := NewCodeGenerator(NewSeededRand(7), 6, 1)
	b := NewCodeGenerator(NewSeededRand(7), 6, 1)
	for range 20 {
		ca, err := a.Generate(nil)
		require.NoError(t, err)
		cb, err := b.Generate(nil)
		require.NoError(t, err)
		assert.Equal(t, ca, cb)
	}
}

func TestCodeGenerator_RetriesCollisions(t *testing.T) {
	t.Parallel()

	g := NewCodeGenerator(NewSeededRand(1), 4, 16)
	calls := 0
	code, err := g.Generate(func(string) bool {
		calls++
		return calls < 3
	})
	require.NoError(t, err)
	assert.Len(t, code, 4)
	assert.Equal(t, 3, calls)
}

func TestCodeGenerator_Exhausted(t *testing.T) {
	t.Parallel()

	g := NewCodeGenerator(NewSeededRand(1), 1, 5)
	calls := 0
	_, err := g.Generate(func(string) bool {
		calls++
		return true
	})
	require.ErrorIs(t, err, apperrors.ErrCodeSpaceExhausted)
	assert.Equal(t, apperrors.KindCapacityExceeded, apperrors.KindOf(err))
	assert.Equal(t, 5, calls)
}
