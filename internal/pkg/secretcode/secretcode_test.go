//go:build unit

package secretcode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkgate/internal/pkg/errs"
)

type fakeChecker struct {
	inUse     map[string]bool
	alwaysHit bool
	err       error
	calls     int
}

func (f *fakeChecker) CodeInUse(_ context.Context, code string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	if f.alwaysHit {
		return true, nil
	}
	return f.inUse[code], nil
}

func TestGenerate(t *testing.T) {
	t.Run("produces fixed-length code", func(t *testing.T) {
		g := NewGenerator(&fakeChecker{})
		code, err := g.Generate(context.Background())
		require.NoError(t, err)
		assert.Len(t, code, CodeLength)
		for _, c := range code {
			assert.Contains(t, numericCharset, string(c))
		}
	})

	t.Run("exhaustion after both charsets", func(t *testing.T) {
		checker := &fakeChecker{alwaysHit: true}
		g := NewGenerator(checker)
		_, err := g.Generate(context.Background())
		assert.ErrorIs(t, err, errs.ErrCodeSpaceExhausted)
		assert.Equal(t, 2*attemptsPerCharset, checker.calls)
	})

	t.Run("storage error propagates", func(t *testing.T) {
		g := NewGenerator(&fakeChecker{err: assert.AnError})
		_, err := g.Generate(context.Background())
		assert.Error(t, err)
		assert.NotErrorIs(t, err, errs.ErrCodeSpaceExhausted)
	})

	t.Run("distinct codes across calls", func(t *testing.T) {
		g := NewGenerator(&fakeChecker{})
		seen := make(map[string]bool)
		for i := 0; i < 20; i++ {
			code, err := g.Generate(context.Background())
			require.NoError(t, err)
			seen[code] = true
		}
		// Collisions in 20 draws from a million-code space would be suspicious.
		assert.Greater(t, len(seen), 18)
	})
}
