package tokens

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/promptbatch/internal/gateway"
)

type fakeNative struct {
	n     int
	err   error
	calls int
}

func (f *fakeNative) CountTokens(_ context.Context, _, _, _ string) (int, error) {
	f.calls++
	return f.n, f.err
}

func TestHeuristic(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"Hi", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"héllo wörld", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Heuristic(tt.text), tt.text)
	}
}

func TestCounter_Count(t *testing.T) {
	ctx := context.Background()

	t.Run("nil native", func(t *testing.T) {
		n, err := NewCounter(nil).Count(ctx, "openai/gpt-4o", "Hi")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("native used", func(t *testing.T) {
		f := &fakeNative{n: 42}
		n, err := NewCounter(f).Count(ctx, "anthropic/claude", "Hi")
		require.NoError(t, err)
		assert.Equal(t, 42, n)
		assert.Equal(t, 1, f.calls)
	})

	t.Run("unprefixed model skips native", func(t *testing.T) {
		f := &fakeNative{n: 42}
		n, err := NewCounter(f).Count(ctx, "gpt-4o", "Hi")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Zero(t, f.calls)
	})

	t.Run("unsupported falls back", func(t *testing.T) {
		f := &fakeNative{err: gateway.ErrTokenCountUnsupported}
		n, err := NewCounter(f).Count(ctx, "openai/gpt-4o", "abcdefgh")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("transport error falls back", func(t *testing.T) {
		f := &fakeNative{err: errors.New("connection reset")}
		n, err := NewCounter(f).Count(ctx, "anthropic/claude", "abc")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("cancellation propagates", func(t *testing.T) {
		f := &fakeNative{err: context.Canceled}
		_, err := NewCounter(f).Count(ctx, "anthropic/claude", "abc")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
