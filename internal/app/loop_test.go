package app

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoop(t *testing.T) {
	t.Run("runs work in order", func(t *testing.T) {
		l := NewLoop(context.Background())
		defer l.Close()

		out := []int{}
		for i := 0; i < 10; i++ {
			i := i
			require.True(t, l.Post(func() { out = append(out, i) }))
		}
		require.NoError(t, l.Do(func() error { return nil }))
		require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, out)
	})

	t.Run("do returns the callback error", func(t *testing.T) {
		l := NewLoop(context.Background())
		defer l.Close()

		err := l.Do(func() error { return ErrLoopClosed })
		require.ErrorIs(t, err, ErrLoopClosed)
	})

	t.Run("serializes concurrent callers", func(t *testing.T) {
		l := NewLoop(context.Background())
		defer l.Close()

		counter := 0
		wg := sync.WaitGroup{}
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = l.Do(func() error {
					counter++
					return nil
				})
			}()
		}
		wg.Wait()
		require.NoError(t, l.Do(func() error {
			require.Equal(t, 50, counter)
			return nil
		}))
	})

	t.Run("survives a panic", func(t *testing.T) {
		l := NewLoop(context.Background())
		defer l.Close()

		l.Post(func() { panic("boom") })
		require.NoError(t, l.Do(func() error { return nil }))
	})

	t.Run("post after close is a no-op", func(t *testing.T) {
		l := NewLoop(context.Background())
		l.Close()
		l.Close()

		ran := false
		require.False(t, l.Post(func() { ran = true }))
		require.ErrorIs(t, l.Do(func() error { return nil }), ErrLoopClosed)
		require.False(t, ran)
	})
}
