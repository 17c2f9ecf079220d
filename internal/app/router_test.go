package app

import (
	"context"
	"quantdash/internal/domain"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRouter(t *testing.T) {
	type change struct {
		from, to domain.Tab
	}

	t.Run("navigates on the next loop turn", func(t *testing.T) {
		l := NewLoop(context.Background())
		defer l.Close()

		changes := []change{}
		var r *Router
		require.NoError(t, l.Do(func() error {
			r = NewRouter(l, domain.Tab_Overview, func(from, to domain.Tab) {
				changes = append(changes, change{from, to})
			})
			r.Navigate(domain.Tab_Portfolio)
			require.Equal(t, domain.Tab_Overview, r.Active())
			return nil
		}))

		require.NoError(t, l.Do(func() error {
			require.Equal(t, domain.Tab_Portfolio, r.Active())
			require.Equal(t, []change{{domain.Tab_Overview, domain.Tab_Portfolio}}, changes)
			return nil
		}))
	})

	t.Run("last request wins", func(t *testing.T) {
		l := NewLoop(context.Background())
		defer l.Close()

		changes := []change{}
		var r *Router
		require.NoError(t, l.Do(func() error {
			r = NewRouter(l, domain.Tab_Overview, func(from, to domain.Tab) {
				changes = append(changes, change{from, to})
			})
			r.Navigate(domain.Tab_Portfolio)
			r.Navigate(domain.Tab_SingleAsset)
			return nil
		}))

		require.NoError(t, l.Do(func() error {
			require.Equal(t, domain.Tab_SingleAsset, r.Active())
			require.Equal(t, []change{{domain.Tab_Overview, domain.Tab_SingleAsset}}, changes)
			return nil
		}))
	})

	t.Run("navigating to the active tab does nothing", func(t *testing.T) {
		l := NewLoop(context.Background())
		defer l.Close()

		called := false
		require.NoError(t, l.Do(func() error {
			r := NewRouter(l, domain.Tab_Portfolio, func(from, to domain.Tab) { called = true })
			r.Navigate(domain.Tab_Portfolio)
			return nil
		}))
		require.NoError(t, l.Do(func() error { return nil }))
		require.False(t, called)
	})
}
