package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFromContext(t *testing.T) {
	t.Run("falls back to the global logger", func(t *testing.T) {
		lg := FromContext(context.Background())
		require.NotNil(t, lg)
	})

	t.Run("returns the stored logger", func(t *testing.T) {
		lg := zap.NewNop().Sugar()
		ctx := WithContext(context.Background(), lg)
		require.Same(t, lg, FromContext(ctx))
	})
}

func TestBuild(t *testing.T) {
	t.Run("writes to rotated file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "quantdash.log")
		lg, err := Build(Options{Level: "info", File: file})
		require.NoError(t, err)

		lg.Infow("hello", "component", "test")
		_ = lg.Sync()

		contents, err := os.ReadFile(file)
		require.NoError(t, err)
		require.Contains(t, string(contents), `"hello"`)
	})

	t.Run("environment picks the default level", func(t *testing.T) {
		t.Setenv("QUANTDASH_ENV", "dev")

		lg, err := Build(Options{Environment: "prod"})
		require.NoError(t, err)
		require.False(t, lg.Desugar().Core().Enabled(zap.DebugLevel))

		lg, err = Build(Options{Environment: "dev"})
		require.NoError(t, err)
		require.True(t, lg.Desugar().Core().Enabled(zap.DebugLevel))
	})

	t.Run("bad level", func(t *testing.T) {
		_, err := Build(Options{Level: "loud"})
		require.Error(t, err)
	})
}
