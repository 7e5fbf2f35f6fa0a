package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestInitToFile(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CACHE_HOME only drives os.UserCacheDir on linux")
	}
	cache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cache)
	t.Cleanup(func() { Close(); Logger = nil })

	require.NoError(t, Init(Options{Level: "debug", JSON: true, ToFile: true, Quiet: true}))
	require.NotNil(t, Logger)
	Debug("hello", "k", "v")

	path, err := GetLogFilePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cache, "onix", "logs", "onix.log"), path)

	require.NoError(t, Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"k":"v"`)
}

func TestHelpersWithoutInit(t *testing.T) {
	Logger = nil
	assert.NotPanics(t, func() {
		Debug("x")
		Info("x")
		Warn("x")
		Error("x")
	})
}
