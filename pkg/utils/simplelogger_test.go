package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerKeyvals(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer Close()

	Info("template activated", "id", "default-simple", "count", 2)
	Warn("store corrupted")
	Debug("prompt built", "length", 42)

	require.Equal(t, 3, logs.Len())

	entry := logs.FilterMessage("template activated").All()[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	assert.Equal(t, "default-simple", entry.ContextMap()["id"])
	assert.EqualValues(t, 2, entry.ContextMap()["count"])
}

func TestLoggerNoopBeforeInit(t *testing.T) {
	Close()
	assert.NotPanics(t, func() {
		Info("nothing", "k", "v")
		Error("nothing")
	})
}

func TestInitLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	require.NoError(t, InitLogger(LogConfig{Level: "debug", File: path}))
	Debug("hello from test", "answer", 42)
	Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Logger initialized")
	assert.Contains(t, string(data), "hello from test")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}
