package utilities

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, levelFromString("debug"))
	assert.Equal(t, zapcore.WarnLevel, levelFromString("warning"))
	assert.Equal(t, zapcore.InfoLevel, levelFromString("nonsense"))
}

func TestInitWithRotatingFile(t *testing.T) {
	lg, err := Init(Config{Level: "debug", File: filepath.Join(t.TempDir(), "staff.log")})
	require.NoError(t, err)
	lg.Sugar().Infow("hello", "k", "v")
	assert.True(t, lg.Core().Enabled(zapcore.DebugLevel))
}

func TestIDGeneratorUnique(t *testing.T) {
	g := NewIDGenerator(7)
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := g.Generate()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}

	var nilGen *IDGenerator
	assert.Len(t, nilGen.Generate(), 27)
	assert.NotEqual(t, NewSnowflakeID(), NewSnowflakeID())
}
