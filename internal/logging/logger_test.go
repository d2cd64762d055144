package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ABFCode/Librium-sub000/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel(" WARN "))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}

func TestInit_WritesRotatingFile(t *testing.T) {
	original := Logger
	defer func() { Logger = original }()

	logFile := filepath.Join(t.TempDir(), "librium.log")
	Init(config.Logging{Level: "info", File: logFile, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})

	Info("job completed", zap.Uint("job_id", 7))
	Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"job completed"`)
	assert.Contains(t, string(data), `"job_id":7`)
}

func TestInit_RespectsLevel(t *testing.T) {
	original := Logger
	defer func() { Logger = original }()

	logFile := filepath.Join(t.TempDir(), "librium.log")
	Init(config.Logging{Level: "error", File: logFile, MaxSizeMB: 1})

	Info("should be filtered")
	Sync()

	data, err := os.ReadFile(logFile)
	if err == nil {
		assert.NotContains(t, string(data), "should be filtered")
	}
}
