package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLoggerConfig_ToZapLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"nonsense", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, LoggerConfig{Level: tt.level}.ToZapLevel())
		})
	}
}

func TestNewLogger_WithRotatingFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	cfg.File = filepath.Join(t.TempDir(), "logs", "app.log")

	l := NewLogger(cfg)
	require.NotNil(t, l)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	named := l.Named("ListingUsecase").With(zap.String("listing_id", "abc"))
	assert.NotNil(t, named.Logger)
	named.Info("hello")
	// stdout may be a pipe or terminal that rejects fsync; only the file matters here.
	_ = l.Sync()

	data, err := os.ReadFile(cfg.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"listing_id":"abc"`)
	assert.Contains(t, string(data), `"logger":"ListingUsecase"`)
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	assert.False(t, l.Core().Enabled(zapcore.ErrorLevel))
	l.Named("x").Error("ignored")
}
