package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level   string
		enabled zapcore.Level
		wantErr bool
	}{
		{"", zapcore.WarnLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := NewLogger(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.enabled))
			assert.False(t, logger.Core().Enabled(tt.enabled-1))
		})
	}
}

func TestInitReplacesGlobal(t *testing.T) {
	restore, err := Init("debug")
	require.NoError(t, err)
	defer restore()
	assert.True(t, zap.L().Core().Enabled(zapcore.DebugLevel))
}

func TestRedactDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{"MySQL", "root:s3cret@tcp(localhost:3306)/foothold", "root:***@tcp(localhost:3306)/foothold"},
		{"Postgres", "host=db user=app password=hunter2 dbname=foothold", "host=db user=app password=*** dbname=foothold"},
		{"URL", "postgres://app:hunter2@db:5432/foothold", "postgres://app:***@db:5432/foothold"},
		{"SQLitePath", "/tmp/foothold.db", "/tmp/foothold.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactDSN(tt.dsn))
		})
	}
}
