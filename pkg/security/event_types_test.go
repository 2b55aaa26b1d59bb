package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		severity string
		want     zapcore.Level
	}{
		{SeverityLow, zapcore.InfoLevel},
		{SeverityMedium, zapcore.WarnLevel},
		{SeverityHigh, zapcore.ErrorLevel},
		{SeverityCritical, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := LogLevel(tt.severity)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.severity)
	}

	_, err := LogLevel("extreme")
	assert.Error(t, err)
}

func TestIsValidEventType(t *testing.T) {
	assert.True(t, IsValidEventType(EventTypeCompanyDeleted))
	assert.False(t, IsValidEventType("password_reset_requested"))
}
