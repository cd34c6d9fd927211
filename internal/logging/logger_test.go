package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docker-express-env/internal/config"
)

func TestNewLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Config{
		ServiceName: "api",
		Environment: "production",
		Version:     "1.2.3",
		LogLevel:    "info",
	})

	logger.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "api", entry["service"])
	assert.Equal(t, "production", entry["environment"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "hello", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNewLoggerLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := newLogger(&bytes.Buffer{}, &config.Config{LogLevel: tt.level})
			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}
