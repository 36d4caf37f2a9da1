package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bitfsorg/libsynapse-go/errors"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zap.DebugLevel},
		{"INFO", zap.InfoLevel},
		{"", zap.InfoLevel},
		{"Warn", zap.WarnLevel},
		{"warning", zap.WarnLevel},
		{" error ", zap.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("verbose")
	assert.True(t, errors.Is(err, ErrInvalidLevel))
}

func TestNew_Console(t *testing.T) {
	log, err := New("warn", "")
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.False(t, log.Desugar().Core().Enabled(zap.InfoLevel))
	assert.True(t, log.Desugar().Core().Enabled(zap.WarnLevel))
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "synapse.log")
	log, err := New("debug", path)
	require.NoError(t, err)

	log.Infow("pool created", "pool", 1, "name", "Bob")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	require.NotEmpty(t, line)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "pool created", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, float64(1), entry["pool"])
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("loud", "")
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Infow("discarded")
	assert.False(t, log.Desugar().Core().Enabled(zap.ErrorLevel))
}
