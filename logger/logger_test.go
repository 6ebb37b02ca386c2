package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestZapConfig_SelectsEncoderByEnvironment(t *testing.T) {
	tests := []struct {
		environment string
		encoding    string
		output      []string
	}{
		{"production", "json", []string{"stdout"}},
		{"development", "console", []string{"stderr"}},
		{"", "console", []string{"stderr"}},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			cfg := zapConfig(tt.environment, zapcore.WarnLevel)
			assert.Equal(t, tt.encoding, cfg.Encoding)
			assert.Equal(t, tt.output, cfg.OutputPaths)
			assert.Equal(t, zapcore.WarnLevel, cfg.Level.Level())
		})
	}
}

func TestZapConfig_TestMode(t *testing.T) {
	IsTest = true
	defer func() { IsTest = false }()

	cfg := zapConfig("production", zapcore.InfoLevel)
	assert.Equal(t, "console", cfg.Encoding)
	assert.Equal(t, []string{"stdout"}, cfg.OutputPaths)
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "pr...a@example.com", MaskEmail("priya.sharma@example.com"))
	assert.Equal(t, "****@example.com", MaskEmail("asha@example.com"))
	assert.Equal(t, "", MaskEmail(""))
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "abc...jkl", MaskToken("abcdefghijkl"))
	assert.Equal(t, "*****", MaskToken("short"))
}
