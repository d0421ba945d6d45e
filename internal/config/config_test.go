package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SAMPLE_RATE_HZ", "")
	t.Setenv("REJECT_MISSING_CHANNELS", "")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg := Load()

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, int64(32<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, 1.0, cfg.Pipeline.SampleRate)
	assert.Equal(t, 100000, cfg.Pipeline.MaxBatchRows)
	assert.False(t, cfg.Pipeline.RejectMissingChannels)
	assert.Nil(t, cfg.Server.TrustedProxies)
	assert.Equal(t, "file", cfg.Artifacts.Source)
	assert.Equal(t, "https://api.thingspeak.com", cfg.ThingSpeak.BaseURL)
	assert.Equal(t, time.Minute, cfg.Redis.Window)
	assert.Equal(t, "prediction.completed", cfg.RabbitMQ.RoutingKey)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SAMPLE_RATE_HZ", "1000")
	t.Setenv("MAX_BATCH_ROWS", "50")
	t.Setenv("REJECT_MISSING_CHANNELS", "true")
	t.Setenv("ARTIFACT_SOURCE", "S3")
	t.Setenv("THINGSPEAK_TIMEOUT", "3s")
	t.Setenv("TRUSTED_PROXIES", " 10.0.0.0/8, ,192.168.1.1")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 1000.0, cfg.Pipeline.SampleRate)
	assert.Equal(t, 50, cfg.Pipeline.MaxBatchRows)
	assert.True(t, cfg.Pipeline.RejectMissingChannels)
	assert.Equal(t, "s3", cfg.Artifacts.Source)
	assert.Equal(t, 3*time.Second, cfg.ThingSpeak.Timeout)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.Server.TrustedProxies)
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("MAX_BATCH_ROWS", "many")
	t.Setenv("SAMPLE_RATE_HZ", "fast")
	t.Setenv("S3_SECURE", "maybe")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")

	cfg := Load()

	assert.Equal(t, 100000, cfg.Pipeline.MaxBatchRows)
	assert.Equal(t, 1.0, cfg.Pipeline.SampleRate)
	assert.False(t, cfg.Archive.Secure)
	assert.Equal(t, time.Minute, cfg.Redis.Window)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"noise":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}
