package profile

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"WHENPARSE_MODE", "WHENPARSE_LOG_LEVEL", "WHENPARSE_DIRECTION", "WHENPARSE_INFER_DATETIMES",
	"WHENPARSE_NOW", "WHENPARSE_TIMEZONE", "WHENPARSE_RETURN_MATCHED_TEXT", "WHENPARSE_COLLAPSE_SINGLETON",
	"WHENPARSE_FUZZY_NAMES", "WHENPARSE_MARKDOWN", "WHENPARSE_RATE_LIMIT", "WHENPARSE_RATE_BURST",
	"WHENPARSE_BATCH_CONCURRENCY", "WHENPARSE_MAX_TEXT_BYTES",
}

func clearEnv(t *testing.T) {
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestProfileDefaults(t *testing.T) {
	clearEnv(t)
	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "next", p.Direction)
	assert.True(t, p.InferDatetimes)
	assert.False(t, p.ReturnMatchedText)
	assert.False(t, p.FuzzyNames)
	assert.Equal(t, 20.0, p.RateLimit)
	assert.Equal(t, 40, p.RateBurst)
	assert.Equal(t, 8, p.BatchConcurrency)
	assert.Equal(t, 64<<10, p.MaxTextBytes)
	assert.Equal(t, "info", p.LogLevel)
}

func TestProfileFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		field    func(*Profile) any
		expected any
	}{
		{"direction", "WHENPARSE_DIRECTION", "previous", func(p *Profile) any { return p.Direction }, "previous"},
		{"infer off", "WHENPARSE_INFER_DATETIMES", "false", func(p *Profile) any { return p.InferDatetimes }, false},
		{"malformed bool keeps default", "WHENPARSE_INFER_DATETIMES", "maybe", func(p *Profile) any { return p.InferDatetimes }, true},
		{"now", "WHENPARSE_NOW", "2018-08-04T14:00:00Z", func(p *Profile) any { return p.Now }, "2018-08-04T14:00:00Z"},
		{"timezone", "WHENPARSE_TIMEZONE", "PST", func(p *Profile) any { return p.Timezone }, "PST"},
		{"fuzzy", "WHENPARSE_FUZZY_NAMES", "true", func(p *Profile) any { return p.FuzzyNames }, true},
		{"markdown", "WHENPARSE_MARKDOWN", "1", func(p *Profile) any { return p.Markdown }, true},
		{"rate limit", "WHENPARSE_RATE_LIMIT", "2.5", func(p *Profile) any { return p.RateLimit }, 2.5},
		{"malformed int keeps default", "WHENPARSE_BATCH_CONCURRENCY", "lots", func(p *Profile) any { return p.BatchConcurrency }, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.envVar, tt.envValue)

			p := &Profile{}
			p.FromEnv()
			assert.Equal(t, tt.expected, tt.field(p))
		})
	}
}

func TestProfileValidate(t *testing.T) {
	t.Run("normalizes", func(t *testing.T) {
		p := &Profile{Mode: "staging", Direction: " Nearest "}
		require.NoError(t, p.Validate())
		assert.Equal(t, "demo", p.Mode)
		assert.Equal(t, "nearest", p.Direction)
		assert.Equal(t, 20.0, p.RateLimit)
		assert.Equal(t, 40, p.RateBurst)
		assert.True(t, p.IsDev())
	})

	t.Run("rejects bad direction", func(t *testing.T) {
		p := &Profile{Direction: "sideways"}
		assert.Error(t, p.Validate())
	})

	t.Run("rejects bad port", func(t *testing.T) {
		p := &Profile{Port: 70000}
		assert.Error(t, p.Validate())
	})

	t.Run("rejects bad log level", func(t *testing.T) {
		p := &Profile{LogLevel: "chatty"}
		assert.Error(t, p.Validate())
	})
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, (&Profile{LogLevel: "debug"}).SlogLevel())
	assert.Equal(t, slog.LevelInfo, (&Profile{LogLevel: "bogus"}).SlogLevel())
}
