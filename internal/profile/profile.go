package profile

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the process configuration shared by the CLI and the server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Version is the current version of server
	Version string
	// LogLevel is one of debug, info, warn, error
	LogLevel string

	// Extraction defaults
	Direction         string // WHENPARSE_DIRECTION (default: next)
	InferDatetimes    bool   // WHENPARSE_INFER_DATETIMES (default: true)
	Now               string // WHENPARSE_NOW, RFC 3339 or "2006-01-02 15:04" (default: current instant)
	Timezone          string // WHENPARSE_TIMEZONE, abbreviation or IANA name (default: local)
	ReturnMatchedText bool   // WHENPARSE_RETURN_MATCHED_TEXT (default: false)
	CollapseSingleton bool   // WHENPARSE_COLLAPSE_SINGLETON (default: false)
	FuzzyNames        bool   // WHENPARSE_FUZZY_NAMES (default: false)
	Markdown          bool   // WHENPARSE_MARKDOWN (default: false)

	// Server limits
	RateLimit        float64 // WHENPARSE_RATE_LIMIT, requests per second per client (default: 20)
	RateBurst        int     // WHENPARSE_RATE_BURST (default: 40)
	BatchConcurrency int     // WHENPARSE_BATCH_CONCURRENCY (default: 8)
	MaxTextBytes     int     // WHENPARSE_MAX_TEXT_BYTES (default: 65536)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnvOrDefault(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		slog.Warn("ignoring malformed boolean", slog.String("key", key), slog.String("value", os.Getenv(key)))
		return defaultValue
	}
	return v
}

func getIntEnv(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnvOrDefault(key, strconv.Itoa(defaultValue)))
	if err != nil {
		slog.Warn("ignoring malformed integer", slog.String("key", key), slog.String("value", os.Getenv(key)))
		return defaultValue
	}
	return v
}

func getFloatEnv(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnvOrDefault(key, strconv.FormatFloat(defaultValue, 'f', -1, 64)), 64)
	if err != nil {
		slog.Warn("ignoring malformed number", slog.String("key", key), slog.String("value", os.Getenv(key)))
		return defaultValue
	}
	return v
}

// FromEnv loads configuration from WHENPARSE_* environment variables.
func (p *Profile) FromEnv() {
	p.Mode = getEnvOrDefault("WHENPARSE_MODE", p.Mode)
	p.LogLevel = getEnvOrDefault("WHENPARSE_LOG_LEVEL", "info")

	p.Direction = getEnvOrDefault("WHENPARSE_DIRECTION", "next")
	p.InferDatetimes = getBoolEnv("WHENPARSE_INFER_DATETIMES", true)
	p.Now = os.Getenv("WHENPARSE_NOW")
	p.Timezone = os.Getenv("WHENPARSE_TIMEZONE")
	p.ReturnMatchedText = getBoolEnv("WHENPARSE_RETURN_MATCHED_TEXT", false)
	p.CollapseSingleton = getBoolEnv("WHENPARSE_COLLAPSE_SINGLETON", false)
	p.FuzzyNames = getBoolEnv("WHENPARSE_FUZZY_NAMES", false)
	p.Markdown = getBoolEnv("WHENPARSE_MARKDOWN", false)

	p.RateLimit = getFloatEnv("WHENPARSE_RATE_LIMIT", 20)
	p.RateBurst = getIntEnv("WHENPARSE_RATE_BURST", 40)
	p.BatchConcurrency = getIntEnv("WHENPARSE_BATCH_CONCURRENCY", 8)
	p.MaxTextBytes = getIntEnv("WHENPARSE_MAX_TEXT_BYTES", 64<<10)
}

// Validate normalizes the profile and rejects values no component can use.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	p.Direction = strings.ToLower(strings.TrimSpace(p.Direction))
	switch p.Direction {
	case "":
		p.Direction = "next"
	case "next", "previous", "nearest":
	default:
		return errors.Errorf("invalid direction %q", p.Direction)
	}

	switch strings.ToLower(p.LogLevel) {
	case "", "info", "debug", "warn", "error":
	default:
		return errors.Errorf("invalid log level %q", p.LogLevel)
	}

	if p.Port < 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}
	if p.RateLimit <= 0 {
		p.RateLimit = 20
	}
	if p.RateBurst <= 0 {
		p.RateBurst = int(p.RateLimit) * 2
	}
	if p.BatchConcurrency <= 0 {
		p.BatchConcurrency = 8
	}
	if p.MaxTextBytes <= 0 {
		p.MaxTextBytes = 64 << 10
	}
	return nil
}

// SlogLevel returns the slog level named by LogLevel.
func (p *Profile) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(p.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
