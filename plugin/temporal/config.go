package temporal

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	terrors "github.com/hrygo/whenparse/internal/errors"
	"github.com/hrygo/whenparse/internal/profile"
	"github.com/hrygo/whenparse/plugin/temporal/infer"
	"github.com/hrygo/whenparse/plugin/temporal/render"
	"github.com/hrygo/whenparse/server/timezone"
)

// Direction is the policy for choosing between past and future occurrences.
type Direction = infer.Direction

const (
	DirectionNext     = infer.Next
	DirectionPrevious = infer.Previous
	DirectionNearest  = infer.Nearest
)

// ParseDirection parses "next", "previous" or "nearest".
func ParseDirection(s string) (Direction, error) {
	return infer.ParseDirection(s)
}

// Config is the per-call extraction configuration.
type Config struct {
	Direction Direction
	// InferDatetimes fills unset fields from the reference instant and
	// siblings. When off, only what the text states is returned.
	InferDatetimes bool
	// Now is the reference instant. The zero value means the current instant.
	Now time.Time
	// Timezone, when set, is an abbreviation, offset or IANA name; the
	// reference instant is converted into it.
	Timezone string
	// ReturnMatchedText fills each result with its matched substring.
	ReturnMatchedText bool
	// CollapseSingleton makes Shape return a lone result by itself.
	CollapseSingleton bool
	// FuzzyNames corrects month and weekday names one edit away.
	FuzzyNames bool
	// Markdown extracts from the prose of a markdown document only.
	Markdown bool
	// Filter is an optional CEL predicate results must satisfy.
	Filter string
}

// NewConfig returns the default configuration: next direction, inference on.
func NewConfig() Config {
	return Config{Direction: DirectionNext, InferDatetimes: true}
}

// Validate reports configuration errors before any text is parsed.
func (c Config) Validate() error {
	if err := c.validate(); err != nil {
		return err
	}
	if c.Filter != "" {
		if _, err := render.CompileFilter(c.Filter); err != nil {
			return err
		}
	}
	return nil
}

// validate checks everything but the filter, which callers compile once
// and keep.
func (c Config) validate() error {
	switch c.Direction {
	case DirectionNext, DirectionPrevious, DirectionNearest:
	default:
		return terrors.InvalidConfig("direction must be next, previous or nearest").WithContext("direction", int(c.Direction))
	}
	_, err := c.location()
	return err
}

func (c Config) location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return nil, nil
	}
	loc, err := timezone.Resolve(c.Timezone)
	if err != nil {
		return nil, terrors.UnknownTimezone(c.Timezone)
	}
	return loc, nil
}

// Reference returns the reference instant the call resolves against.
func (c Config) Reference() (time.Time, error) {
	now := c.Now
	if now.IsZero() {
		now = time.Now()
	}
	loc, err := c.location()
	if err != nil {
		return time.Time{}, err
	}
	if loc != nil {
		now = now.In(loc)
	}
	return now, nil
}

var defaultConfig atomic.Pointer[Config]

func init() {
	cfg := NewConfig()
	defaultConfig.Store(&cfg)
}

// DefaultConfig returns the process-wide default configuration.
func DefaultConfig() Config {
	return *defaultConfig.Load()
}

// SetDefaultConfig replaces the process-wide default configuration. Calls
// already running keep the configuration they started with.
func SetDefaultConfig(c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	defaultConfig.Store(&c)
	return nil
}

// referenceLayouts are the accepted spellings of a configured reference instant.
var referenceLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseReference parses a reference instant. Values without an offset are
// read in loc, or in the local zone when loc is nil.
func ParseReference(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range referenceLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, terrors.InvalidReference(s, lastErr)
}

// ConfigFromProfile builds a configuration from process settings.
func ConfigFromProfile(p *profile.Profile) (Config, error) {
	cfg := NewConfig()
	dir, err := ParseDirection(p.Direction)
	if err != nil {
		return cfg, errors.Wrap(err, "profile direction")
	}
	cfg.Direction = dir
	cfg.InferDatetimes = p.InferDatetimes
	cfg.Timezone = p.Timezone
	cfg.ReturnMatchedText = p.ReturnMatchedText
	cfg.CollapseSingleton = p.CollapseSingleton
	cfg.FuzzyNames = p.FuzzyNames
	cfg.Markdown = p.Markdown

	loc, err := cfg.location()
	if err != nil {
		return cfg, errors.Wrap(err, "profile timezone")
	}
	if p.Now != "" {
		now, err := ParseReference(p.Now, loc)
		if err != nil {
			return cfg, errors.Wrap(err, "profile reference instant")
		}
		cfg.Now = now
	}
	return cfg, nil
}
