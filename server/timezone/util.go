// Package timezone provides timezone utilities for whenparse.
//
// This package owns the static abbreviation table consumed by the extractor
// and resolves abbreviations, fixed offsets and IANA identifiers to locations.
package timezone

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// UTC is the coordinated universal time timezone
var UTC = time.UTC

// abbreviations maps upper-case timezone abbreviations to IANA zones.
// An abbreviation names a zone, not a fixed offset, so "EST" in July yields EDT.
var abbreviations = map[string]string{
	"UTC":  "UTC",
	"GMT":  "Etc/GMT",
	"Z":    "UTC",
	"EST":  "America/New_York",
	"EDT":  "America/New_York",
	"ET":   "America/New_York",
	"CST":  "America/Chicago",
	"CDT":  "America/Chicago",
	"CT":   "America/Chicago",
	"MST":  "America/Denver",
	"MDT":  "America/Denver",
	"MT":   "America/Denver",
	"PST":  "America/Los_Angeles",
	"PDT":  "America/Los_Angeles",
	"PT":   "America/Los_Angeles",
	"AKST": "America/Anchorage",
	"AKDT": "America/Anchorage",
	"HST":  "Pacific/Honolulu",
	"AST":  "America/Halifax",
	"ADT":  "America/Halifax",
	"NST":  "America/St_Johns",
	"NDT":  "America/St_Johns",
	"BST":  "Europe/London",
	"WET":  "Europe/Lisbon",
	"WEST": "Europe/Lisbon",
	"CET":  "Europe/Paris",
	"CEST": "Europe/Paris",
	"EET":  "Europe/Athens",
	"EEST": "Europe/Athens",
	"MSK":  "Europe/Moscow",
	"IST":  "Asia/Kolkata",
	"PKT":  "Asia/Karachi",
	"WIB":  "Asia/Jakarta",
	"SGT":  "Asia/Singapore",
	"HKT":  "Asia/Hong_Kong",
	"PHT":  "Asia/Manila",
	"JST":  "Asia/Tokyo",
	"KST":  "Asia/Seoul",
	"AWST": "Australia/Perth",
	"ACST": "Australia/Adelaide",
	"ACDT": "Australia/Adelaide",
	"AEST": "Australia/Sydney",
	"AEDT": "Australia/Sydney",
	"NZST": "Pacific/Auckland",
	"NZDT": "Pacific/Auckland",
	"SAST": "Africa/Johannesburg",
}

// IsAbbreviation reports whether s is a known timezone abbreviation.
// Lower-case input is only accepted for "utc" and "gmt" so ordinary words
// like "est" or "ist" in prose are not mistaken for zones.
func IsAbbreviation(s string) bool {
	if s == "" {
		return false
	}
	upper := strings.ToUpper(s)
	if upper != s {
		lower := strings.ToLower(s)
		if lower != "utc" && lower != "gmt" {
			return false
		}
	}
	if upper == "Z" {
		return false
	}
	_, ok := abbreviations[upper]
	return ok
}

// LookupAbbreviation resolves an abbreviation to its location.
func LookupAbbreviation(abbr string) (*time.Location, error) {
	name, ok := abbreviations[strings.ToUpper(abbr)]
	if !ok {
		return nil, fmt.Errorf("unknown timezone abbreviation %q", abbr)
	}
	return time.LoadLocation(name)
}

// FixedOffset returns a location with a constant offset from UTC.
// The name is kept so formatted values show what the text said.
func FixedOffset(name string, hours, minutes int, negative bool) (*time.Location, error) {
	if hours > 14 || minutes > 59 || hours < 0 || minutes < 0 {
		return nil, fmt.Errorf("offset %02d:%02d out of range", hours, minutes)
	}
	seconds := hours*3600 + minutes*60
	if negative {
		seconds = -seconds
	}
	return time.FixedZone(name, seconds), nil
}

// Resolve resolves an abbreviation, "+hh:mm" offset or IANA identifier.
func Resolve(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return nil, fmt.Errorf("empty timezone")
	}
	if loc, err := LookupAbbreviation(tz); err == nil {
		return loc, nil
	}
	if tz[0] == '+' || tz[0] == '-' {
		return parseOffset(tz)
	}
	return ParseTimezone(tz)
}

// parseOffset parses "+05", "+0530" and "+05:30".
func parseOffset(s string) (*time.Location, error) {
	negative := s[0] == '-'
	digits := strings.ReplaceAll(s[1:], ":", "")
	var hours, minutes int
	switch len(digits) {
	case 1, 2:
		if _, err := fmt.Sscanf(digits, "%d", &hours); err != nil {
			return nil, fmt.Errorf("invalid offset %q: %w", s, err)
		}
	case 4:
		if _, err := fmt.Sscanf(digits, "%2d%2d", &hours, &minutes); err != nil {
			return nil, fmt.Errorf("invalid offset %q: %w", s, err)
		}
	default:
		return nil, fmt.Errorf("invalid offset %q", s)
	}
	return FixedOffset(s, hours, minutes, negative)
}

// ParseTimezone parses an IANA timezone identifier (e.g., "Asia/Shanghai").
// If the timezone is invalid, returns UTC and an error.
func ParseTimezone(tz string) (*time.Location, error) {
	if tz == "" || tz == "UTC" {
		return UTC, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return UTC, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	return loc, nil
}
