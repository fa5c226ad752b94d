package entity

import (
	"fmt"
	"strings"
	"time"
)

// Unit is a duration unit.
type Unit int

const (
	UnitSecond Unit = iota
	UnitMinute
	UnitHour
	UnitDay
	UnitWeek
	UnitMonth
	UnitYear
)

// Months and years are fixed-length: 30 and 365 days.
var unitDurations = map[Unit]time.Duration{
	UnitSecond: time.Second,
	UnitMinute: time.Minute,
	UnitHour:   time.Hour,
	UnitDay:    24 * time.Hour,
	UnitWeek:   7 * 24 * time.Hour,
	UnitMonth:  30 * 24 * time.Hour,
	UnitYear:   365 * 24 * time.Hour,
}

var unitNames = map[Unit]string{
	UnitSecond: "second",
	UnitMinute: "minute",
	UnitHour:   "hour",
	UnitDay:    "day",
	UnitWeek:   "week",
	UnitMonth:  "month",
	UnitYear:   "year",
}

// Duration returns the length of one unit.
func (u Unit) Duration() time.Duration {
	return unitDurations[u]
}

func (u Unit) String() string {
	return unitNames[u]
}

// Sign is the direction of a duration relative to the reference instant.
type Sign int

const (
	SignNone Sign = iota
	SignFuture
	SignPast
)

// DurationPart is one (amount, unit) pair.
type DurationPart struct {
	Amount int
	Unit   Unit
}

// DurationSpec is an ordered list of parts sharing one sign.
type DurationSpec struct {
	Parts []DurationPart
	Sign  Sign
}

// Total sums all parts. The result is unsigned.
func (d DurationSpec) Total() time.Duration {
	var total time.Duration
	for _, p := range d.Parts {
		total += time.Duration(p.Amount) * p.Unit.Duration()
	}
	return total
}

// Signed returns Total, negated for past durations.
func (d DurationSpec) Signed() time.Duration {
	if d.Sign == SignPast {
		return -d.Total()
	}
	return d.Total()
}

// LastUnit returns the unit of the final part.
func (d DurationSpec) LastUnit() (Unit, bool) {
	if len(d.Parts) == 0 {
		return 0, false
	}
	return d.Parts[len(d.Parts)-1].Unit, true
}

func (d DurationSpec) String() string {
	parts := make([]string, 0, len(d.Parts))
	for _, p := range d.Parts {
		parts = append(parts, fmt.Sprintf("%d %s", p.Amount, p.Unit))
	}
	s := strings.Join(parts, " ")
	switch d.Sign {
	case SignFuture:
		s = "in " + s
	case SignPast:
		s += " ago"
	}
	return "duration(" + s + ")"
}
