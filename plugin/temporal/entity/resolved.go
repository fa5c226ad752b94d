package entity

import (
	"fmt"
	"time"
)

// ValueKind is the kind of a resolved value.
type ValueKind int

const (
	// ValueDateTime is a full instant.
	ValueDateTime ValueKind = iota
	// ValueDate is a calendar date with no clock.
	ValueDate
	// ValueTime is a clock time with no date.
	ValueTime
	// ValueDuration is a raw offset.
	ValueDuration
	// ValuePartial carries fields that stayed unknown because inference was disabled.
	ValuePartial
)

func (k ValueKind) String() string {
	switch k {
	case ValueDateTime:
		return "datetime"
	case ValueDate:
		return "date"
	case ValueTime:
		return "time"
	case ValueDuration:
		return "duration"
	case ValuePartial:
		return "partial"
	default:
		return "unknown"
	}
}

// Resolved is a terminal value produced from one entity. It is never
// modified after creation.
type Resolved struct {
	Kind ValueKind
	// Time holds the instant for datetime values, midnight for date values,
	// and a clock on 0000-01-01 for time values.
	Time     time.Time
	Duration time.Duration
	// Date and Clock hold the known fields of a partial value.
	Date  PartialDate
	Clock PartialTime
	// HasZone reports whether Time carries a zone from the text or the reference.
	HasZone bool
	Span    Span
	Err     error
}

// Valid reports whether the value resolved without error.
func (r Resolved) Valid() bool {
	return r.Err == nil
}

// Equal reports whether two values denote the same thing, ignoring spans.
func (r Resolved) Equal(o Resolved) bool {
	if r.Kind != o.Kind || (r.Err == nil) != (o.Err == nil) {
		return false
	}
	switch r.Kind {
	case ValueDuration:
		return r.Duration == o.Duration
	case ValuePartial:
		return r.Date.String() == o.Date.String() && r.Clock.String() == o.Clock.String()
	default:
		return r.Time.Equal(o.Time)
	}
}

func (r Resolved) String() string {
	if r.Err != nil {
		return "error(" + r.Err.Error() + ")"
	}
	switch r.Kind {
	case ValueDateTime:
		if r.Time.Second() != 0 || r.Time.Nanosecond() != 0 {
			return r.Time.Format("2006-01-02 15:04:05.000 MST")
		}
		return r.Time.Format("2006-01-02 15:04 MST")
	case ValueDate:
		return r.Time.Format("2006-01-02")
	case ValueTime:
		if r.Time.Second() != 0 || r.Time.Nanosecond() != 0 {
			return r.Time.Format("15:04:05.000")
		}
		return r.Time.Format("15:04")
	case ValueDuration:
		return r.Duration.String()
	case ValuePartial:
		return fmt.Sprintf("%s %s", r.Date, r.Clock)
	default:
		return "?"
	}
}

// ResolvedGroup is a group whose entities have all been resolved. When
// Ranged is set on a list, consecutive pairs of values form its ranges.
type ResolvedGroup struct {
	Kind   GroupKind
	Ranged bool
	Values []Resolved
	Span   Span
}
