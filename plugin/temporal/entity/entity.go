// Package entity defines the partial and resolved temporal values that flow
// from the transformer through the inference passes to the materializer.
package entity

import (
	"fmt"
	"strings"
	"time"
)

// Opt is an optional value. The zero value is unset.
type Opt[T any] struct {
	value T
	set   bool
}

// Some returns a set optional holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{value: v, set: true}
}

// Get returns the value and whether it is set.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether the value is present.
func (o Opt[T]) IsSet() bool {
	return o.set
}

// Or returns the value, or def when unset.
func (o Opt[T]) Or(def T) T {
	if o.set {
		return o.value
	}
	return def
}

// Span is a half-open byte range in the source text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Cover returns the smallest span containing both s and o.
func (s Span) Cover(o Span) Span {
	out := s
	if o.Start < out.Start {
		out.Start = o.Start
	}
	if o.End > out.End {
		out.End = o.End
	}
	return out
}

// Meridiem is an AM/PM designator.
type Meridiem int

const (
	MeridiemNone Meridiem = iota
	AM
	PM
)

func (m Meridiem) String() string {
	switch m {
	case AM:
		return "am"
	case PM:
		return "pm"
	default:
		return ""
	}
}

// Modifier qualifies a weekday or month name ("next Monday", "last July").
type Modifier int

const (
	ModNone Modifier = iota
	ModNext
	ModUpcoming
	ModThis
	ModLast
	ModPrevious
	ModPast
)

// Forward reports whether the modifier forces a search after the reference.
func (m Modifier) Forward() bool {
	return m == ModNext || m == ModUpcoming
}

// Backward reports whether the modifier forces a search before the reference.
func (m Modifier) Backward() bool {
	return m == ModLast || m == ModPrevious || m == ModPast
}

// PositionLast is the Position value for "last Monday of August".
const PositionLast = -1

// DateSource records where a date's fields came from.
type DateSource int

const (
	SourceExplicit DateSource = iota
	SourceName                // today, tomorrow, yesterday
	SourceInherited           // copied from a sibling
	SourceReference           // taken from the reference instant
)

// PartialDate is a calendar date whose fields may be unknown.
type PartialDate struct {
	Year         Opt[int]
	TwoDigitYear bool
	Month        Opt[int]
	Day          Opt[int]
	Weekday      Opt[time.Weekday]
	Modifier     Modifier
	// Position is the N in "Nth weekday of month"; PositionLast for "last".
	Position int
	// Offset is the day offset of a date name relative to the reference date.
	Offset Opt[int]
	Source DateSource
}

// IsZero reports whether nothing about the date is known.
func (d PartialDate) IsZero() bool {
	return !d.Year.IsSet() && !d.Month.IsSet() && !d.Day.IsSet() &&
		!d.Weekday.IsSet() && !d.Offset.IsSet()
}

// Complete reports whether year, month and day are all known.
func (d PartialDate) Complete() bool {
	return d.Year.IsSet() && d.Month.IsSet() && d.Day.IsSet()
}

// Relative reports whether the date still needs the reference instant to resolve.
func (d PartialDate) Relative() bool {
	if d.Offset.IsSet() {
		return true
	}
	if d.Weekday.IsSet() && !d.Day.IsSet() {
		return true
	}
	return d.Modifier != ModNone && d.Month.IsSet() && !d.Day.IsSet()
}

func (d PartialDate) String() string {
	var parts []string
	if y, ok := d.Year.Get(); ok {
		parts = append(parts, fmt.Sprintf("y=%d", y))
	}
	if m, ok := d.Month.Get(); ok {
		parts = append(parts, fmt.Sprintf("m=%d", m))
	}
	if day, ok := d.Day.Get(); ok {
		parts = append(parts, fmt.Sprintf("d=%d", day))
	}
	if wd, ok := d.Weekday.Get(); ok {
		parts = append(parts, "wd="+wd.String())
	}
	if off, ok := d.Offset.Get(); ok {
		parts = append(parts, fmt.Sprintf("offset=%d", off))
	}
	return "date(" + strings.Join(parts, " ") + ")"
}

// PartialTime is a clock time whose fields may be unknown.
// Hour stays on the 12h clock until a meridiem is known, unless Clock24 is set.
type PartialTime struct {
	Hour        Opt[int]
	Minute      Opt[int]
	Second      Opt[int]
	Millisecond Opt[int]
	Meridiem    Meridiem
	// Clock24 marks an hour that is already on the 24h clock and never takes a meridiem.
	Clock24 bool
	// Name is the time-name word ("noon", "evening") when the time came from one.
	Name string
}

// IsZero reports whether no hour is known.
func (t PartialTime) IsZero() bool {
	return !t.Hour.IsSet()
}

// NeedsMeridiem reports whether the hour is ambiguous between AM and PM.
func (t PartialTime) NeedsMeridiem() bool {
	h, ok := t.Hour.Get()
	return ok && !t.Clock24 && t.Meridiem == MeridiemNone && h >= 1 && h <= 12
}

// Hour24 returns the hour on the 24h clock.
func (t PartialTime) Hour24() (int, bool) {
	h, ok := t.Hour.Get()
	if !ok {
		return 0, false
	}
	switch t.Meridiem {
	case PM:
		if h < 12 {
			h += 12
		}
	case AM:
		if h == 12 {
			h = 0
		}
	}
	return h, true
}

func (t PartialTime) String() string {
	if t.IsZero() {
		return "time()"
	}
	h, _ := t.Hour.Get()
	return fmt.Sprintf("time(%d:%02d%s)", h, t.Minute.Or(0), t.Meridiem)
}

// Zone is a timezone taken from the text, a sibling, or the reference instant.
type Zone struct {
	Name     string
	Location *time.Location
}

// IsSet reports whether a zone is known.
func (z Zone) IsSet() bool {
	return z.Location != nil
}

// Kind is the kind of a partial entity.
type Kind int

const (
	KindDatetime Kind = iota
	KindDuration
	KindAmbiguous
)

func (k Kind) String() string {
	switch k {
	case KindDatetime:
		return "datetime"
	case KindDuration:
		return "duration"
	case KindAmbiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Entity is one partial temporal value produced by the transformer.
type Entity struct {
	Kind     Kind
	Date     PartialDate
	Time     PartialTime
	Zone     Zone
	Duration DurationSpec
	// Value is the raw integer of an ambiguous entity.
	Value int
	// Now marks the named datetime "now".
	Now bool
	// ExplicitZone marks a zone written in the entity's own text.
	ExplicitZone bool
	// DateFrom is the index of the sibling whose date this entity copied.
	DateFrom Opt[int]
	// At is the resolved instant of "now" or of a signed duration.
	At   Opt[time.Time]
	Span Span
	Err  error
}

// HasDate reports whether any date field is known.
func (e Entity) HasDate() bool {
	return !e.Date.IsZero()
}

// HasTime reports whether a clock hour is known.
func (e Entity) HasTime() bool {
	return !e.Time.IsZero()
}

// HasOwnDate reports whether the entity's date came from its own text.
func (e Entity) HasOwnDate() bool {
	return e.HasDate() && (e.Date.Source == SourceExplicit || e.Date.Source == SourceName)
}

func (e Entity) String() string {
	switch e.Kind {
	case KindAmbiguous:
		return fmt.Sprintf("ambiguous(%d)", e.Value)
	case KindDuration:
		return e.Duration.String()
	default:
		return fmt.Sprintf("%s %s", e.Date, e.Time)
	}
}

// GroupKind is the shape of one top-level expression.
type GroupKind int

const (
	GroupSingle GroupKind = iota
	GroupList
	GroupRange
)

func (k GroupKind) String() string {
	switch k {
	case GroupList:
		return "list"
	case GroupRange:
		return "range"
	default:
		return "single"
	}
}

// Group is the semantic grouping of one top-level expression. Entities are
// the flat, ordered leaves; when Ranged is set on a list, consecutive pairs
// of entities form the list's ranges.
type Group struct {
	Kind     GroupKind
	Ranged   bool
	Entities []Entity
	Span     Span
}

// Clone returns a copy whose entity slice can be modified freely.
func (g Group) Clone() Group {
	out := g
	out.Entities = make([]Entity, len(g.Entities))
	copy(out.Entities, g.Entities)
	return out
}

// PairedWith returns the index of the other bound when i is a range bound, or -1.
func (g Group) PairedWith(i int) int {
	switch {
	case g.Kind == GroupRange:
		return 1 - i
	case g.Kind == GroupList && g.Ranged:
		if i%2 == 0 {
			return i + 1
		}
		return i - 1
	default:
		return -1
	}
}
