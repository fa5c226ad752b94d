package grammar

import "github.com/hrygo/whenparse/plugin/temporal/entity"

// Node is a parse tree node. The concrete types form a closed set:
// *ListNode, *RangeNode, *DatetimeNode, *DurationNode and *AmbiguousNode
// at the expression level, with *DateNode, *TimeNode and *ZoneNode below.
type Node interface {
	Span() entity.Span
	rank() rank
}

// rank orders competing derivations of the same span: fewer ambiguous
// leaves first, then the higher structural score.
type rank struct {
	amb   int
	score int
}

func (r rank) add(o rank) rank {
	return rank{amb: r.amb + o.amb, score: r.score + o.score}
}

func (r rank) better(o rank) bool {
	if r.amb != o.amb {
		return r.amb < o.amb
	}
	return r.score > o.score
}

type meta struct {
	span entity.Span
	r    rank
}

func (m meta) Span() entity.Span { return m.span }
func (m meta) rank() rank        { return m.r }

// ListNode is a list of singles, or a list of ranges.
type ListNode struct {
	meta
	Items []Node
}

// Ranged reports whether the list items are ranges.
func (n *ListNode) Ranged() bool {
	if len(n.Items) == 0 {
		return false
	}
	_, ok := n.Items[0].(*RangeNode)
	return ok
}

// RangeNode is a pair of singles joined by "to", "-" or similar.
type RangeNode struct {
	meta
	From Node
	To   Node
}

// DatetimeNode combines an optional date, time and zone, or a datetime name.
type DatetimeNode struct {
	meta
	Date *DateNode
	Time *TimeNode
	Zone *ZoneNode
	// Name is "now" or "tonight".
	Name *Token
}

// DateForm identifies which date production matched.
type DateForm int

const (
	DateNumeric DateForm = iota
	DateYMD
	DateMonthName
	DateDayMonth
	DateWeekday
	DateWeekdayDate
	DateName
	DateModifiedMonth
	DateNthWeekday
	DateDayOnly
)

// DateNode is a date production. Unused roles are nil.
type DateNode struct {
	meta
	Form     DateForm
	Year     *Token
	Month    *Token
	Day      *Token
	Weekday  *Token
	Modifier *Token
	Position *Token
	Name     *Token
	// Inner is the explicit date that follows a weekday ("Monday, July 17").
	Inner *DateNode
}

// monthOnly reports whether the date names a month and nothing finer or coarser.
func (n *DateNode) monthOnly() bool {
	switch n.Form {
	case DateMonthName, DateModifiedMonth:
		return n.Day == nil && n.Year == nil
	}
	return false
}

// TimeForm identifies which time production matched.
type TimeForm int

const (
	TimeClock TimeForm = iota
	TimeMeridiem
	TimeOClock
	TimeName
	TimeHour
)

// TimeNode is a time production. Unused roles are nil.
type TimeNode struct {
	meta
	Form     TimeForm
	Hour     *Token
	Minute   *Token
	Second   *Token
	Fraction *Token
	Meridiem *Token
	Name     *Token
}

// ZoneNode is an abbreviation with an optional offset, an ISO offset, or "Z".
type ZoneNode struct {
	meta
	Abbr    *Token
	Sign    *Token
	Hours   *Token
	Minutes *Token
}

// DurationPartNode is one amount and unit.
type DurationPartNode struct {
	Amount *Token
	Unit   *Token
}

// DurationNode is a sum of parts with optional sign markers.
type DurationNode struct {
	meta
	Parts []DurationPartNode
	// Future is the leading "in" or the trailing "later" / "from".
	Future *Token
	// Past is the trailing "ago".
	Past *Token
}

// AmbiguousNode is a bare integer whose role is decided during inference.
type AmbiguousNode struct {
	meta
	Num *Token
}
