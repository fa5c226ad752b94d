// Package transform maps parse trees onto partial entities. Each grammar
// variant has exactly one conversion rule; nothing here consults the
// reference instant or sibling entities.
package transform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	terrors "github.com/hrygo/whenparse/internal/errors"
	"github.com/hrygo/whenparse/plugin/temporal/entity"
	"github.com/hrygo/whenparse/plugin/temporal/grammar"
	"github.com/hrygo/whenparse/server/timezone"
)

// Transform converts top-level expressions into entity groups, in order.
func Transform(exprs []grammar.Node) []entity.Group {
	groups := make([]entity.Group, 0, len(exprs))
	for _, n := range exprs {
		groups = append(groups, Group(n))
	}
	return groups
}

// Group converts one top-level expression.
func Group(n grammar.Node) entity.Group {
	switch v := n.(type) {
	case *grammar.ListNode:
		g := entity.Group{Kind: entity.GroupList, Ranged: v.Ranged(), Span: v.Span()}
		for _, item := range v.Items {
			if r, ok := item.(*grammar.RangeNode); ok {
				g.Entities = append(g.Entities, Single(r.From), Single(r.To))
				continue
			}
			g.Entities = append(g.Entities, Single(item))
		}
		return g
	case *grammar.RangeNode:
		return entity.Group{
			Kind:     entity.GroupRange,
			Entities: []entity.Entity{Single(v.From), Single(v.To)},
			Span:     v.Span(),
		}
	default:
		return entity.Group{Kind: entity.GroupSingle, Entities: []entity.Entity{Single(n)}, Span: n.Span()}
	}
}

// Single converts a datetime, duration or ambiguous node.
func Single(n grammar.Node) entity.Entity {
	switch v := n.(type) {
	case *grammar.DatetimeNode:
		return Datetime(v)
	case *grammar.DurationNode:
		return Duration(v)
	case *grammar.AmbiguousNode:
		value, _ := v.Num.Num()
		return entity.Entity{Kind: entity.KindAmbiguous, Value: value, Span: v.Span()}
	default:
		return entity.Entity{Span: n.Span(), Err: terrors.Unresolved(fmt.Sprintf("unexpected node %T", n))}
	}
}

// Datetime converts a date, time and zone combination or a datetime name.
func Datetime(n *grammar.DatetimeNode) entity.Entity {
	e := entity.Entity{Kind: entity.KindDatetime, Span: n.Span()}
	tonight := false
	if n.Name != nil {
		switch n.Name.Lower {
		case "now":
			e.Now = true
		case "tonight":
			tonight = true
			e.Date = entity.PartialDate{Offset: entity.Some(0), Source: entity.SourceName}
			e.Time = entity.PartialTime{Hour: entity.Some(21), Clock24: true, Name: "tonight"}
		}
	}
	if n.Date != nil {
		e.Date = Date(n.Date)
	}
	if n.Time != nil {
		e.Time = Time(n.Time)
		if tonight && e.Time.NeedsMeridiem() {
			e.Time.Meridiem = entity.PM
		}
	}
	if n.Zone != nil {
		z, err := Zone(n.Zone)
		if err != nil {
			e.Err = err
		}
		e.Zone = z
		e.ExplicitZone = true
	}
	return e
}

// Date converts a date production. Fields stay unset unless the text names them.
func Date(n *grammar.DateNode) entity.PartialDate {
	var d entity.PartialDate
	switch n.Form {
	case grammar.DateNumeric, grammar.DateYMD, grammar.DateMonthName, grammar.DateDayMonth:
		d.Month = month(n.Month)
		d.Day = number(n.Day)
		d.Year, d.TwoDigitYear = year(n.Year)
	case grammar.DateWeekday:
		d.Weekday = weekday(n.Weekday)
		d.Modifier = modifier(n.Modifier)
	case grammar.DateWeekdayDate:
		d = Date(n.Inner)
		d.Weekday = weekday(n.Weekday)
	case grammar.DateName:
		if n.Name.Word("this") {
			d.Offset = entity.Some(0)
		} else if off, ok := grammar.DateNameOffset(n.Name.Lower); ok {
			d.Offset = entity.Some(off)
		}
		d.Source = entity.SourceName
	case grammar.DateModifiedMonth:
		d.Month = month(n.Month)
		d.Modifier = modifier(n.Modifier)
	case grammar.DateNthWeekday:
		if v, ok := n.Position.Num(); ok && n.Position.Is(grammar.KindNumber) {
			d.Position = v
		} else if v, ok := grammar.PositionOf(n.Position.Lower); ok {
			d.Position = v
		}
		d.Weekday = weekday(n.Weekday)
		d.Month = month(n.Month)
		d.Year, d.TwoDigitYear = year(n.Year)
	case grammar.DateDayOnly:
		d.Day = number(n.Day)
	}
	return d
}

// Time converts a time production. Hours stay on the 12h clock until a
// meridiem is known, except where the text is unambiguously 24h.
func Time(n *grammar.TimeNode) entity.PartialTime {
	var t entity.PartialTime
	if n.Form == grammar.TimeName {
		h, _ := grammar.TimeNameHour(n.Name.Lower)
		return entity.PartialTime{Hour: entity.Some(h), Clock24: true, Name: n.Name.Lower}
	}

	h, _ := n.Hour.Num()
	t.Hour = entity.Some(h)
	t.Minute = number(n.Minute)
	t.Second = number(n.Second)
	if n.Fraction != nil {
		t.Millisecond = entity.Some(millis(n.Fraction.Text))
	}
	if n.Meridiem != nil {
		t.Meridiem = grammar.MeridiemOf(n.Meridiem.Lower)
	}
	if n.Form == grammar.TimeOClock {
		t.Minute = entity.Some(0)
	}
	if t.Meridiem == entity.MeridiemNone {
		leadingZero := len(n.Hour.Text) == 2 && n.Hour.Text[0] == '0'
		t.Clock24 = h == 0 || h > 12 || (n.Form == grammar.TimeClock && leadingZero)
	}
	return t
}

// Zone resolves an abbreviation or offset through the static zone table.
func Zone(n *grammar.ZoneNode) (entity.Zone, error) {
	if n.Abbr != nil && n.Abbr.Text == "Z" {
		return entity.Zone{Name: "UTC", Location: time.UTC}, nil
	}
	if n.Sign == nil {
		name := strings.ToUpper(n.Abbr.Text)
		loc, err := timezone.LookupAbbreviation(name)
		if err != nil {
			return entity.Zone{Name: name}, terrors.UnknownTimezone(name)
		}
		return entity.Zone{Name: name, Location: loc}, nil
	}

	hours, _ := n.Hours.Num()
	minutes := 0
	if n.Hours.Digits() == 4 {
		hours, minutes = hours/100, hours%100
	}
	if n.Minutes != nil {
		minutes, _ = n.Minutes.Num()
	}
	name := fmt.Sprintf("%s%02d:%02d", n.Sign.Lower, hours, minutes)
	if n.Abbr != nil {
		name = strings.ToUpper(n.Abbr.Text) + name
	}
	loc, err := timezone.FixedOffset(name, hours, minutes, n.Sign.Lower == "-")
	if err != nil {
		return entity.Zone{Name: name}, terrors.Wrap(err, terrors.ErrCodeUnknownTimezone, "invalid offset")
	}
	return entity.Zone{Name: name, Location: loc}, nil
}

// Duration sums nothing yet; it records the parts and the single sign.
// A duration marked both future and past is a contradiction.
func Duration(n *grammar.DurationNode) entity.Entity {
	e := entity.Entity{Kind: entity.KindDuration, Span: n.Span()}
	for _, part := range n.Parts {
		amount, _ := part.Amount.Num()
		unit, _ := grammar.UnitOf(part.Unit.Lower)
		e.Duration.Parts = append(e.Duration.Parts, entity.DurationPart{Amount: amount, Unit: unit})
	}
	switch {
	case n.Future != nil && n.Past != nil:
		e.Err = terrors.Contradiction(fmt.Sprintf("duration marked both %q and %q", n.Future.Text, n.Past.Text))
	case n.Future != nil:
		e.Duration.Sign = entity.SignFuture
	case n.Past != nil:
		e.Duration.Sign = entity.SignPast
	}
	return e
}

func number(t *grammar.Token) entity.Opt[int] {
	if t == nil {
		return entity.Opt[int]{}
	}
	if n, ok := t.Num(); ok {
		return entity.Some(n)
	}
	return entity.Opt[int]{}
}

func month(t *grammar.Token) entity.Opt[int] {
	if t == nil {
		return entity.Opt[int]{}
	}
	if t.Is(grammar.KindNumber) {
		return number(t)
	}
	if m, ok := grammar.Month(t.Lower); ok {
		return entity.Some(m)
	}
	return entity.Opt[int]{}
}

func year(t *grammar.Token) (entity.Opt[int], bool) {
	if t == nil {
		return entity.Opt[int]{}, false
	}
	return number(t), t.Digits() == 2
}

func weekday(t *grammar.Token) entity.Opt[time.Weekday] {
	if t == nil {
		return entity.Opt[time.Weekday]{}
	}
	if wd, ok := grammar.Weekday(t.Lower); ok {
		return entity.Some(wd)
	}
	return entity.Opt[time.Weekday]{}
}

func modifier(t *grammar.Token) entity.Modifier {
	if t == nil {
		return entity.ModNone
	}
	return grammar.ModifierOf(t.Lower)
}

// millis reads a fractional-second digit string as milliseconds.
func millis(fraction string) int {
	if len(fraction) > 3 {
		fraction = fraction[:3]
	}
	for len(fraction) < 3 {
		fraction += "0"
	}
	ms, _ := strconv.Atoi(fraction)
	return ms
}
