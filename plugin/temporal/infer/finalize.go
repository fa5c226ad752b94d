package infer

import (
	"fmt"
	"time"

	terrors "github.com/hrygo/whenparse/internal/errors"
	"github.com/hrygo/whenparse/plugin/temporal/entity"
)

// Finalize resolves each entity of a group into a terminal value. Errors
// stay on the entity they belong to. Bare integers that never found a role
// are dropped, and the group is reshaped around what remains; ok is false
// when nothing remains.
func Finalize(g entity.Group, c Context) (entity.ResolvedGroup, bool) {
	values := make([]entity.Resolved, len(g.Entities))
	kept := make([]bool, len(g.Entities))
	for i, e := range g.Entities {
		if e.Kind == entity.KindAmbiguous {
			continue
		}
		kept[i] = true
		values[i] = resolve(e, c)
	}
	rollRangeEnds(g, values, kept)
	return shape(g, values, kept)
}

func resolve(e entity.Entity, c Context) entity.Resolved {
	r := entity.Resolved{Span: e.Span}
	if e.Err != nil {
		r.Err = e.Err
		return r
	}

	if e.Kind == entity.KindDuration {
		if at, ok := e.At.Get(); ok {
			r.Kind, r.Time, r.HasZone = entity.ValueDateTime, at, true
			return r
		}
		r.Kind, r.Duration = entity.ValueDuration, e.Duration.Signed()
		return r
	}
	if e.Now {
		r.Kind, r.Time, r.HasZone = entity.ValueDateTime, e.At.Or(c.Now), true
		return r
	}

	loc := time.UTC
	if e.Zone.IsSet() {
		loc, r.HasZone = e.Zone.Location, true
	}

	d := e.Date
	if d.Complete() {
		y, _ := d.Year.Get()
		m, _ := d.Month.Get()
		day, _ := d.Day.Get()
		if day > daysIn(y, m) {
			r.Err = terrors.InvalidDate(y, m, day)
			return r
		}
		if wd, ok := d.Weekday.Get(); ok {
			if actual := time.Date(y, time.Month(m), day, 0, 0, 0, 0, loc).Weekday(); actual != wd {
				r.Err = terrors.Contradiction(fmt.Sprintf("%04d-%02d-%02d is a %s, not a %s", y, m, day, actual, wd))
				return r
			}
		}
		midnight := time.Date(y, time.Month(m), day, 0, 0, 0, 0, loc)
		if e.HasTime() {
			r.Kind, r.Time = entity.ValueDateTime, clockOn(midnight, e.Time)
		} else {
			r.Kind, r.Time = entity.ValueDate, midnight
		}
		return r
	}

	if d.IsZero() && e.HasTime() {
		r.Kind, r.Time = entity.ValueTime, clockOn(time.Date(0, 1, 1, 0, 0, 0, 0, loc), e.Time)
		return r
	}
	r.Kind, r.Date, r.Clock = entity.ValuePartial, d, e.Time
	return r
}

// rollRangeEnds moves a range end forward a day when it would precede its
// start and its date was not written for it ("11pm-1am").
func rollRangeEnds(g entity.Group, values []entity.Resolved, kept []bool) {
	for i := range g.Entities {
		j := g.PairedWith(i)
		if j <= i || j >= len(values) || !kept[i] || !kept[j] {
			continue
		}
		start, end := values[i], values[j]
		if start.Err != nil || end.Err != nil || start.Kind != entity.ValueDateTime || end.Kind != entity.ValueDateTime {
			continue
		}
		src := g.Entities[j].Date.Source
		if end.Time.Before(start.Time) && (src == entity.SourceInherited || src == entity.SourceReference) {
			values[j].Time = end.Time.AddDate(0, 0, 1)
		}
	}
}

func shape(g entity.Group, values []entity.Resolved, kept []bool) (entity.ResolvedGroup, bool) {
	single := func(i int) (entity.ResolvedGroup, bool) {
		return entity.ResolvedGroup{Kind: entity.GroupSingle, Values: values[i : i+1], Span: values[i].Span}, true
	}

	switch g.Kind {
	case entity.GroupRange:
		switch {
		case kept[0] && kept[1]:
			return entity.ResolvedGroup{Kind: entity.GroupRange, Values: values, Span: g.Span}, true
		case kept[0]:
			return single(0)
		case kept[1]:
			return single(1)
		}
		return entity.ResolvedGroup{}, false

	case entity.GroupList:
		if g.Ranged {
			var pairs []entity.Resolved
			for i := 0; i+1 < len(values); i += 2 {
				if kept[i] && kept[i+1] {
					pairs = append(pairs, values[i], values[i+1])
				}
			}
			switch len(pairs) {
			case 0:
				return entity.ResolvedGroup{}, false
			case 2:
				return entity.ResolvedGroup{Kind: entity.GroupRange, Values: pairs, Span: pairs[0].Span.Cover(pairs[1].Span)}, true
			}
			return entity.ResolvedGroup{Kind: entity.GroupList, Ranged: true, Values: pairs, Span: g.Span}, true
		}
		var items []entity.Resolved
		for i, v := range values {
			if kept[i] {
				items = append(items, v)
			}
		}
		switch len(items) {
		case 0:
			return entity.ResolvedGroup{}, false
		case 1:
			return entity.ResolvedGroup{Kind: entity.GroupSingle, Values: items, Span: items[0].Span}, true
		}
		return entity.ResolvedGroup{Kind: entity.GroupList, Values: items, Span: g.Span}, true

	default:
		if len(values) == 0 || !kept[0] {
			return entity.ResolvedGroup{}, false
		}
		return entity.ResolvedGroup{Kind: entity.GroupSingle, Values: values, Span: g.Span}, true
	}
}
