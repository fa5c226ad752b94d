package infer

import (
	"fmt"
	"math"
	"time"

	terrors "github.com/hrygo/whenparse/internal/errors"
	"github.com/hrygo/whenparse/plugin/temporal/entity"
)

// ResolveAmbiguous gives each bare integer the role its siblings suggest:
// a duration sibling makes it an amount of the same unit, a time sibling an
// hour, a date sibling a day of the month. The paired range bound is
// consulted first. Integers with no usable sibling stay ambiguous and are
// dropped when the group is finalized.
func ResolveAmbiguous(g entity.Group, _ Context) entity.Group {
	out := g.Clone()
	for i, e := range g.Entities {
		if e.Kind != entity.KindAmbiguous {
			continue
		}
		src, ok := roleSource(g, i)
		if !ok {
			continue
		}
		out.Entities[i] = asRole(e, src)
	}
	return out
}

func roleSource(g entity.Group, i int) (entity.Entity, bool) {
	usable := func(e entity.Entity) bool {
		return e.Err == nil && e.Kind != entity.KindAmbiguous
	}
	if j := g.PairedWith(i); j >= 0 && j < len(g.Entities) && usable(g.Entities[j]) {
		return g.Entities[j], true
	}
	if j, ok := nearest(g, i, false, usable); ok {
		return g.Entities[j], true
	}
	return entity.Entity{}, false
}

func asRole(e, src entity.Entity) entity.Entity {
	v := e.Value
	switch {
	case src.Kind == entity.KindDuration:
		unit, ok := src.Duration.LastUnit()
		if !ok {
			return e
		}
		return entity.Entity{
			Kind: entity.KindDuration,
			Duration: entity.DurationSpec{
				Parts: []entity.DurationPart{{Amount: v, Unit: unit}},
				Sign:  src.Duration.Sign,
			},
			Span: e.Span,
		}
	case src.HasTime() && v >= 0 && v <= 23:
		return entity.Entity{
			Kind: entity.KindDatetime,
			Time: entity.PartialTime{Hour: entity.Some(v), Clock24: v == 0 || v > 12},
			Span: e.Span,
		}
	case src.HasDate() && v >= 1 && v <= 31:
		return entity.Entity{
			Kind: entity.KindDatetime,
			Date: entity.PartialDate{Day: entity.Some(v)},
			Span: e.Span,
		}
	}
	return e
}

// PropagateMeridiem gives each ambiguous hour the nearest explicit meridiem,
// looking right first ("3-4p") and then left ("3pm-4"). Inside a range the
// borrowed meridiem flips when it would put the bounds out of order, so
// "11-1pm" starts at 11am.
func PropagateMeridiem(g entity.Group, _ Context) entity.Group {
	out := g.Clone()
	explicit := func(e entity.Entity) bool {
		return e.Kind == entity.KindDatetime && e.HasTime() && e.Time.Meridiem != entity.MeridiemNone
	}
	for i := range out.Entities {
		e := &out.Entities[i]
		if e.Kind != entity.KindDatetime || !e.Time.NeedsMeridiem() {
			continue
		}
		j, ok := nearest(g, i, true, explicit)
		if !ok {
			continue
		}
		e.Time.Meridiem = g.Entities[j].Time.Meridiem
		if g.PairedWith(i) == j {
			keepOrder(&e.Time, g.Entities[j].Time, i < j)
		}
	}
	return out
}

func keepOrder(t *entity.PartialTime, other entity.PartialTime, isStart bool) {
	h, _ := t.Hour24()
	o, _ := other.Hour24()
	if (isStart && h > o) || (!isStart && h < o) {
		if t.Meridiem == entity.PM {
			t.Meridiem = entity.AM
		} else {
			t.Meridiem = entity.PM
		}
	}
}

// PropagateDate fills dates from siblings, then from the reference instant.
// Partial dates borrow a missing month or year; time-only entities copy the
// nearest preceding explicit date, or the nearest following one. With
// inference on, a group with no date at all uses the reference date, moved
// one day along the direction policy when the first clock has already
// passed (or not yet come).
func PropagateDate(g entity.Group, c Context) entity.Group {
	out := g.Clone()
	for i := range out.Entities {
		e := &out.Entities[i]
		if e.Kind != entity.KindDatetime || !e.HasDate() || e.Date.Relative() || e.Date.Position != 0 {
			continue
		}
		if e.Date.Day.IsSet() && !e.Date.Month.IsSet() {
			if j, ok := nearest(g, i, false, hasCalendarMonth); ok {
				e.Date.Month = g.Entities[j].Date.Month
			}
		}
		if e.Date.Month.IsSet() && !e.Date.Year.IsSet() {
			if j, ok := nearest(g, i, false, hasCalendarYear); ok {
				e.Date.Year = g.Entities[j].Date.Year
				e.Date.TwoDigitYear = g.Entities[j].Date.TwoDigitYear
			}
		}
	}

	snapshot := out.Clone()
	var dateless []int
	for i := range out.Entities {
		e := &out.Entities[i]
		if e.Kind != entity.KindDatetime || e.HasDate() || !e.HasTime() || e.Now {
			continue
		}
		if j, ok := nearest(snapshot, i, false, entity.Entity.HasOwnDate); ok {
			e.Date = snapshot.Entities[j].Date
			e.Date.Source = entity.SourceInherited
			e.DateFrom = entity.Some(j)
			continue
		}
		dateless = append(dateless, i)
	}

	if !c.Infer || len(dateless) == 0 {
		return out
	}
	day := referenceDay(c, out.Entities[dateless[0]].Time)
	for _, i := range dateless {
		e := &out.Entities[i]
		setDate(&e.Date, day)
		e.Date.Source = entity.SourceReference
	}
	return out
}

func hasCalendarMonth(e entity.Entity) bool {
	return e.Kind == entity.KindDatetime && e.Date.Month.IsSet() && !e.Date.Relative()
}

func hasCalendarYear(e entity.Entity) bool {
	return e.Kind == entity.KindDatetime && e.Date.Year.IsSet() && !e.Date.Relative()
}

// referenceDay picks the reference date for a clock with no date.
func referenceDay(c Context, t entity.PartialTime) time.Time {
	today := c.today()
	at := clockOn(today, t)
	switch c.Direction {
	case Previous:
		if at.After(c.Now) {
			return today.AddDate(0, 0, -1)
		}
	case Nearest:
		best, bestGap := today, math.MaxFloat64
		for _, delta := range []int{0, 1, -1} {
			day := today.AddDate(0, 0, delta)
			gap := math.Abs(float64(clockOn(day, t).Sub(c.Now)))
			if gap < bestGap {
				best, bestGap = day, gap
			}
		}
		return best
	default:
		if at.Before(c.Now) {
			return today.AddDate(0, 0, 1)
		}
	}
	return today
}

// PropagateTime gives date-only members of a plain list the clock of the
// nearest member that has one, looking right first ("7/17 or 7/18 3pm").
func PropagateTime(g entity.Group, _ Context) entity.Group {
	if g.Kind != entity.GroupList || g.Ranged {
		return g
	}
	out := g.Clone()
	timed := func(e entity.Entity) bool {
		return e.Kind == entity.KindDatetime && e.HasTime()
	}
	for i := range out.Entities {
		e := &out.Entities[i]
		if e.Kind != entity.KindDatetime || !e.HasOwnDate() || e.HasTime() {
			continue
		}
		if j, ok := nearest(g, i, true, timed); ok {
			e.Time = g.Entities[j].Time
		}
	}
	return out
}

// ResolveRelative turns relative dates into calendar dates. Date names
// ("tomorrow") always resolve; weekdays, ordinal weekdays and modified
// month names only resolve with inference on.
func ResolveRelative(g entity.Group, c Context) entity.Group {
	out := g.Clone()
	for i := range out.Entities {
		e := &out.Entities[i]
		if e.Kind != entity.KindDatetime || e.Err != nil || e.DateFrom.IsSet() {
			continue
		}
		if e.Now {
			e.At = entity.Some(c.Now)
			continue
		}
		resolveDate(e, c)
	}
	syncInherited(&out)
	return out
}

func resolveDate(e *entity.Entity, c Context) {
	d := &e.Date
	if off, ok := d.Offset.Get(); ok {
		setDate(d, c.today().AddDate(0, 0, off))
		return
	}
	if !c.Infer {
		return
	}
	switch {
	case d.Position != 0 && d.Weekday.IsSet() && d.Month.IsSet():
		resolveNthWeekday(e, c)
	case d.Weekday.IsSet() && !d.Day.IsSet() && !d.Month.IsSet():
		resolveWeekday(e, c)
	case d.Modifier != entity.ModNone && d.Month.IsSet() && !d.Day.IsSet():
		resolveModifiedMonth(d, c)
	}
}

func resolveWeekday(e *entity.Entity, c Context) {
	wd, _ := e.Date.Weekday.Get()
	today := c.today()
	cur, target := int(today.Weekday()), int(wd)
	forward := (target - cur + 7) % 7
	backward := (cur - target + 7) % 7

	var delta int
	switch mod := e.Date.Modifier; {
	case mod.Forward():
		delta = forward
		if delta == 0 {
			delta = 7
		}
	case mod.Backward():
		delta = -backward
		if delta == 0 {
			delta = -7
		}
	case mod == entity.ModThis:
		// Weeks run Monday to Sunday.
		delta = (target+6)%7 - (cur+6)%7
	default:
		switch c.Direction {
		case Previous:
			delta = -backward
			if delta == 0 && e.HasTime() && clockOn(today, e.Time).After(c.Now) {
				delta = -7
			}
		case Nearest:
			delta = forward
			if backward < forward {
				delta = -backward
			}
		default:
			delta = forward
			if delta == 0 && e.HasTime() && clockOn(today, e.Time).Before(c.Now) {
				delta = 7
			}
		}
	}
	setDate(&e.Date, today.AddDate(0, 0, delta))
}

func resolveNthWeekday(e *entity.Entity, c Context) {
	d := &e.Date
	wd, _ := d.Weekday.Get()
	m, _ := d.Month.Get()
	y, explicitYear := d.Year.Get()
	if !explicitYear {
		y = c.Now.Year()
	} else if d.TwoDigitYear {
		y = ExpandYear(y)
	}

	day, ok := nthWeekday(y, time.Month(m), wd, d.Position, c.Now.Location())
	if !explicitYear && ok {
		today := c.today()
		switch c.Direction {
		case Next:
			if day.Before(today) {
				day, ok = nthWeekday(y+1, time.Month(m), wd, d.Position, c.Now.Location())
			}
		case Previous:
			if day.After(today) {
				day, ok = nthWeekday(y-1, time.Month(m), wd, d.Position, c.Now.Location())
			}
		}
	}
	if !ok {
		e.Err = terrors.Unresolved(fmt.Sprintf("%s %d has no occurrence %d of %s", time.Month(m), y, d.Position, wd))
		return
	}
	setDate(d, day)
}

// nthWeekday finds the nth weekday of a month, or the last one for PositionLast.
func nthWeekday(year int, month time.Month, wd time.Weekday, n int, loc *time.Location) (time.Time, bool) {
	if n == entity.PositionLast {
		last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc)
		back := (int(last.Weekday()) - int(wd) + 7) % 7
		return last.AddDate(0, 0, -back), true
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	forward := (int(wd) - int(first.Weekday()) + 7) % 7
	day := first.AddDate(0, 0, forward+7*(n-1))
	return day, day.Month() == month
}

func resolveModifiedMonth(d *entity.PartialDate, c Context) {
	m, _ := d.Month.Get()
	cur := int(c.Now.Month())
	y := c.Now.Year()
	switch {
	case d.Modifier.Forward() && m <= cur:
		y++
	case d.Modifier.Backward() && m >= cur:
		y--
	}
	d.Year = entity.Some(y)
	d.TwoDigitYear = false
}

// PropagateZone gives each entity the nearest explicit zone, looking right
// first, then falls back to the reference zone when inference is on.
func PropagateZone(g entity.Group, c Context) entity.Group {
	out := g.Clone()
	explicit := func(e entity.Entity) bool {
		return e.ExplicitZone && e.Zone.IsSet()
	}
	for i := range out.Entities {
		e := &out.Entities[i]
		if e.Kind != entity.KindDatetime || e.Zone.IsSet() {
			continue
		}
		if j, ok := nearest(g, i, true, explicit); ok {
			e.Zone = g.Entities[j].Zone
			continue
		}
		if c.Infer {
			loc := c.Now.Location()
			e.Zone = entity.Zone{Name: loc.String(), Location: loc}
		}
	}
	return out
}

// FillDefaults expands two-digit years, then, with inference on, defaults
// the year along the direction policy, the month for a bare day, the day
// for a bare month, and zero clock fields.
func FillDefaults(g entity.Group, c Context) entity.Group {
	out := g.Clone()
	for i := range out.Entities {
		e := &out.Entities[i]
		if e.Kind != entity.KindDatetime || e.Err != nil {
			continue
		}
		if y, ok := e.Date.Year.Get(); ok && e.Date.TwoDigitYear {
			e.Date.Year = entity.Some(ExpandYear(y))
			e.Date.TwoDigitYear = false
		}
		if !c.Infer {
			continue
		}
		if !e.DateFrom.IsSet() {
			defaultDate(&e.Date, c)
		}
		if e.HasTime() {
			e.Time.Minute = entity.Some(e.Time.Minute.Or(0))
			e.Time.Second = entity.Some(e.Time.Second.Or(0))
			e.Time.Millisecond = entity.Some(e.Time.Millisecond.Or(0))
		}
	}
	syncInherited(&out)
	return out
}

func defaultDate(d *entity.PartialDate, c Context) {
	if d.Offset.IsSet() || (d.Weekday.IsSet() && !d.Day.IsSet()) {
		return
	}
	if day, ok := d.Day.Get(); ok && !d.Month.IsSet() {
		y, m := rollMonth(c, day)
		d.Year, d.Month = entity.Some(y), entity.Some(m)
	}
	if m, ok := d.Month.Get(); ok && !d.Year.IsSet() {
		d.Year = entity.Some(rollYear(c, m, d.Day.Or(1)))
	}
	if d.Month.IsSet() && !d.Day.IsSet() && d.Year.IsSet() {
		d.Day = entity.Some(1)
	}
}

// rollYear picks the year for a month and day, compared at date granularity.
func rollYear(c Context, month, day int) int {
	today := c.today()
	y := today.Year()
	at := func(y int) time.Time {
		return time.Date(y, time.Month(month), day, 0, 0, 0, 0, today.Location())
	}
	switch c.Direction {
	case Previous:
		if at(y).After(today) {
			return y - 1
		}
	case Nearest:
		best, bestGap := y, math.MaxFloat64
		for _, cand := range []int{y, y + 1, y - 1} {
			if gap := math.Abs(float64(at(cand).Sub(today))); gap < bestGap {
				best, bestGap = cand, gap
			}
		}
		return best
	default:
		if at(y).Before(today) {
			return y + 1
		}
	}
	return y
}

// rollMonth picks the year and month for a bare day of the month.
func rollMonth(c Context, day int) (int, int) {
	today := c.today()
	y, m := today.Year(), int(today.Month())
	shift := func(delta int) (int, int) {
		t := time.Date(y, time.Month(m+delta), 1, 0, 0, 0, 0, today.Location())
		return t.Year(), int(t.Month())
	}
	switch c.Direction {
	case Previous:
		if day > today.Day() {
			return shift(-1)
		}
	case Nearest:
		by, bm, bestGap := y, m, math.MaxFloat64
		for _, delta := range []int{0, 1, -1} {
			cy, cm := shift(delta)
			at := time.Date(cy, time.Month(cm), day, 0, 0, 0, 0, today.Location())
			if gap := math.Abs(float64(at.Sub(today))); gap < bestGap {
				by, bm, bestGap = cy, cm, gap
			}
		}
		return by, bm
	default:
		if day < today.Day() {
			return shift(1)
		}
	}
	return y, m
}

// ResolveDurations anchors signed durations to the reference instant when
// inference is on. Unsigned durations stay raw offsets.
func ResolveDurations(g entity.Group, c Context) entity.Group {
	if !c.Infer {
		return g
	}
	out := g.Clone()
	for i := range out.Entities {
		e := &out.Entities[i]
		if e.Kind != entity.KindDuration || e.Err != nil || e.Duration.Sign == entity.SignNone {
			continue
		}
		e.At = entity.Some(c.Now.Add(e.Duration.Signed()))
	}
	return out
}
