package infer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	terrors "github.com/hrygo/whenparse/internal/errors"
	"github.com/hrygo/whenparse/plugin/temporal/entity"
)

// Wednesday, 10 July 2024, 15:00 UTC.
var refNow = time.Date(2024, 7, 10, 15, 0, 0, 0, time.UTC)

func inferCtx(dir Direction) Context {
	return Context{Now: refNow, Direction: dir, Infer: true}
}

func clock(h int, m entity.Meridiem) entity.Entity {
	return entity.Entity{Kind: entity.KindDatetime, Time: entity.PartialTime{Hour: entity.Some(h), Meridiem: m}}
}

func monthDay(m, d int) entity.Entity {
	return entity.Entity{Kind: entity.KindDatetime, Date: entity.PartialDate{Month: entity.Some(m), Day: entity.Some(d)}}
}

func weekday(wd time.Weekday, mod entity.Modifier) entity.Entity {
	return entity.Entity{Kind: entity.KindDatetime, Date: entity.PartialDate{Weekday: entity.Some(wd), Modifier: mod}}
}

func rangeOf(a, b entity.Entity) entity.Group {
	return entity.Group{Kind: entity.GroupRange, Entities: []entity.Entity{a, b}}
}

func run(t *testing.T, g entity.Group, c Context) entity.ResolvedGroup {
	t.Helper()
	out := NewPipeline(nil).Run(context.Background(), []entity.Group{g}, c)
	require.Len(t, out, 1)
	return out[0]
}

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestExpandYear(t *testing.T) {
	assert.Equal(t, 2049, ExpandYear(49))
	assert.Equal(t, 1950, ExpandYear(50))
	assert.Equal(t, 2000, ExpandYear(0))
	assert.Equal(t, 1999, ExpandYear(99))
	assert.Equal(t, 2024, ExpandYear(2024))
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"", Next, false},
		{"next", Next, false},
		{"Previous", Previous, false},
		{"nearest", Nearest, false},
		{"sideways", Next, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if tt.wantErr {
				assert.True(t, terrors.IsCode(err, terrors.ErrCodeInvalidConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPropagateMeridiem(t *testing.T) {
	t.Run("right bound lends its meridiem", func(t *testing.T) {
		g := PropagateMeridiem(rangeOf(clock(3, entity.MeridiemNone), clock(4, entity.PM)), Context{})
		assert.Equal(t, entity.PM, g.Entities[0].Time.Meridiem)
	})

	t.Run("left bound lends when right has none", func(t *testing.T) {
		g := PropagateMeridiem(rangeOf(clock(3, entity.PM), clock(4, entity.MeridiemNone)), Context{})
		assert.Equal(t, entity.PM, g.Entities[1].Time.Meridiem)
	})

	t.Run("flips to keep range order", func(t *testing.T) {
		g := PropagateMeridiem(rangeOf(clock(11, entity.MeridiemNone), clock(1, entity.PM)), Context{})
		assert.Equal(t, entity.AM, g.Entities[0].Time.Meridiem)
	})

	t.Run("input is not modified", func(t *testing.T) {
		in := rangeOf(clock(3, entity.MeridiemNone), clock(4, entity.PM))
		_ = PropagateMeridiem(in, Context{})
		assert.Equal(t, entity.MeridiemNone, in.Entities[0].Time.Meridiem)
	})
}

func TestResolveAmbiguous(t *testing.T) {
	ambiguous := entity.Entity{Kind: entity.KindAmbiguous, Value: 3}

	t.Run("hour from a time sibling", func(t *testing.T) {
		g := ResolveAmbiguous(rangeOf(ambiguous, clock(4, entity.PM)), Context{})
		assert.Equal(t, entity.KindDatetime, g.Entities[0].Kind)
		assert.Equal(t, 3, g.Entities[0].Time.Hour.Or(0))
	})

	t.Run("day from a date sibling", func(t *testing.T) {
		g := ResolveAmbiguous(rangeOf(monthDay(7, 1), ambiguous), Context{})
		assert.Equal(t, 3, g.Entities[1].Date.Day.Or(0))
	})

	t.Run("amount from a duration sibling", func(t *testing.T) {
		dur := entity.Entity{Kind: entity.KindDuration, Duration: entity.DurationSpec{
			Parts: []entity.DurationPart{{Amount: 4, Unit: entity.UnitHour}},
		}}
		g := ResolveAmbiguous(rangeOf(ambiguous, dur), Context{})
		require.Equal(t, entity.KindDuration, g.Entities[0].Kind)
		assert.Equal(t, 3*time.Hour, g.Entities[0].Duration.Total())
	})

	t.Run("alone it stays ambiguous and is dropped", func(t *testing.T) {
		g := entity.Group{Kind: entity.GroupSingle, Entities: []entity.Entity{ambiguous}}
		out := NewPipeline(nil).Run(context.Background(), []entity.Group{g}, inferCtx(Next))
		assert.Empty(t, out)
	})
}

func TestPropagateDate(t *testing.T) {
	t.Run("time inherits preceding date", func(t *testing.T) {
		g := entity.Group{Kind: entity.GroupList, Entities: []entity.Entity{
			{Kind: entity.KindDatetime, Date: entity.PartialDate{Month: entity.Some(7), Day: entity.Some(17)}, Time: entity.PartialTime{Hour: entity.Some(4), Meridiem: entity.PM}},
			clock(5, entity.PM),
		}}
		out := PropagateDate(g, Context{})
		assert.Equal(t, 17, out.Entities[1].Date.Day.Or(0))
		assert.Equal(t, entity.SourceInherited, out.Entities[1].Date.Source)
		assert.Equal(t, 0, out.Entities[1].DateFrom.Or(-1))
	})

	t.Run("bare day borrows month", func(t *testing.T) {
		day := entity.Entity{Kind: entity.KindDatetime, Date: entity.PartialDate{Day: entity.Some(5)}}
		out := PropagateDate(rangeOf(monthDay(7, 1), day), Context{})
		assert.Equal(t, 7, out.Entities[1].Date.Month.Or(0))
	})

	t.Run("reference date without inference is left alone", func(t *testing.T) {
		out := PropagateDate(entity.Group{Entities: []entity.Entity{clock(2, entity.PM)}}, Context{Now: refNow})
		assert.False(t, out.Entities[0].HasDate())
	})
}

func TestReferenceDay(t *testing.T) {
	twoPM := entity.PartialTime{Hour: entity.Some(2), Meridiem: entity.PM}
	fourPM := entity.PartialTime{Hour: entity.Some(4), Meridiem: entity.PM}

	assert.Equal(t, 11, referenceDay(inferCtx(Next), twoPM).Day())
	assert.Equal(t, 10, referenceDay(inferCtx(Next), fourPM).Day())
	assert.Equal(t, 10, referenceDay(inferCtx(Previous), twoPM).Day())
	assert.Equal(t, 9, referenceDay(inferCtx(Previous), fourPM).Day())
	assert.Equal(t, 10, referenceDay(inferCtx(Nearest), twoPM).Day())
}

func TestResolveWeekday(t *testing.T) {
	tests := []struct {
		name string
		in   entity.Entity
		dir  Direction
		want int
	}{
		{"next same weekday skips a week", weekday(time.Wednesday, entity.ModNext), Next, 17},
		{"last same weekday goes back a week", weekday(time.Wednesday, entity.ModLast), Next, 3},
		{"bare monday looks forward", weekday(time.Monday, entity.ModNone), Next, 15},
		{"bare monday looks back", weekday(time.Monday, entity.ModNone), Previous, 8},
		{"this monday stays in the week", weekday(time.Monday, entity.ModThis), Next, 8},
		{"this sunday ends the week", weekday(time.Sunday, entity.ModThis), Next, 14},
		{"nearest picks the closer side", weekday(time.Monday, entity.ModNone), Nearest, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ResolveRelative(entity.Group{Entities: []entity.Entity{tt.in}}, inferCtx(tt.dir))
			assert.Equal(t, tt.want, out.Entities[0].Date.Day.Or(0))
			assert.Equal(t, 7, out.Entities[0].Date.Month.Or(0))
		})
	}

	t.Run("today at a passed hour rolls a week", func(t *testing.T) {
		e := weekday(time.Wednesday, entity.ModNone)
		e.Time = entity.PartialTime{Hour: entity.Some(9), Meridiem: entity.AM}
		out := ResolveRelative(entity.Group{Entities: []entity.Entity{e}}, inferCtx(Next))
		assert.Equal(t, 17, out.Entities[0].Date.Day.Or(0))
	})

	t.Run("weekday stays relative without inference", func(t *testing.T) {
		out := ResolveRelative(entity.Group{Entities: []entity.Entity{weekday(time.Monday, entity.ModNone)}}, Context{Now: refNow})
		assert.False(t, out.Entities[0].Date.Day.IsSet())
	})
}

func TestNthWeekday(t *testing.T) {
	day, ok := nthWeekday(2024, time.August, time.Monday, entity.PositionLast, time.UTC)
	require.True(t, ok)
	assert.Equal(t, 26, day.Day())

	day, ok = nthWeekday(2024, time.July, time.Thursday, 1, time.UTC)
	require.True(t, ok)
	assert.Equal(t, 4, day.Day())

	_, ok = nthWeekday(2023, time.February, time.Monday, 5, time.UTC)
	assert.False(t, ok)
}

func TestResolveNthWeekdayOutOfMonth(t *testing.T) {
	e := entity.Entity{Kind: entity.KindDatetime, Date: entity.PartialDate{
		Year: entity.Some(2023), Month: entity.Some(2), Weekday: entity.Some(time.Monday), Position: 5,
	}}
	rg := run(t, entity.Group{Entities: []entity.Entity{e}}, inferCtx(Next))
	require.Error(t, rg.Values[0].Err)
	assert.True(t, terrors.IsCode(rg.Values[0].Err, terrors.ErrCodeUnresolved))
}

func TestRollYear(t *testing.T) {
	assert.Equal(t, 2025, rollYear(inferCtx(Next), 3, 1))
	assert.Equal(t, 2024, rollYear(inferCtx(Next), 7, 10))
	assert.Equal(t, 2024, rollYear(inferCtx(Next), 9, 1))
	assert.Equal(t, 2023, rollYear(inferCtx(Previous), 9, 1))
	assert.Equal(t, 2024, rollYear(inferCtx(Nearest), 3, 1))
	assert.Equal(t, 2025, rollYear(inferCtx(Nearest), 1, 2))
}

func TestRollMonth(t *testing.T) {
	y, m := rollMonth(inferCtx(Next), 5)
	assert.Equal(t, []int{2024, 8}, []int{y, m})
	y, m = rollMonth(inferCtx(Previous), 20)
	assert.Equal(t, []int{2024, 6}, []int{y, m})
	y, m = rollMonth(inferCtx(Next), 10)
	assert.Equal(t, []int{2024, 7}, []int{y, m})

	// Nearest picks whichever month puts the day closest to today.
	y, m = rollMonth(inferCtx(Nearest), 12)
	assert.Equal(t, []int{2024, 7}, []int{y, m})
	y, m = rollMonth(inferCtx(Nearest), 28)
	assert.Equal(t, []int{2024, 6}, []int{y, m})

	late := Context{Now: time.Date(2018, 8, 30, 14, 0, 0, 0, time.UTC), Direction: Nearest, Infer: true}
	y, m = rollMonth(late, 3)
	assert.Equal(t, []int{2018, 9}, []int{y, m})
	y, m = rollMonth(late, 28)
	assert.Equal(t, []int{2018, 8}, []int{y, m})

	dec := Context{Now: time.Date(2018, 12, 30, 9, 0, 0, 0, time.UTC), Direction: Nearest, Infer: true}
	y, m = rollMonth(dec, 2)
	assert.Equal(t, []int{2019, 1}, []int{y, m})
}

func TestFinalize(t *testing.T) {
	t.Run("invalid day of month", func(t *testing.T) {
		e := entity.Entity{Kind: entity.KindDatetime, Date: entity.PartialDate{
			Year: entity.Some(2018), Month: entity.Some(2), Day: entity.Some(30),
		}}
		rg := run(t, entity.Group{Entities: []entity.Entity{e}}, inferCtx(Next))
		assert.True(t, terrors.IsCode(rg.Values[0].Err, terrors.ErrCodeInvalidDate))
	})

	t.Run("weekday contradicts date", func(t *testing.T) {
		e := entity.Entity{Kind: entity.KindDatetime, Date: entity.PartialDate{
			Year: entity.Some(2024), Month: entity.Some(7), Day: entity.Some(10), Weekday: entity.Some(time.Monday),
		}}
		rg := run(t, entity.Group{Entities: []entity.Entity{e}}, inferCtx(Next))
		assert.True(t, terrors.IsCode(rg.Values[0].Err, terrors.ErrCodeContradiction))
	})

	t.Run("range end past midnight rolls a day", func(t *testing.T) {
		rg := run(t, rangeOf(clock(11, entity.PM), clock(1, entity.AM)), inferCtx(Next))
		require.Equal(t, entity.GroupRange, rg.Kind)
		assert.Equal(t, at(2024, 7, 10, 23, 0), rg.Values[0].Time)
		assert.Equal(t, at(2024, 7, 11, 1, 0), rg.Values[1].Time)
	})

	t.Run("range with a dropped bound degrades to single", func(t *testing.T) {
		g := rangeOf(entity.Entity{Kind: entity.KindAmbiguous, Value: 77}, monthDay(7, 17))
		rg := run(t, g, inferCtx(Next))
		assert.Equal(t, entity.GroupSingle, rg.Kind)
		require.Len(t, rg.Values, 1)
		assert.Equal(t, entity.ValueDate, rg.Values[0].Kind)
	})

	t.Run("time without inference", func(t *testing.T) {
		rg := run(t, entity.Group{Entities: []entity.Entity{clock(3, entity.PM)}}, Context{Now: refNow})
		assert.Equal(t, entity.ValueTime, rg.Values[0].Kind)
		assert.Equal(t, "15:00", rg.Values[0].String())
	})

	t.Run("partial without inference", func(t *testing.T) {
		rg := run(t, entity.Group{Entities: []entity.Entity{monthDay(7, 17)}}, Context{Now: refNow})
		assert.Equal(t, entity.ValuePartial, rg.Values[0].Kind)
		assert.Equal(t, 17, rg.Values[0].Date.Day.Or(0))
	})
}

func TestPipelineDatesAndDurations(t *testing.T) {
	t.Run("inherited date list", func(t *testing.T) {
		g := entity.Group{Kind: entity.GroupList, Entities: []entity.Entity{
			{Kind: entity.KindDatetime, Date: entity.PartialDate{Month: entity.Some(7), Day: entity.Some(17)}, Time: entity.PartialTime{Hour: entity.Some(4)}},
			clock(5, entity.PM),
		}}
		rg := run(t, g, inferCtx(Next))
		require.Equal(t, entity.GroupList, rg.Kind)
		assert.Equal(t, at(2024, 7, 17, 16, 0), rg.Values[0].Time)
		assert.Equal(t, at(2024, 7, 17, 17, 0), rg.Values[1].Time)
	})

	t.Run("signed duration anchors to now", func(t *testing.T) {
		e := entity.Entity{Kind: entity.KindDuration, Duration: entity.DurationSpec{
			Parts: []entity.DurationPart{{Amount: 2, Unit: entity.UnitDay}},
			Sign:  entity.SignPast,
		}}
		rg := run(t, entity.Group{Entities: []entity.Entity{e}}, inferCtx(Next))
		assert.Equal(t, entity.ValueDateTime, rg.Values[0].Kind)
		assert.Equal(t, at(2024, 7, 8, 15, 0), rg.Values[0].Time)
	})

	t.Run("signed duration stays raw without inference", func(t *testing.T) {
		e := entity.Entity{Kind: entity.KindDuration, Duration: entity.DurationSpec{
			Parts: []entity.DurationPart{{Amount: 2, Unit: entity.UnitDay}},
			Sign:  entity.SignPast,
		}}
		rg := run(t, entity.Group{Entities: []entity.Entity{e}}, Context{Now: refNow})
		assert.Equal(t, entity.ValueDuration, rg.Values[0].Kind)
		assert.Equal(t, -48*time.Hour, rg.Values[0].Duration)
	})

	t.Run("tomorrow resolves without inference", func(t *testing.T) {
		e := entity.Entity{Kind: entity.KindDatetime, Date: entity.PartialDate{Offset: entity.Some(1), Source: entity.SourceName}}
		rg := run(t, entity.Group{Entities: []entity.Entity{e}}, Context{Now: refNow})
		assert.Equal(t, entity.ValueDate, rg.Values[0].Kind)
		assert.Equal(t, at(2024, 7, 11, 0, 0), rg.Values[0].Time)
	})

	t.Run("next july gets a year and first day", func(t *testing.T) {
		e := entity.Entity{Kind: entity.KindDatetime, Date: entity.PartialDate{Month: entity.Some(7), Modifier: entity.ModNext}}
		rg := run(t, entity.Group{Entities: []entity.Entity{e}}, inferCtx(Next))
		assert.Equal(t, at(2025, 7, 1, 0, 0), rg.Values[0].Time)
	})

	t.Run("zone propagates right to left", func(t *testing.T) {
		est := time.FixedZone("EST", -5*3600)
		end := clock(4, entity.PM)
		end.Zone, end.ExplicitZone = entity.Zone{Name: "EST", Location: est}, true
		rg := run(t, rangeOf(clock(3, entity.MeridiemNone), end), Context{Now: refNow})
		assert.True(t, rg.Values[0].HasZone)
		assert.Equal(t, est, rg.Values[0].Time.Location())
	})
}
