package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	terrors "github.com/hrygo/whenparse/internal/errors"
	"github.com/hrygo/whenparse/plugin/temporal/entity"
	"github.com/hrygo/whenparse/plugin/temporal/grammar"
)

func groups(t *testing.T, text string) []entity.Group {
	t.Helper()
	f := grammar.Parse(grammar.Lexer{}.Tokenize(text))
	return Transform(f.Expressions)
}

func single(t *testing.T, text string) entity.Entity {
	t.Helper()
	gs := groups(t, text)
	require.Len(t, gs, 1)
	require.Equal(t, entity.GroupSingle, gs[0].Kind)
	return gs[0].Entities[0]
}

func TestDatetime(t *testing.T) {
	t.Run("numeric date with two-digit year", func(t *testing.T) {
		e := single(t, "7/17/18")
		assert.Equal(t, 7, e.Date.Month.Or(0))
		assert.Equal(t, 17, e.Date.Day.Or(0))
		assert.Equal(t, 18, e.Date.Year.Or(0))
		assert.True(t, e.Date.TwoDigitYear)
	})

	t.Run("clock with meridiem", func(t *testing.T) {
		e := single(t, "3:30 pm")
		assert.Equal(t, 3, e.Time.Hour.Or(0))
		assert.Equal(t, 30, e.Time.Minute.Or(0))
		assert.Equal(t, entity.PM, e.Time.Meridiem)
	})

	t.Run("leading zero clock is 24h", func(t *testing.T) {
		e := single(t, "09:15")
		assert.True(t, e.Time.Clock24)
		assert.False(t, e.Time.NeedsMeridiem())
	})

	t.Run("plain clock needs a meridiem", func(t *testing.T) {
		assert.True(t, single(t, "9:15").Time.NeedsMeridiem())
	})

	t.Run("fractional seconds", func(t *testing.T) {
		e := single(t, "2018-08-04T14:30:05.25")
		assert.Equal(t, 5, e.Time.Second.Or(0))
		assert.Equal(t, 250, e.Time.Millisecond.Or(0))
	})

	t.Run("time name", func(t *testing.T) {
		e := single(t, "noon")
		assert.Equal(t, 12, e.Time.Hour.Or(0))
		assert.True(t, e.Time.Clock24)
	})

	t.Run("date name", func(t *testing.T) {
		e := single(t, "tomorrow at 5pm")
		assert.Equal(t, 1, e.Date.Offset.Or(0))
		assert.Equal(t, entity.SourceName, e.Date.Source)
		assert.Equal(t, entity.PM, e.Time.Meridiem)
	})

	t.Run("tonight defaults to evening", func(t *testing.T) {
		e := single(t, "tonight")
		assert.Equal(t, 0, e.Date.Offset.Or(-1))
		assert.Equal(t, 21, e.Time.Hour.Or(0))

		e = single(t, "tonight at 8")
		assert.Equal(t, 8, e.Time.Hour.Or(0))
		assert.Equal(t, entity.PM, e.Time.Meridiem)
	})

	t.Run("now", func(t *testing.T) {
		assert.True(t, single(t, "now").Now)
	})

	t.Run("modified weekday", func(t *testing.T) {
		e := single(t, "next Tuesday")
		assert.Equal(t, time.Tuesday, e.Date.Weekday.Or(time.Sunday))
		assert.Equal(t, entity.ModNext, e.Date.Modifier)
	})

	t.Run("ordinal weekday", func(t *testing.T) {
		e := single(t, "2nd Friday of March 2025")
		assert.Equal(t, 2, e.Date.Position)
		assert.Equal(t, 3, e.Date.Month.Or(0))
		assert.Equal(t, 2025, e.Date.Year.Or(0))
		assert.Equal(t, time.Friday, e.Date.Weekday.Or(time.Sunday))

		e = single(t, "last Monday of August")
		assert.Equal(t, entity.PositionLast, e.Date.Position)
	})

	t.Run("month name and day", func(t *testing.T) {
		for text, want := range map[string][2]int{"July 4": {7, 4}, "Aug 5": {8, 5}, "Jan 1": {1, 1}} {
			e := single(t, text)
			assert.Equal(t, want[0], e.Date.Month.Or(0), text)
			assert.Equal(t, want[1], e.Date.Day.Or(0), text)
			assert.False(t, e.HasTime(), text)
		}
	})

	t.Run("day only", func(t *testing.T) {
		e := single(t, "the 5th")
		assert.Equal(t, 5, e.Date.Day.Or(0))
		assert.False(t, e.Date.Month.IsSet())
	})
}

func TestZone(t *testing.T) {
	t.Run("abbreviation", func(t *testing.T) {
		e := single(t, "5pm EST")
		require.NoError(t, e.Err)
		assert.True(t, e.ExplicitZone)
		assert.Equal(t, "EST", e.Zone.Name)
	})

	t.Run("iso z", func(t *testing.T) {
		e := single(t, "2018-08-04T14:30Z")
		assert.Equal(t, time.UTC, e.Zone.Location)
	})

	t.Run("iso offset", func(t *testing.T) {
		e := single(t, "2018-08-04T14:30+05:30")
		require.NoError(t, e.Err)
		_, offset := time.Date(2018, 8, 4, 0, 0, 0, 0, e.Zone.Location).Zone()
		assert.Equal(t, 5*3600+30*60, offset)
	})

	t.Run("utc with offset", func(t *testing.T) {
		e := single(t, "5pm UTC-3")
		require.NoError(t, e.Err)
		assert.Equal(t, "UTC-03:00", e.Zone.Name)
	})
}

func TestDuration(t *testing.T) {
	tests := []struct {
		text  string
		total time.Duration
		sign  entity.Sign
	}{
		{"3 days", 72 * time.Hour, entity.SignNone},
		{"in 2 hours", 2 * time.Hour, entity.SignFuture},
		{"an hour ago", time.Hour, entity.SignPast},
		{"1 hour 30 minutes later", 90 * time.Minute, entity.SignFuture},
		{"two weeks from now", 14 * 24 * time.Hour, entity.SignFuture},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			gs := groups(t, tt.text)
			require.Len(t, gs, 1)
			e := gs[0].Entities[0]
			require.Equal(t, entity.KindDuration, e.Kind)
			assert.Equal(t, tt.total, e.Duration.Total())
			assert.Equal(t, tt.sign, e.Duration.Sign)
		})
	}

	t.Run("future and past contradict", func(t *testing.T) {
		e := single(t, "in 2 days ago")
		assert.True(t, terrors.IsCode(e.Err, terrors.ErrCodeContradiction))
	})
}

func TestGroupShapes(t *testing.T) {
	gs := groups(t, "7/17 4-5 or 5-6 PM")
	require.Len(t, gs, 1)
	g := gs[0]
	assert.Equal(t, entity.GroupList, g.Kind)
	assert.True(t, g.Ranged)
	require.Len(t, g.Entities, 4)
	assert.Equal(t, entity.KindAmbiguous, g.Entities[1].Kind)
	assert.Equal(t, 5, g.Entities[1].Value)
	assert.Equal(t, 1, g.PairedWith(0))

	gs = groups(t, "3pm or 4pm")
	require.Len(t, gs, 1)
	assert.Equal(t, entity.GroupList, gs[0].Kind)
	assert.False(t, gs[0].Ranged)

	gs = groups(t, "Monday to Friday")
	require.Len(t, gs, 1)
	assert.Equal(t, entity.GroupRange, gs[0].Kind)
}

func TestMillis(t *testing.T) {
	assert.Equal(t, 500, millis("5"))
	assert.Equal(t, 123, millis("123456"))
	assert.Equal(t, 40, millis("04"))
}
