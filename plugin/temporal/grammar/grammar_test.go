package grammar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(text string) *Forest {
	return Parse(Lexer{}.Tokenize(text))
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		text  string
		texts []string
		kinds []Kind
	}{
		{"3pm", []string{"3", "pm"}, []Kind{KindNumber, KindMeridiem}},
		{"Mar 3rd", []string{"Mar", "3", "rd"}, []Kind{KindMonth, KindNumber, KindSuffix}},
		{"7/17/18", []string{"7", "/", "17", "/", "18"}, []Kind{KindNumber, KindPunct, KindNumber, KindPunct, KindNumber}},
		{"twenty-five minutes", []string{"twenty-five", "minutes"}, []Kind{KindNumberWord, KindUnit}},
		{"5 o'clock", []string{"5", "o'clock"}, []Kind{KindNumber, KindOClock}},
		{"3 a.m.", []string{"3", "a.m."}, []Kind{KindNumber, KindMeridiem}},
		{"next Friday", []string{"next", "Friday"}, []Kind{KindModifier, KindWeekday}},
		{"3–4", []string{"3", "–", "4"}, []Kind{KindNumber, KindPunct, KindNumber}},
		{"at 5 EST", []string{"at", "5", "EST"}, []Kind{KindKeyword, KindNumber, KindZone}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			tokens := Lexer{}.Tokenize(tt.text)
			require.Len(t, tokens, len(tt.texts))
			for i, tok := range tokens {
				assert.Equal(t, tt.texts[i], tok.Text)
				assert.True(t, tok.Is(tt.kinds[i]), "token %q has kinds %s", tok.Text, tok.Kinds)
			}
		})
	}
}

func TestTokenizeCoversInput(t *testing.T) {
	text := "Meet me 7/17 @ 3:30pm, or tmrw — maybe ¯\\_(ツ)_/¯"
	tokens := Lexer{}.Tokenize(text)
	var rebuilt strings.Builder
	prev := 0
	for _, tok := range tokens {
		require.GreaterOrEqual(t, tok.Span.Start, prev)
		assert.Equal(t, tok.Text, text[tok.Span.Start:tok.Span.End])
		assert.Empty(t, strings.TrimSpace(text[prev:tok.Span.Start]))
		rebuilt.WriteString(tok.Text)
		prev = tok.Span.End
	}
	assert.Equal(t, strings.Join(strings.Fields(text), ""), rebuilt.String())
}

func TestTokenizeWeakNames(t *testing.T) {
	tokens := Lexer{}.Tokenize("may May")
	require.Len(t, tokens, 2)
	assert.True(t, tokens[0].Weak)
	assert.False(t, tokens[1].Weak)
}

func TestTokenizeFuzzy(t *testing.T) {
	tokens := Lexer{Fuzzy: true}.Tokenize("Wednesdy")
	require.Len(t, tokens, 1)
	assert.True(t, tokens[0].Is(KindWeekday))
	assert.Equal(t, "wednesday", tokens[0].Lower)

	tokens = Lexer{}.Tokenize("Wednesdy")
	assert.True(t, tokens[0].Is(KindUnknown))
}

func TestParseShapes(t *testing.T) {
	t.Run("range with shared meridiem", func(t *testing.T) {
		f := parse("3-4pm")
		require.Len(t, f.Expressions, 1)
		r, ok := f.Expressions[0].(*RangeNode)
		require.True(t, ok)
		assert.IsType(t, &AmbiguousNode{}, r.From)
		assert.IsType(t, &DatetimeNode{}, r.To)
	})

	t.Run("list of ranges", func(t *testing.T) {
		f := parse("7/17 4-5 or 5-6 PM")
		require.Len(t, f.Expressions, 1)
		l, ok := f.Expressions[0].(*ListNode)
		require.True(t, ok)
		assert.True(t, l.Ranged())
		assert.Len(t, l.Items, 2)
		assert.Empty(t, f.Unknown)
	})

	t.Run("iso datetime with zone", func(t *testing.T) {
		f := parse("2018-08-04T14:30:00Z")
		require.Len(t, f.Expressions, 1)
		d, ok := f.Expressions[0].(*DatetimeNode)
		require.True(t, ok)
		require.NotNil(t, d.Date)
		require.NotNil(t, d.Time)
		require.NotNil(t, d.Zone)
		assert.Equal(t, DateYMD, d.Date.Form)
		assert.Equal(t, "00", d.Time.Second.Text)
	})

	t.Run("offset is not a zone outside iso", func(t *testing.T) {
		f := parse("3:00-04:00")
		require.Len(t, f.Expressions, 1)
		assert.IsType(t, &RangeNode{}, f.Expressions[0])
	})

	t.Run("ordinal weekday of month", func(t *testing.T) {
		f := parse("last Monday of August")
		require.Len(t, f.Expressions, 1)
		d := f.Expressions[0].(*DatetimeNode)
		assert.Equal(t, DateNthWeekday, d.Date.Form)
	})

	t.Run("compound duration", func(t *testing.T) {
		f := parse("in 1 hour and 30 minutes")
		require.Len(t, f.Expressions, 1)
		d, ok := f.Expressions[0].(*DurationNode)
		require.True(t, ok)
		assert.Len(t, d.Parts, 2)
		assert.NotNil(t, d.Future)
	})

	t.Run("weekday before date", func(t *testing.T) {
		f := parse("Monday, July 17th at 3pm")
		require.Len(t, f.Expressions, 1)
		d := f.Expressions[0].(*DatetimeNode)
		assert.Equal(t, DateWeekdayDate, d.Date.Form)
		assert.NotNil(t, d.Time)
	})

	t.Run("weak month needs a cue", func(t *testing.T) {
		assert.Empty(t, parse("may I help you").Expressions)
		assert.Len(t, parse("may 5").Expressions, 1)
	})

	t.Run("separate expressions", func(t *testing.T) {
		f := parse("lunch at noon then dinner tomorrow at 7pm")
		require.Len(t, f.Expressions, 2)
		assert.Equal(t, "noon", f.Tokens[2].Text)
	})
}

func TestParseMonthDay(t *testing.T) {
	tests := []struct {
		text  string
		month string
		day   string
	}{
		{"July 4", "July", "4"},
		{"Aug 5", "Aug", "5"},
		{"Jan 1", "Jan", "1"},
		{"on August 12", "August", "12"},
		{"Dec 25", "Dec", "25"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			f := parse(tt.text)
			require.Len(t, f.Expressions, 1)
			d, ok := f.Expressions[0].(*DatetimeNode)
			require.True(t, ok)
			require.NotNil(t, d.Date)
			assert.Nil(t, d.Time)
			assert.Equal(t, DateMonthName, d.Date.Form)
			assert.Equal(t, tt.month, d.Date.Month.Text)
			require.NotNil(t, d.Date.Day)
			assert.Equal(t, tt.day, d.Date.Day.Text)
		})
	}

	t.Run("range of month days", func(t *testing.T) {
		f := parse("Jul 4 - Jul 6")
		require.Len(t, f.Expressions, 1)
		r, ok := f.Expressions[0].(*RangeNode)
		require.True(t, ok)
		for i, n := range []Node{r.From, r.To} {
			d := n.(*DatetimeNode)
			assert.Nil(t, d.Time)
			require.NotNil(t, d.Date.Day)
			assert.Equal(t, []string{"4", "6"}[i], d.Date.Day.Text)
		}
	})

	t.Run("hour after separator", func(t *testing.T) {
		f := parse("July 17 at 3")
		require.Len(t, f.Expressions, 1)
		d := f.Expressions[0].(*DatetimeNode)
		require.NotNil(t, d.Date.Day)
		assert.Equal(t, "17", d.Date.Day.Text)
		require.NotNil(t, d.Time)
		assert.Equal(t, TimeHour, d.Time.Form)
		assert.Equal(t, "3", d.Time.Hour.Text)
	})
}

func TestParseSpans(t *testing.T) {
	text := "call me on July 4 at 5 EST please"
	f := parse(text)
	require.Len(t, f.Expressions, 1)
	s := f.Expressions[0].Span()
	assert.Equal(t, "July 4 at 5 EST", text[s.Start:s.End])

	d := f.Expressions[0].(*DatetimeNode)
	require.NotNil(t, d.Date.Day)
	assert.Equal(t, "4", d.Date.Day.Text)
	assert.Equal(t, "5", d.Time.Hour.Text)
	assert.NotNil(t, d.Zone)
}

func TestParseNeverFails(t *testing.T) {
	for _, text := range []string{"", "   ", "----", "::::", "99999999", "at on to or and"} {
		assert.NotPanics(t, func() { parse(text) }, text)
	}
}
