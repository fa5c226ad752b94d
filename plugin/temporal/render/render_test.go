package render

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	terrors "github.com/hrygo/whenparse/internal/errors"
	"github.com/hrygo/whenparse/plugin/temporal/entity"
)

var pdt = time.FixedZone("PDT", -7*3600)

func dt(h int, start, end int) entity.Resolved {
	return entity.Resolved{
		Kind:    entity.ValueDateTime,
		Time:    time.Date(2018, 7, 17, h, 0, 0, 0, pdt),
		HasZone: true,
		Span:    entity.Span{Start: start, End: end},
	}
}

func TestMaterialize(t *testing.T) {
	text := "meet 3-4pm"
	groups := []entity.ResolvedGroup{{
		Kind:   entity.GroupRange,
		Values: []entity.Resolved{dt(15, 5, 6), dt(16, 7, 10)},
		Span:   entity.Span{Start: 5, End: 10},
	}}

	results := Materialize(groups, text, Options{ReturnMatchedText: true})
	require.Len(t, results, 1)
	assert.Equal(t, "3-4pm", results[0].Text)
	assert.Equal(t, 2, results[0].Count())

	results = Materialize(groups, text, Options{})
	assert.Empty(t, results[0].Text)
	assert.Equal(t, entity.Span{Start: 5, End: 10}, results[0].Span)
}

func TestMaterializeRangedList(t *testing.T) {
	text := "7/17 4-5 or 5-6 PM"
	g := entity.ResolvedGroup{
		Kind:   entity.GroupList,
		Ranged: true,
		Values: []entity.Resolved{dt(16, 0, 6), dt(17, 7, 8), dt(17, 12, 13), dt(18, 14, 18)},
		Span:   entity.Span{Start: 0, End: 18},
	}
	results := Materialize([]entity.ResolvedGroup{g}, text, Options{ReturnMatchedText: true})
	require.Len(t, results, 1)
	r := results[0]
	assert.Empty(t, r.Values)
	require.Len(t, r.Items, 2)
	assert.Equal(t, entity.GroupRange, r.Items[0].Kind)
	assert.Equal(t, "7/17 4-5", r.Items[0].Text)
	assert.Equal(t, "5-6 PM", r.Items[1].Text)
	assert.Equal(t, 4, r.Count())

	first, ok := r.First()
	require.True(t, ok)
	assert.Equal(t, 16, first.Time.Hour())
}

func TestCollapse(t *testing.T) {
	one := []Result{{Kind: entity.GroupSingle}}
	assert.IsType(t, Result{}, Collapse(one, true))
	assert.IsType(t, []Result{}, Collapse(one, false))
	assert.IsType(t, []Result{}, Collapse(append(one, one...), true))
}

func TestValueJSON(t *testing.T) {
	tests := []struct {
		name string
		in   entity.Resolved
		kind string
		want string
	}{
		{"zoned datetime", dt(15, 0, 1), "datetime", "2018-07-17T15:00:00-07:00"},
		{"naive datetime", entity.Resolved{Kind: entity.ValueDateTime, Time: time.Date(2018, 7, 17, 15, 30, 0, 0, time.UTC)}, "datetime", "2018-07-17T15:30:00"},
		{"date", entity.Resolved{Kind: entity.ValueDate, Time: time.Date(2018, 12, 18, 0, 0, 0, 0, time.UTC)}, "date", "2018-12-18"},
		{"time", entity.Resolved{Kind: entity.ValueTime, Time: time.Date(0, 1, 1, 15, 0, 0, 0, time.UTC)}, "time", "15:00:00"},
		{"duration", entity.Resolved{Kind: entity.ValueDuration, Duration: 30 * time.Minute}, "duration", "30m0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Value(tt.in)
			assert.Equal(t, tt.kind, v.Kind)
			assert.Equal(t, tt.want, v.Value)
		})
	}

	t.Run("error", func(t *testing.T) {
		v := Value(entity.Resolved{Err: terrors.InvalidDate(2018, 2, 30)})
		assert.Equal(t, "error", v.Kind)
		assert.Equal(t, "INVALID_DATE", v.Code)
	})

	t.Run("partial", func(t *testing.T) {
		v := Value(entity.Resolved{Kind: entity.ValuePartial, Date: entity.PartialDate{Month: entity.Some(7), Day: entity.Some(17)}})
		assert.Equal(t, map[string]any{"month": 7, "day": 17}, v.Fields)
	})
}

func TestResultMarshalJSON(t *testing.T) {
	r := Result{
		Kind:   entity.GroupSingle,
		Text:   "in 30 minutes",
		Span:   entity.Span{Start: 0, End: 13},
		Values: []entity.Resolved{{Kind: entity.ValueDuration, Duration: 30 * time.Minute}},
	}
	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "single", got["kind"])
	assert.Equal(t, "in 30 minutes", got["text"])
	values := got["values"].([]any)
	require.Len(t, values, 1)
	assert.Equal(t, 1800.0, values[0].(map[string]any)["seconds"])
}

func TestFilter(t *testing.T) {
	morning := Result{Kind: entity.GroupSingle, Values: []entity.Resolved{dt(9, 0, 3)}}
	evening := Result{Kind: entity.GroupSingle, Values: []entity.Resolved{dt(19, 5, 8)}}
	span := Result{Kind: entity.GroupRange, Values: []entity.Resolved{dt(15, 10, 11), dt(16, 12, 15)}}

	f, err := CompileFilter(`value_kind == "datetime" && hour >= 9 && hour < 17`)
	require.NoError(t, err)
	kept, err := f.Apply([]Result{morning, evening, span})
	require.NoError(t, err)
	assert.Len(t, kept, 2)

	f, err = CompileFilter(`kind == "range" && count == 2`)
	require.NoError(t, err)
	ok, err := f.Match(span)
	require.NoError(t, err)
	assert.True(t, ok)

	var none *Filter
	kept, err = none.Apply([]Result{morning})
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestCompileFilterErrors(t *testing.T) {
	for _, expr := range []string{"hour +", "hour + 1", "weekday == 1"} {
		_, err := CompileFilter(expr)
		assert.True(t, terrors.IsCode(err, terrors.ErrCodeInvalidFilter), expr)
	}
}
