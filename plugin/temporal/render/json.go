package render

import (
	"encoding/json"

	terrors "github.com/hrygo/whenparse/internal/errors"
	"github.com/hrygo/whenparse/plugin/temporal/entity"
)

const (
	layoutDateTime     = "2006-01-02T15:04:05.999"
	layoutDateTimeZone = "2006-01-02T15:04:05.999Z07:00"
	layoutDate         = "2006-01-02"
	layoutTime         = "15:04:05.999"
)

// ValueJSON is the wire form of one resolved value.
type ValueJSON struct {
	Kind string `json:"kind"`
	// Value is the formatted instant, date, clock or duration.
	Value string `json:"value,omitempty"`
	// Seconds is set for durations.
	Seconds *float64 `json:"seconds,omitempty"`
	// Fields lists the known fields of a partial value.
	Fields map[string]any `json:"fields,omitempty"`
	Span   entity.Span    `json:"span"`
	Code   string         `json:"code,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// ResultJSON is the wire form of a Result.
type ResultJSON struct {
	Kind   string       `json:"kind"`
	Text   string       `json:"text,omitempty"`
	Span   entity.Span  `json:"span"`
	Values []ValueJSON  `json:"values,omitempty"`
	Items  []ResultJSON `json:"items,omitempty"`
}

// JSON converts the result into its wire form.
func (r Result) JSON() ResultJSON {
	out := ResultJSON{Kind: r.Kind.String(), Text: r.Text, Span: r.Span}
	if r.Kind == entity.GroupList && len(r.Items) > 0 {
		out.Kind = "range_list"
	}
	for _, v := range r.Values {
		out.Values = append(out.Values, Value(v))
	}
	for _, item := range r.Items {
		out.Items = append(out.Items, item.JSON())
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.JSON())
}

// Value converts one resolved value into its wire form.
func Value(v entity.Resolved) ValueJSON {
	out := ValueJSON{Kind: v.Kind.String(), Span: v.Span}
	if v.Err != nil {
		out.Kind = "error"
		out.Code = string(terrors.GetCodeFromError(v.Err, terrors.ErrCodeUnresolved))
		out.Error = v.Err.Error()
		return out
	}
	switch v.Kind {
	case entity.ValueDateTime:
		if v.HasZone {
			out.Value = v.Time.Format(layoutDateTimeZone)
		} else {
			out.Value = v.Time.Format(layoutDateTime)
		}
	case entity.ValueDate:
		out.Value = v.Time.Format(layoutDate)
	case entity.ValueTime:
		out.Value = v.Time.Format(layoutTime)
	case entity.ValueDuration:
		secs := v.Duration.Seconds()
		out.Seconds = &secs
		out.Value = v.Duration.String()
	case entity.ValuePartial:
		out.Fields = partialFields(v.Date, v.Clock)
	}
	return out
}

func partialFields(d entity.PartialDate, t entity.PartialTime) map[string]any {
	fields := make(map[string]any)
	put := func(name string, o entity.Opt[int]) {
		if n, ok := o.Get(); ok {
			fields[name] = n
		}
	}
	put("year", d.Year)
	put("month", d.Month)
	put("day", d.Day)
	if wd, ok := d.Weekday.Get(); ok {
		fields["weekday"] = wd.String()
	}
	if h, ok := t.Hour24(); ok {
		fields["hour"] = h
	}
	put("minute", t.Minute)
	put("second", t.Second)
	put("millisecond", t.Millisecond)
	if t.NeedsMeridiem() {
		fields["meridiem_unknown"] = true
	}
	return fields
}
