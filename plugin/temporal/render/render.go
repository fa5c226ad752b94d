// Package render packs resolved groups into results for callers: a bare
// value, a range pair or a list, each optionally carrying the matched text.
package render

import (
	"github.com/hrygo/whenparse/plugin/temporal/entity"
)

// Options controls how results are materialized.
type Options struct {
	// ReturnMatchedText fills Result.Text with the matched substring.
	ReturnMatchedText bool
}

// Result is one extracted expression.
type Result struct {
	Kind entity.GroupKind
	// Text is the matched substring when requested.
	Text string
	Span entity.Span
	// Values holds one value for a single, two for a range, and the items
	// of a plain list. A list of ranges keeps its ranges in Items instead.
	Values []entity.Resolved
	Items  []Result
}

// Materialize converts resolved groups into results in source order.
func Materialize(groups []entity.ResolvedGroup, text string, opts Options) []Result {
	out := make([]Result, 0, len(groups))
	for _, g := range groups {
		out = append(out, materialize(g, text, opts))
	}
	return out
}

func materialize(g entity.ResolvedGroup, text string, opts Options) Result {
	r := Result{Kind: g.Kind, Span: g.Span}
	if opts.ReturnMatchedText {
		r.Text = matched(text, g.Span)
	}
	if g.Kind != entity.GroupList || !g.Ranged {
		r.Values = g.Values
		return r
	}
	for i := 0; i+1 < len(g.Values); i += 2 {
		pair := entity.ResolvedGroup{
			Kind:   entity.GroupRange,
			Values: g.Values[i : i+2],
			Span:   g.Values[i].Span.Cover(g.Values[i+1].Span),
		}
		r.Items = append(r.Items, materialize(pair, text, opts))
	}
	return r
}

func matched(text string, s entity.Span) string {
	if s.Start < 0 || s.End > len(text) || s.Start > s.End {
		return ""
	}
	return text[s.Start:s.End]
}

// Errors returns the per-value errors of a result, in order.
func (r Result) Errors() []error {
	var errs []error
	for _, v := range r.Values {
		if v.Err != nil {
			errs = append(errs, v.Err)
		}
	}
	for _, item := range r.Items {
		errs = append(errs, item.Errors()...)
	}
	return errs
}

// First returns the first value of the result, descending into ranges.
func (r Result) First() (entity.Resolved, bool) {
	if len(r.Values) > 0 {
		return r.Values[0], true
	}
	if len(r.Items) > 0 {
		return r.Items[0].First()
	}
	return entity.Resolved{}, false
}

// Count returns the number of values in the result.
func (r Result) Count() int {
	n := len(r.Values)
	for _, item := range r.Items {
		n += item.Count()
	}
	return n
}

// Collapse returns the single result itself when there is exactly one and
// collapse is set, and the whole slice otherwise.
func Collapse(results []Result, collapse bool) any {
	if collapse && len(results) == 1 {
		return results[0]
	}
	return results
}
