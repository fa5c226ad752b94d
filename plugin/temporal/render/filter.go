package render

import (
	"fmt"

	"github.com/google/cel-go/cel"

	terrors "github.com/hrygo/whenparse/internal/errors"
	"github.com/hrygo/whenparse/plugin/temporal/entity"
)

// Filter is a compiled CEL predicate over results. Expressions see:
//
//	kind        "single", "range" or "list"
//	text        matched text (empty unless requested)
//	start, end  byte span of the match
//	value_kind  kind of the first value: datetime, date, time, duration, partial, error
//	year, month, day, hour, minute
//	            fields of the first value's instant (0 when it has none)
//	seconds     first value's duration in seconds (0 when not a duration)
//	count       number of values
//
// For example: `value_kind == "datetime" && hour >= 9 && hour < 17`.
type Filter struct {
	expr    string
	program cel.Program
}

var filterEnv = mustFilterEnv()

func mustFilterEnv() *cel.Env {
	env, err := cel.NewEnv(
		cel.Variable("kind", cel.StringType),
		cel.Variable("text", cel.StringType),
		cel.Variable("start", cel.IntType),
		cel.Variable("end", cel.IntType),
		cel.Variable("value_kind", cel.StringType),
		cel.Variable("year", cel.IntType),
		cel.Variable("month", cel.IntType),
		cel.Variable("day", cel.IntType),
		cel.Variable("hour", cel.IntType),
		cel.Variable("minute", cel.IntType),
		cel.Variable("seconds", cel.DoubleType),
		cel.Variable("count", cel.IntType),
	)
	if err != nil {
		panic(fmt.Sprintf("render: building filter environment: %v", err))
	}
	return env
}

// CompileFilter compiles a boolean CEL expression.
func CompileFilter(expr string) (*Filter, error) {
	ast, iss := filterEnv.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, terrors.InvalidFilter(expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, terrors.InvalidFilter(expr, fmt.Errorf("expression must be boolean, got %s", ast.OutputType()))
	}
	prg, err := filterEnv.Program(ast)
	if err != nil {
		return nil, terrors.InvalidFilter(expr, err)
	}
	return &Filter{expr: expr, program: prg}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expr
}

// Match evaluates the predicate against one result.
func (f *Filter) Match(r Result) (bool, error) {
	out, _, err := f.program.Eval(activation(r))
	if err != nil {
		return false, terrors.InvalidFilter(f.expr, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, terrors.InvalidFilter(f.expr, fmt.Errorf("non-boolean result %v", out.Value()))
	}
	return b, nil
}

// Apply keeps the results the predicate accepts. A nil filter keeps everything.
func (f *Filter) Apply(results []Result) ([]Result, error) {
	if f == nil {
		return results, nil
	}
	kept := results[:0:0]
	for _, r := range results {
		ok, err := f.Match(r)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

func activation(r Result) map[string]any {
	vars := map[string]any{
		"kind":       r.Kind.String(),
		"text":       r.Text,
		"start":      int64(r.Span.Start),
		"end":        int64(r.Span.End),
		"value_kind": "",
		"year":       int64(0),
		"month":      int64(0),
		"day":        int64(0),
		"hour":       int64(0),
		"minute":     int64(0),
		"seconds":    0.0,
		"count":      int64(r.Count()),
	}
	v, ok := r.First()
	if !ok {
		return vars
	}
	if v.Err != nil {
		vars["value_kind"] = "error"
		return vars
	}
	vars["value_kind"] = v.Kind.String()
	switch v.Kind {
	case entity.ValueDateTime, entity.ValueDate, entity.ValueTime:
		if v.Kind != entity.ValueTime {
			vars["year"] = int64(v.Time.Year())
			vars["month"] = int64(v.Time.Month())
			vars["day"] = int64(v.Time.Day())
		}
		vars["hour"] = int64(v.Time.Hour())
		vars["minute"] = int64(v.Time.Minute())
	case entity.ValueDuration:
		vars["seconds"] = v.Duration.Seconds()
	case entity.ValuePartial:
		vars["year"] = int64(v.Date.Year.Or(0))
		vars["month"] = int64(v.Date.Month.Or(0))
		vars["day"] = int64(v.Date.Day.Or(0))
		h, _ := v.Clock.Hour24()
		vars["hour"] = int64(h)
		vars["minute"] = int64(v.Clock.Minute.Or(0))
	}
	return vars
}
