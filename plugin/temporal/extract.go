// Package temporal extracts datetimes, ranges, lists and durations from
// English text.
//
//	results, err := temporal.Extract(ctx, "lunch tomorrow at noon or 1pm", temporal.NewConfig())
//
// Each call lexes the text, parses it into expressions, converts them into
// partial entities, fills in what the text leaves out from neighbouring
// matches and the reference instant, and returns one result per expression.
package temporal

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	terrors "github.com/hrygo/whenparse/internal/errors"
	"github.com/hrygo/whenparse/internal/observability"
	"github.com/hrygo/whenparse/plugin/temporal/grammar"
	"github.com/hrygo/whenparse/plugin/temporal/infer"
	"github.com/hrygo/whenparse/plugin/temporal/render"
	"github.com/hrygo/whenparse/plugin/temporal/source"
	"github.com/hrygo/whenparse/plugin/temporal/transform"
)

const (
	opExtract = "extract"
	opBatch   = "extract_batch"
)

// Extractor runs extraction calls. It holds no per-call state and is safe
// for concurrent use.
type Extractor struct {
	logger   *slog.Logger
	metrics  *observability.Metrics
	pipeline *infer.Pipeline
	markdown *source.Markdown
	filters  *render.FilterCache
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(x *Extractor) { x.logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *observability.Metrics) Option {
	return func(x *Extractor) { x.metrics = m }
}

// WithFilterCache keeps compiled filters across calls. Without it every
// call compiles its filter afresh.
func WithFilterCache(c *render.FilterCache) Option {
	return func(x *Extractor) { x.filters = c }
}

// NewExtractor creates an extractor. By default it logs through
// slog.Default and records into the global metrics.
func NewExtractor(opts ...Option) *Extractor {
	x := &Extractor{
		logger:   slog.Default(),
		metrics:  observability.GlobalMetrics(),
		markdown: source.NewMarkdown(),
	}
	for _, opt := range opts {
		opt(x)
	}
	x.pipeline = infer.NewPipeline(x.logger)
	return x
}

var defaultExtractor = NewExtractor()

// Extract extracts with the package default extractor.
func Extract(ctx context.Context, text string, cfg Config) ([]render.Result, error) {
	return defaultExtractor.Extract(ctx, text, cfg)
}

// ExtractDefault extracts with the process-wide default configuration.
func ExtractDefault(ctx context.Context, text string) ([]render.Result, error) {
	return defaultExtractor.Extract(ctx, text, DefaultConfig())
}

// Extract returns the temporal expressions found in text, in source order.
// Configuration errors are returned before any text is parsed. Errors that
// belong to one value, such as an impossible date, stay on that value.
func (x *Extractor) Extract(ctx context.Context, text string, cfg Config) ([]render.Result, error) {
	rc, ok := observability.FromContext(ctx)
	if !ok {
		rc = observability.NewRequestContext(x.logger, opExtract)
		ctx = observability.WithRequestContext(ctx, rc)
	}
	x.metrics.RecordRequest(opExtract)
	start := time.Now()
	defer func() { x.metrics.RecordDuration(opExtract, time.Since(start)) }()

	results, err := x.checked(ctx, text, cfg)
	if err != nil {
		x.metrics.RecordFailure(opExtract)
		rc.Warn(ctx, "extraction rejected",
			slog.String(observability.LogFieldErrorCode, string(terrors.GetCodeFromError(err, terrors.ErrCodeInvalidConfig))),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	x.metrics.RecordMatches(len(results))
	rc.Info(ctx, "extraction complete",
		slog.Int(observability.LogFieldTextLen, len(text)),
		slog.Int(observability.LogFieldMatchCount, len(results)),
		slog.Int64(observability.LogFieldDuration, time.Since(start).Milliseconds()),
	)
	return results, nil
}

// checked validates cfg and compiles its filter, then extracts.
func (x *Extractor) checked(ctx context.Context, text string, cfg Config) ([]render.Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	filter, err := x.compile(cfg.Filter)
	if err != nil {
		return nil, err
	}
	return x.extract(ctx, text, cfg, filter)
}

func (x *Extractor) compile(expr string) (*render.Filter, error) {
	switch {
	case expr == "":
		return nil, nil
	case x.filters != nil:
		return x.filters.Compile(expr)
	default:
		return render.CompileFilter(expr)
	}
}

func (x *Extractor) extract(ctx context.Context, text string, cfg Config, filter *render.Filter) ([]render.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now, err := cfg.Reference()
	if err != nil {
		return nil, err
	}

	src := text
	if cfg.Markdown {
		src = x.markdown.Mask(text)
	}
	forest := grammar.Parse(grammar.Lexer{Fuzzy: cfg.FuzzyNames}.Tokenize(src))
	groups := transform.Transform(forest.Expressions)
	resolved := x.pipeline.Run(ctx, groups, infer.Context{
		Now:       now,
		Direction: cfg.Direction,
		Infer:     cfg.InferDatetimes,
	})
	results := render.Materialize(resolved, text, render.Options{ReturnMatchedText: cfg.ReturnMatchedText})
	return filter.Apply(results)
}

// ExtractBatch extracts from independent texts concurrently, at most limit
// at a time (unlimited when limit <= 0). Results are in input order. The
// configuration is checked and the filter compiled once for the whole
// batch; cancelling ctx stops the texts not yet started.
func (x *Extractor) ExtractBatch(ctx context.Context, texts []string, cfg Config, limit int) ([][]render.Result, error) {
	rc := observability.NewRequestContext(x.logger, opBatch)
	if parent, ok := observability.FromContext(ctx); ok {
		rc = observability.NewRequestContextWithID(x.logger, parent.RequestID, opBatch)
	}
	x.metrics.RecordRequest(opBatch)
	start := time.Now()
	defer func() { x.metrics.RecordDuration(opBatch, time.Since(start)) }()

	if err := cfg.validate(); err != nil {
		x.metrics.RecordFailure(opBatch)
		return nil, err
	}
	filter, err := x.compile(cfg.Filter)
	if err != nil {
		x.metrics.RecordFailure(opBatch)
		return nil, err
	}

	out := make([][]render.Result, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			results, err := x.extract(gctx, text, cfg, filter)
			if err != nil {
				return err
			}
			x.metrics.RecordMatches(len(results))
			out[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		x.metrics.RecordFailure(opBatch)
		rc.Error(ctx, "batch extraction failed", err, slog.Int("texts", len(texts)))
		return nil, err
	}
	rc.Info(ctx, "batch extraction complete",
		slog.Int("texts", len(texts)),
		slog.Int64(observability.LogFieldDuration, time.Since(start).Milliseconds()),
	)
	return out, nil
}

// Shape returns the results in the caller's preferred container: a lone
// result by itself when CollapseSingleton is set, else the slice.
func (c Config) Shape(results []render.Result) any {
	return render.Collapse(results, c.CollapseSingleton)
}
