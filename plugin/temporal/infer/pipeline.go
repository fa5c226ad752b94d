package infer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hrygo/whenparse/plugin/temporal/entity"
)

// Pass is one pure inference step.
type Pass struct {
	Name string
	Run  func(entity.Group, Context) entity.Group
}

// DefaultPasses is the fixed pass order.
var DefaultPasses = []Pass{
	{Name: "resolve_ambiguous", Run: ResolveAmbiguous},
	{Name: "propagate_meridiem", Run: PropagateMeridiem},
	{Name: "propagate_date", Run: PropagateDate},
	{Name: "propagate_time", Run: PropagateTime},
	{Name: "resolve_relative", Run: ResolveRelative},
	{Name: "propagate_zone", Run: PropagateZone},
	{Name: "fill_defaults", Run: FillDefaults},
	{Name: "resolve_durations", Run: ResolveDurations},
}

// Pipeline runs the passes over every group of one call.
type Pipeline struct {
	passes []Pass
	logger *slog.Logger
}

// NewPipeline creates a pipeline with the default passes.
func NewPipeline(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{passes: DefaultPasses, logger: logger}
}

// Run resolves every group. Groups are independent of each other.
func (p *Pipeline) Run(ctx context.Context, groups []entity.Group, c Context) []entity.ResolvedGroup {
	out := make([]entity.ResolvedGroup, 0, len(groups))
	for gi, g := range groups {
		for _, pass := range p.passes {
			g = pass.Run(g, c)
			if p.logger.Enabled(ctx, slog.LevelDebug) {
				p.logger.LogAttrs(ctx, slog.LevelDebug, "inference pass",
					slog.String("pass", pass.Name),
					slog.Int("group", gi),
					slog.String("entities", describe(g)),
				)
			}
		}
		if rg, ok := Finalize(g, c); ok {
			out = append(out, rg)
		}
	}
	return out
}

func describe(g entity.Group) string {
	parts := make([]string, 0, len(g.Entities))
	for _, e := range g.Entities {
		parts = append(parts, e.String())
	}
	return g.Kind.String() + "[" + strings.Join(parts, ", ") + "]"
}
