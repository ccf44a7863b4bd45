package lint

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer for lint operations. Without a configured provider
// the global no-op tracer is used.
var tracer = otel.Tracer("smartlint.lint")

// startLanguageSpan creates a span covering one language runner.
func startLanguageSpan(ctx context.Context, group FileGroup) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Runner.Run",
		trace.WithAttributes(
			attribute.String("lint.language", string(group.Language)),
			attribute.Int("lint.file_count", len(group.Files)),
			attribute.Bool("lint.whole_tree", group.WholeTree),
		),
	)
}

// startToolSpan creates a span for a single tool invocation.
func startToolSpan(ctx context.Context, tool string, step Step, argv []string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Runner.invoke",
		trace.WithAttributes(
			attribute.String("lint.tool", tool),
			attribute.String("lint.step", string(step)),
			attribute.StringSlice("lint.argv", argv),
		),
	)
}

// setToolSpanResult sets the result attributes on a tool span.
func setToolSpanResult(span trace.Span, r ToolResult) {
	span.SetAttributes(
		attribute.Int("lint.exit_code", r.ExitCode),
		attribute.Bool("lint.succeeded", r.Succeeded),
		attribute.Int64("lint.duration_ms", r.Duration.Milliseconds()),
	)
	if !r.Succeeded {
		span.SetStatus(codes.Error, "tool reported issues")
	}
}
