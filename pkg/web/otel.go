package web

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/multiform-dev/multiform"
)

// tracerName identifies this module's tracer on the global provider.
const tracerName = "multiform"

// tracer resolves lazily so the application can install its provider
// with otel.SetTracerProvider before the first span.
func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// tracedValidate runs an aggregate validation inside a span carrying the
// form name, the verdict, and the error count.
func tracedValidate(ctx context.Context, form string, mf *multiform.MultiForm) (bool, context.Context) {
	spanCtx, span := tracer().Start(ctx, "multiform.validate",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("multiform.form", form)),
	)
	defer span.End()

	valid := mf.Validate()
	span.SetAttributes(
		attribute.Bool("multiform.valid", valid),
		attribute.Int("multiform.error_keys", len(mf.Errors())),
	)
	if !valid {
		span.SetStatus(codes.Ok, "") // invalid input is not a span failure
	}
	return valid, spanCtx
}

// tracedSave runs an aggregate save inside a span, including the deferred
// relation phase.
func tracedSave(ctx context.Context, form string, mf *multiform.ModelMultiForm) (map[string]any, error) {
	spanCtx, span := tracer().Start(ctx, "multiform.save",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("multiform.form", form)),
	)
	defer span.End()

	objects, deferred, err := mf.Save(spanCtx, true)
	if err == nil && deferred != nil {
		err = deferred(spanCtx)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("multiform.saved_children", len(objects)))
	return objects, nil
}
