package verify

import (
	"context"
	"fmt"
	"strings"

	"gofr.dev/spanverify/model"
)

// captured flushes exp and applies the span count expectation. The count is
// checked before any per span check runs.
func captured(ctx context.Context, exp Exporter, opts []Option) ([]model.Span, error) {
	var cfg checkConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := exp.ForceFlush(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFlush, err)
	}

	spans := exp.CapturedSpans()

	if cfg.countSet && len(spans) != cfg.expectedCount {
		return nil, failf(ErrSpanCount, "expected %d spans, got %d", cfg.expectedCount, len(spans))
	}

	return spans, nil
}

func (v *Verifier) TraceID(ctx context.Context, exp Exporter, opts ...Option) error {
	spans, err := captured(ctx, exp, opts)
	if err != nil || len(spans) == 0 {
		return err
	}

	traceID := spans[0].TraceID

	for i := range spans {
		if spans[i].TraceID != traceID {
			return failf(ErrTraceID, "span %q has trace ID %s, want %s", spans[i].Name, spans[i].TraceID, traceID)
		}
	}

	v.reporter.Logf("%d spans share trace ID %s", len(spans), traceID)

	return nil
}

func (v *Verifier) Scope(ctx context.Context, exp Exporter, opts ...Option) error {
	spans, err := captured(ctx, exp, opts)
	if err != nil || len(spans) == 0 {
		return err
	}

	traceID := spans[0].TraceID

	for i := range spans {
		if err := checkScope(&spans[i], DefaultScopeName, DefaultScopeValue); err != nil {
			return err
		}

		if spans[i].TraceID != traceID {
			return failf(ErrTraceID, "span %q has trace ID %s, want %s", spans[i].Name, spans[i].TraceID, traceID)
		}
	}

	return nil
}

func (v *Verifier) MultipleScopes(ctx context.Context, exp Exporter, scopes ScopeMap, opts ...Option) error {
	spans, err := captured(ctx, exp, opts)
	if err != nil || len(spans) == 0 {
		return err
	}

	traceID := spans[0].TraceID

	for i := range spans {
		v.reporter.Logf("Checking span: %s", spans[i].Name)
		v.reporter.Logf("Span attributes: %s", formatAttributes(spans[i].Attributes))

		for _, name := range scopes.names() {
			if err := checkScope(&spans[i], name, scopes[name]); err != nil {
				return err
			}
		}

		if spans[i].TraceID != traceID {
			return failf(ErrTraceID, "span %q has trace ID %s, want %s", spans[i].Name, spans[i].TraceID, traceID)
		}
	}

	return nil
}

func checkScope(span *model.Span, name, value string) error {
	key := ScopeKey(name)

	got, ok := span.Attributes.Lookup(key)
	if s, isString := got.(string); !ok || !isString || s != value {
		return failf(ErrAttribute, "span %q is missing expected scope attribute %s=%s, got %v", span.Name, key, value, got)
	}

	return nil
}

// formatAttributes renders attrs as key=value pairs in key order.
func formatAttributes(attrs model.Attributes) string {
	pairs := make([]string, 0, len(attrs))
	for _, key := range attrs.Keys() {
		pairs = append(pairs, fmt.Sprintf("%s=%v", key, attrs.Value(key)))
	}

	return strings.Join(pairs, ", ")
}
