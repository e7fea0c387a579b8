package spanverify

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"gofr.dev/spanverify/model"
)

// ConvertSpans turns SDK spans into captured spans. Timestamps and durations
// are in milliseconds.
func ConvertSpans(spans []sdktrace.ReadOnlySpan) []model.Span {
	converted := make([]model.Span, 0, len(spans))

	for _, s := range spans {
		span := model.Span{
			TraceID:    s.SpanContext().TraceID().String(),
			ID:         s.SpanContext().SpanID().String(),
			Name:       s.Name(),
			Timestamp:  s.StartTime().UnixNano() / int64(time.Millisecond),
			Duration:   s.EndTime().Sub(s.StartTime()).Milliseconds(),
			Attributes: attributesToMap(s.Attributes()),
		}

		if parent := s.Parent(); parent.HasSpanID() {
			span.ParentID = parent.SpanID().String()
		}

		if res := s.Resource(); res != nil {
			span.Resource = attributesToMap(res.Attributes())
		}

		for _, e := range s.Events() {
			span.Events = append(span.Events, model.Event{
				Name:       e.Name,
				Timestamp:  e.Time.UnixNano() / int64(time.Millisecond),
				Attributes: attributesToMap(e.Attributes),
			})
		}

		converted = append(converted, span)
	}

	return converted
}

func attributesToMap(kvs []attribute.KeyValue) model.Attributes {
	attrs := make(model.Attributes, len(kvs))

	for _, kv := range kvs {
		attrs[string(kv.Key)] = attributeValue(kv.Value)
	}

	return attrs
}

// attributeValue keeps slice attributes as []any so they read the same as
// attributes decoded from JSON.
func attributeValue(v attribute.Value) any {
	switch v.Type() {
	case attribute.BOOLSLICE:
		return toAny(v.AsBoolSlice())
	case attribute.INT64SLICE:
		return toAny(v.AsInt64Slice())
	case attribute.FLOAT64SLICE:
		return toAny(v.AsFloat64Slice())
	case attribute.STRINGSLICE:
		return toAny(v.AsStringSlice())
	default:
		return v.AsInterface()
	}
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}

	return out
}
