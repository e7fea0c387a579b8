// Package otlp converts OTLP protobuf traces into captured spans so spans
// received from other processes can be verified like local ones.
package otlp

import (
	"context"
	"encoding/hex"
	"time"

	collectortrace "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	commonv1 "go.opentelemetry.io/proto/otlp/common/v1"
	tracev1 "go.opentelemetry.io/proto/otlp/trace/v1"

	"gofr.dev/spanverify/model"
)

// Spans converts every span of every resource, in payload order.
func Spans(resourceSpans []*tracev1.ResourceSpans) []model.Span {
	var spans []model.Span

	for _, rs := range resourceSpans {
		var resource model.Attributes
		if rs.GetResource() != nil {
			resource = Attributes(rs.GetResource().GetAttributes())
		}

		for _, ss := range rs.GetScopeSpans() {
			for _, s := range ss.GetSpans() {
				span := Span(s)
				span.Resource = resource
				spans = append(spans, span)
			}
		}
	}

	return spans
}

// Span converts a single OTLP span. Its resource is left empty.
func Span(s *tracev1.Span) model.Span {
	start := time.Unix(0, int64(s.GetStartTimeUnixNano()))
	end := time.Unix(0, int64(s.GetEndTimeUnixNano()))

	span := model.Span{
		TraceID:    hex.EncodeToString(s.GetTraceId()),
		ID:         hex.EncodeToString(s.GetSpanId()),
		ParentID:   hex.EncodeToString(s.GetParentSpanId()),
		Name:       s.GetName(),
		Timestamp:  start.UnixMilli(),
		Duration:   end.Sub(start).Milliseconds(),
		Attributes: Attributes(s.GetAttributes()),
	}

	for _, e := range s.GetEvents() {
		span.Events = append(span.Events, model.Event{
			Name:       e.GetName(),
			Timestamp:  time.Unix(0, int64(e.GetTimeUnixNano())).UnixMilli(),
			Attributes: Attributes(e.GetAttributes()),
		})
	}

	return span
}

func Attributes(kvs []*commonv1.KeyValue) model.Attributes {
	attrs := make(model.Attributes, len(kvs))

	for _, kv := range kvs {
		attrs[kv.GetKey()] = Value(kv.GetValue())
	}

	return attrs
}

// Value converts an OTLP value to the Go value JSON decoding would produce
// for it, except that integers stay int64. An unset value converts to nil.
func Value(v *commonv1.AnyValue) any {
	switch t := v.GetValue().(type) {
	case *commonv1.AnyValue_StringValue:
		return t.StringValue
	case *commonv1.AnyValue_BoolValue:
		return t.BoolValue
	case *commonv1.AnyValue_IntValue:
		return t.IntValue
	case *commonv1.AnyValue_DoubleValue:
		return t.DoubleValue
	case *commonv1.AnyValue_BytesValue:
		return t.BytesValue
	case *commonv1.AnyValue_ArrayValue:
		values := t.ArrayValue.GetValues()
		out := make([]any, len(values))

		for i, e := range values {
			out[i] = Value(e)
		}

		return out
	case *commonv1.AnyValue_KvlistValue:
		return map[string]any(Attributes(t.KvlistValue.GetValues()))
	default:
		return nil
	}
}

// Exporter serves the spans of an already received export request.
type Exporter struct {
	spans []model.Span
}

func NewExporter(req *collectortrace.ExportTraceServiceRequest) *Exporter {
	return &Exporter{spans: Spans(req.GetResourceSpans())}
}

// ForceFlush does nothing, the request is complete when it is received.
func (*Exporter) ForceFlush(context.Context) error { return nil }

func (e *Exporter) CapturedSpans() []model.Span {
	out := make([]model.Span, len(e.spans))
	copy(out, e.spans)

	return out
}
