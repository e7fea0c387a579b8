package spanverify

import (
	"context"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"gofr.dev/pkg/gofr/logging"

	"gofr.dev/spanverify/model"
)

// Capture is a tracer provider whose spans are batched into a
// CaptureExporter. It satisfies verify.Exporter.
type Capture struct {
	exporter *CaptureExporter
	provider *sdktrace.TracerProvider
}

func NewCapture(logger logging.Logger, opts ...Option) *Capture {
	cfg := newConfig(opts)
	exp := NewCaptureExporter(logger, opts...)

	res := cfg.resource
	if res == nil {
		res = resource.Empty()
	}

	return &Capture{
		exporter: exp,
		provider: sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(res),
		),
	}
}

// Provider returns the tracer provider, e.g. for otel.SetTracerProvider.
func (c *Capture) Provider() *sdktrace.TracerProvider { return c.provider }

func (c *Capture) Exporter() *CaptureExporter { return c.exporter }

func (c *Capture) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return c.provider.Tracer(name, opts...)
}

// ForceFlush exports every span that has ended but is still queued.
func (c *Capture) ForceFlush(ctx context.Context) error {
	return c.provider.ForceFlush(ctx)
}

func (c *Capture) CapturedSpans() []model.Span {
	return c.exporter.CapturedSpans()
}

// Reset drops all captured spans.
func (c *Capture) Reset() {
	c.exporter.Reset()
}

func (c *Capture) Shutdown(ctx context.Context) error {
	return c.provider.Shutdown(ctx)
}

// Recorder is a tracer provider backed by the SDK's in-memory exporter. It
// satisfies verify.Exporter.
type Recorder struct {
	exporter *tracetest.InMemoryExporter
	provider *sdktrace.TracerProvider
}

// NewRecorder builds a Recorder. opts are applied after the batcher.
func NewRecorder(opts ...sdktrace.TracerProviderOption) *Recorder {
	exp := tracetest.NewInMemoryExporter()

	return &Recorder{
		exporter: exp,
		provider: sdktrace.NewTracerProvider(append([]sdktrace.TracerProviderOption{sdktrace.WithBatcher(exp)}, opts...)...),
	}
}

func (r *Recorder) Provider() *sdktrace.TracerProvider { return r.provider }

func (r *Recorder) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return r.provider.Tracer(name, opts...)
}

func (r *Recorder) ForceFlush(ctx context.Context) error {
	return r.provider.ForceFlush(ctx)
}

func (r *Recorder) CapturedSpans() []model.Span {
	return ConvertSpans(r.exporter.GetSpans().Snapshots())
}

func (r *Recorder) Reset() {
	r.exporter.Reset()
}

func (r *Recorder) Shutdown(ctx context.Context) error {
	return r.provider.Shutdown(ctx)
}
