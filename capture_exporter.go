// Package spanverify captures spans from an OpenTelemetry tracer provider so
// tests can inspect them with the verify package.
package spanverify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gofr.dev/pkg/gofr/logging"

	"gofr.dev/spanverify/model"
)

// CaptureExporter is a span exporter that keeps every exported span in
// memory and can forward each batch to a trace receiver.
type CaptureExporter struct {
	endpoint string
	client   *http.Client
	logger   logging.Logger

	mu      sync.Mutex
	spans   []model.Span
	stopped bool
}

func NewCaptureExporter(logger logging.Logger, opts ...Option) *CaptureExporter {
	cfg := newConfig(opts)

	return &CaptureExporter{
		endpoint: cfg.endpoint,
		client:   cfg.client,
		logger:   logger,
	}
}

func (e *CaptureExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if len(spans) == 0 {
		return nil
	}

	converted := ConvertSpans(spans)

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		e.logger.Debugf("exporter is shut down, dropping %d spans", len(spans))

		return nil
	}

	e.spans = append(e.spans, converted...)
	e.mu.Unlock()

	if e.endpoint == "" {
		return nil
	}

	return e.forward(ctx, converted)
}

// Shutdown stops the exporter from accepting further spans. Spans captured
// so far stay available.
func (e *CaptureExporter) Shutdown(context.Context) error {
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()

	return nil
}

// CapturedSpans returns a copy of the spans exported so far, in export order.
func (e *CaptureExporter) CapturedSpans() []model.Span {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]model.Span, len(e.spans))
	copy(out, e.spans)

	return out
}

// Reset drops all captured spans.
func (e *CaptureExporter) Reset() {
	e.mu.Lock()
	e.spans = nil
	e.mu.Unlock()
}

func (e *CaptureExporter) forward(ctx context.Context, spans []model.Span) error {
	payload, err := json.Marshal(spans)
	if err != nil {
		return fmt.Errorf("failed to marshal spans: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Error(err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected response status code: %d", resp.StatusCode)
	}

	e.logger.Debugf("forwarded %d spans to %s", len(spans), e.endpoint)

	return nil
}
