// Package verify checks spans captured from an instrumented program: that
// they belong to one trace, that they carry scope attributes, and that
// inference spans describe the provider, model and token usage of the call.
//
// Every check returns an error wrapping one of the package sentinels and
// never panics or stops the calling test by itself. The Require helpers do
// that through testify.
package verify

import (
	"context"

	"gofr.dev/spanverify/model"
)

// Exporter is the source of captured spans. ForceFlush must block until all
// pending spans are visible through CapturedSpans.
type Exporter interface {
	ForceFlush(ctx context.Context) error
	CapturedSpans() []model.Span
}

// Verifier runs the span checks and sends its diagnostics to a Reporter.
type Verifier struct {
	reporter Reporter
}

type VerifierOption func(*Verifier)

// WithReporter sets where diagnostics are written.
func WithReporter(r Reporter) VerifierOption {
	return func(v *Verifier) {
		if r != nil {
			v.reporter = r
		}
	}
}

func New(opts ...VerifierOption) *Verifier {
	v := &Verifier{reporter: nopReporter{}}
	for _, opt := range opts {
		opt(v)
	}

	return v
}

var std = New()

// Option tunes a single span set check.
type Option func(*checkConfig)

type checkConfig struct {
	expectedCount int
	countSet      bool
}

// ExpectCount requires exactly n captured spans.
func ExpectCount(n int) Option {
	return func(c *checkConfig) {
		c.expectedCount = n
		c.countSet = true
	}
}

// TraceID flushes the exporter and checks that every captured span shares
// the trace ID of the first one.
func TraceID(ctx context.Context, exp Exporter, opts ...Option) error {
	return std.TraceID(ctx, exp, opts...)
}

// Scope checks that every captured span carries the default test scope and
// that all spans share one trace ID.
func Scope(ctx context.Context, exp Exporter, opts ...Option) error {
	return std.Scope(ctx, exp, opts...)
}

// MultipleScopes checks that every captured span carries every entry of
// scopes as a scope attribute and that all spans share one trace ID.
func MultipleScopes(ctx context.Context, exp Exporter, scopes ScopeMap, opts ...Option) error {
	return std.MultipleScopes(ctx, exp, scopes, opts...)
}

// InferenceSpan checks the attributes and events of an inference span.
func InferenceSpan(attrs model.Attributes, events []model.Event, want Inference) (bool, error) {
	return std.InferenceSpan(attrs, events, want)
}

// InferenceSpanOf checks a captured inference span.
func InferenceSpanOf(span model.Span, want Inference) (bool, error) {
	return std.InferenceSpan(span.Attributes, span.Events, want)
}
