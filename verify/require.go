package verify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"gofr.dev/spanverify/model"
)

// RequireTraceID fails t immediately when TraceID fails. Diagnostics go to
// the test log.
func RequireTraceID(t testing.TB, exp Exporter, opts ...Option) {
	t.Helper()
	require.NoError(t, New(WithReporter(TB(t))).TraceID(context.Background(), exp, opts...))
}

// RequireScope fails t immediately when Scope fails.
func RequireScope(t testing.TB, exp Exporter, opts ...Option) {
	t.Helper()
	require.NoError(t, New(WithReporter(TB(t))).Scope(context.Background(), exp, opts...))
}

// RequireMultipleScopes fails t immediately when MultipleScopes fails.
func RequireMultipleScopes(t testing.TB, exp Exporter, scopes ScopeMap, opts ...Option) {
	t.Helper()
	require.NoError(t, New(WithReporter(TB(t))).MultipleScopes(context.Background(), exp, scopes, opts...))
}

// RequireInferenceSpan fails t immediately when the span is not a well
// formed inference span.
func RequireInferenceSpan(t testing.TB, span model.Span, want Inference) {
	t.Helper()

	ok, err := New(WithReporter(TB(t))).InferenceSpan(span.Attributes, span.Events, want)
	require.NoError(t, err)
	require.True(t, ok)
}
