package receiver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	collectortrace "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	commonv1 "go.opentelemetry.io/proto/otlp/common/v1"
	tracev1 "go.opentelemetry.io/proto/otlp/trace/v1"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"gofr.dev/spanverify/internal/archive"
	"gofr.dev/spanverify/model"
)

type memoryStore struct {
	mu      sync.Mutex
	spans   map[string][]model.Span
	saveErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{spans: make(map[string][]model.Span)}
}

func (s *memoryStore) Save(_ context.Context, spans []model.Span) error {
	if s.saveErr != nil {
		return s.saveErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, span := range spans {
		s.spans[span.TraceID] = append(s.spans[span.TraceID], span)
	}

	return nil
}

func (s *memoryStore) Trace(_ context.Context, traceID string) ([]model.Span, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spans, ok := s.spans[traceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", archive.ErrTraceNotFound, traceID)
	}

	return spans, nil
}

func newTestReceiver(store Store) *Receiver {
	cfg := defaultConfig()
	return New(&cfg, store, zap.NewNop())
}

func serve(r *Receiver, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	return rec
}

func inferenceSpan(traceID string) model.Span {
	return model.Span{
		TraceID: traceID,
		ID:      "s2",
		Name:    "openai.chat",
		Attributes: model.Attributes{
			"scope.user_id":               "u1",
			"span.type":                   "inference",
			"entity.1.type":               "inference.openai",
			"entity.1.provider_name":      "openai",
			"entity.1.inference_endpoint": "https://api.openai.com",
			"entity.2.name":               "gpt-4",
			"entity.2.type":               "model.llm.gpt-4",
		},
		Events: []model.Event{
			{Name: "data.input", Attributes: model.Attributes{"input": "hello"}},
			{Name: "data.output", Attributes: model.Attributes{"response": "hi"}},
			{Name: "metadata", Attributes: model.Attributes{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2}},
		},
	}
}

func TestPostSpans(t *testing.T) {
	store := newMemoryStore()
	r := newTestReceiver(store)

	body, err := json.Marshal([]model.Span{{TraceID: "t1", ID: "s1", Name: "root"}, inferenceSpan("t1")})
	require.NoError(t, err)

	rec := serve(r, httptest.NewRequest(http.MethodPost, "/api/v2/spans", bytes.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, store.spans["t1"], 2)
}

func TestPostSpans_Errors(t *testing.T) {
	rec := serve(newTestReceiver(newMemoryStore()),
		httptest.NewRequest(http.MethodPost, "/api/v2/spans", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	store := newMemoryStore()
	store.saveErr = errors.New("db down")

	rec = serve(newTestReceiver(store),
		httptest.NewRequest(http.MethodPost, "/api/v2/spans", bytes.NewBufferString(`[{"traceId":"t1"}]`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = serve(newTestReceiver(store), httptest.NewRequest(http.MethodGet, "/api/v2/spans", http.NoBody))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func otlpRequest() *collectortrace.ExportTraceServiceRequest {
	return &collectortrace.ExportTraceServiceRequest{
		ResourceSpans: []*tracev1.ResourceSpans{{
			ScopeSpans: []*tracev1.ScopeSpans{{
				Spans: []*tracev1.Span{{
					TraceId: []byte{0xab, 0xcd, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1},
					SpanId:  []byte{0, 0, 0, 0, 0, 0, 0, 1},
					Name:    "remote",
					Attributes: []*commonv1.KeyValue{{
						Key:   "scope.test_scope",
						Value: &commonv1.AnyValue{Value: &commonv1.AnyValue_StringValue{StringValue: "test_value"}},
					}},
				}},
			}},
		}},
	}
}

const otlpTraceID = "abcd0000000000000000000000000001"

func TestPostOTLP_Protobuf(t *testing.T) {
	store := newMemoryStore()

	body, err := proto.Marshal(otlpRequest())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/traces", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/x-protobuf")

	rec := serve(newTestReceiver(store), req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-protobuf", rec.Header().Get("Content-Type"))

	var resp collectortrace.ExportTraceServiceResponse
	require.NoError(t, proto.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, store.spans[otlpTraceID], 1)
	assert.Equal(t, "remote", store.spans[otlpTraceID][0].Name)
}

func TestPostOTLP_JSON(t *testing.T) {
	store := newMemoryStore()

	body, err := protojson.Marshal(otlpRequest())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/traces", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := serve(newTestReceiver(store), req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Len(t, store.spans[otlpTraceID], 1)
}

func TestPostOTLP_BadBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/traces", bytes.NewBufferString("not protobuf"))
	req.Header.Set("Content-Type", "application/json")

	rec := serve(newTestReceiver(newMemoryStore()), req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTrace(t *testing.T) {
	store := newMemoryStore()
	require.NoError(t, store.Save(context.Background(), []model.Span{{TraceID: "t1", ID: "s1", Name: "root"}}))

	r := newTestReceiver(store)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/v2/traces?traceID=t1", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)

	var spans []model.Span
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spans))
	require.Len(t, spans, 1)
	assert.Equal(t, "root", spans[0].Name)

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/api/v2/traces?traceID=nope", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/api/v2/traces", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func verifyReport(t *testing.T, r *Receiver, query string) Report {
	t.Helper()

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/v2/verify?"+query, http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	return report
}

func TestVerifyTrace(t *testing.T) {
	store := newMemoryStore()
	require.NoError(t, store.Save(context.Background(), []model.Span{
		{TraceID: "t1", ID: "s1", Name: "root", Attributes: model.Attributes{"scope.user_id": "u1"}},
		inferenceSpan("t1"),
	}))

	r := newTestReceiver(store)

	tests := []struct {
		desc       string
		query      string
		wantPassed bool
		wantErrs   int
	}{
		{desc: "trace id", query: "traceID=t1", wantPassed: true},
		{desc: "count", query: "traceID=t1&count=2", wantPassed: true},
		{desc: "wrong count", query: "traceID=t1&count=3", wantErrs: 1},
		{desc: "scopes", query: "traceID=t1&scope.user_id=u1", wantPassed: true},
		{desc: "wrong scope", query: "traceID=t1&scope.user_id=u2", wantErrs: 1},
		{desc: "inference", query: "traceID=t1&provider=inference.openai&model=gpt-4", wantPassed: true},
		{
			desc:       "inference with endpoint",
			query:      "traceID=t1&provider=inference.openai&model=gpt-4&endpoint=https://api.openai.com",
			wantPassed: true,
		},
		{desc: "wrong model", query: "traceID=t1&provider=inference.openai&model=gpt-3.5", wantErrs: 1},
		{desc: "every failure reported", query: "traceID=t1&count=9&model=gpt-3.5", wantErrs: 2},
	}

	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			report := verifyReport(t, r, tc.query)

			assert.Equal(t, "t1", report.TraceID)
			assert.Equal(t, tc.wantPassed, report.Passed)
			assert.Len(t, report.Errors, tc.wantErrs)
		})
	}
}

func TestVerifyTrace_NoInferenceSpan(t *testing.T) {
	store := newMemoryStore()
	require.NoError(t, store.Save(context.Background(), []model.Span{{TraceID: "t1", ID: "s1", Name: "root"}}))

	report := verifyReport(t, newTestReceiver(store), "traceID=t1&model=gpt-4")

	assert.False(t, report.Passed)
	assert.Equal(t, []string{"no inference span in trace"}, report.Errors)
}

func TestVerifyTrace_BadRequests(t *testing.T) {
	r := newTestReceiver(newMemoryStore())

	tests := []struct {
		query string
		code  int
	}{
		{"", http.StatusBadRequest},
		{"traceID=t1&count=x", http.StatusBadRequest},
		{"traceID=missing", http.StatusNotFound},
	}

	for _, tc := range tests {
		rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/v2/verify?"+tc.query, http.NoBody))
		assert.Equal(t, tc.code, rec.Code, tc.query)
	}
}

func TestStartShutdown(t *testing.T) {
	cfg := defaultConfig()
	cfg.Port = "0"

	r := New(&cfg, newMemoryStore(), zap.NewNop())

	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Shutdown(context.Background()))
}
