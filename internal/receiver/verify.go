package receiver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gofr.dev/spanverify/model"
	"gofr.dev/spanverify/verify"
)

const scopeParamPrefix = "scope."

// Report is the result of verifying one archived trace.
type Report struct {
	TraceID string   `json:"traceId"`
	Spans   int      `json:"spans"`
	Passed  bool     `json:"passed"`
	Errors  []string `json:"errors,omitempty"`
}

// traceExporter reads an archived trace when flushed.
type traceExporter struct {
	store   Store
	traceID string
	spans   []model.Span
}

func (e *traceExporter) ForceFlush(ctx context.Context) error {
	spans, err := e.store.Trace(ctx, e.traceID)
	if err != nil {
		return err
	}

	e.spans = spans

	return nil
}

func (e *traceExporter) CapturedSpans() []model.Span {
	return e.spans
}

// verifyTrace checks an archived trace. Query parameters:
//
//	traceID            required
//	count              expected number of spans
//	scope.<name>=<v>   scope attributes every span must carry
//	provider, model    check every inference span of the trace
//	endpoint           also compare the inference endpoint
func (r *Receiver) verifyTrace(w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()

	traceID := query.Get("traceID")
	if traceID == "" {
		http.Error(w, "traceID parameter is required", http.StatusBadRequest)
		return
	}

	var opts []verify.Option

	if c := query.Get("count"); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid count: %v", err), http.StatusBadRequest)
			return
		}

		opts = append(opts, verify.ExpectCount(n))
	}

	scopes := make(verify.ScopeMap)

	for key, values := range query {
		if name, ok := strings.CutPrefix(key, scopeParamPrefix); ok && len(values) > 0 {
			scopes[name] = values[0]
		}
	}

	v := verify.New(verify.WithReporter(verify.Zap(r.logger)))
	exp := &traceExporter{store: r.store, traceID: traceID}

	var err error
	if len(scopes) == 0 {
		err = v.TraceID(req.Context(), exp, opts...)
	} else {
		err = v.MultipleScopes(req.Context(), exp, scopes, opts...)
	}

	if errors.Is(err, verify.ErrFlush) {
		writeStoreError(w, err)
		return
	}

	report := Report{TraceID: traceID, Spans: len(exp.spans)}

	if err != nil {
		report.Errors = append(report.Errors, err.Error())
	}

	if m := query.Get("model"); m != "" {
		want := verify.Inference{
			ProviderType:  query.Get("provider"),
			ModelName:     m,
			Endpoint:      query.Get("endpoint"),
			CheckEndpoint: query.Has("endpoint"),
		}

		report.Errors = append(report.Errors, inferenceErrors(v, exp.spans, want)...)
	}

	report.Passed = len(report.Errors) == 0

	writeJSON(w, report)
}

func inferenceErrors(v *verify.Verifier, spans []model.Span, want verify.Inference) []string {
	var (
		errs  []string
		found bool
	)

	for i := range spans {
		switch spans[i].Attributes.Value(verify.AttrSpanType) {
		case verify.SpanTypeInference, verify.SpanTypeInferenceFramework:
		default:
			continue
		}

		found = true

		if _, err := v.InferenceSpan(spans[i].Attributes, spans[i].Events, want); err != nil {
			errs = append(errs, fmt.Sprintf("span %q: %v", spans[i].Name, err))
		}
	}

	if !found {
		errs = append(errs, "no inference span in trace")
	}

	return errs
}
