// Package receiver serves an HTTP endpoint that archives spans sent by
// capture exporters or OTLP/HTTP clients and verifies archived traces on
// request.
package receiver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"go.uber.org/zap"
	collectortrace "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"gofr.dev/spanverify/internal/archive"
	"gofr.dev/spanverify/model"
	"gofr.dev/spanverify/otlp"
)

// Store is where received spans are kept.
type Store interface {
	Save(ctx context.Context, spans []model.Span) error
	Trace(ctx context.Context, traceID string) ([]model.Span, error)
}

type Receiver struct {
	logger *zap.Logger
	config *Config
	store  Store
	mux    *http.ServeMux
	server *http.Server
}

func New(cfg *Config, store Store, logger *zap.Logger) *Receiver {
	r := &Receiver{
		logger: logger,
		config: cfg,
		store:  store,
		mux:    http.NewServeMux(),
	}

	r.mux.HandleFunc("POST /api/v2/spans", r.postSpans)
	r.mux.HandleFunc("POST /v1/traces", r.postOTLP)
	r.mux.HandleFunc("GET /api/v2/traces", r.getTrace)
	r.mux.HandleFunc("GET /api/v2/verify", r.verifyTrace)

	return r
}

func (r *Receiver) Handler() http.Handler {
	return r.mux
}

// Start listens on the configured port and serves in the background.
func (r *Receiver) Start(ctx context.Context) error {
	address := fmt.Sprintf(":%v", r.config.Port)

	ln, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	r.server = &http.Server{
		Handler:     r.mux,
		ReadTimeout: r.config.ReadTimeout,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		r.logger.Info("Starting span receiver on HTTP", zap.String("address", address))

		if err := r.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("Failed to serve HTTP", zap.Error(err))
		}
	}()

	return nil
}

func (r *Receiver) Shutdown(ctx context.Context) error {
	if r.server == nil {
		return nil
	}

	return r.server.Shutdown(ctx)
}

func (r *Receiver) postSpans(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()

	var spans []model.Span
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, r.config.MaxBodySize)).Decode(&spans); err != nil {
		http.Error(w, fmt.Sprintf("Error decoding spans: %v", err), http.StatusBadRequest)
		return
	}

	if err := r.store.Save(req.Context(), spans); err != nil {
		r.logger.Error("Failed to archive spans", zap.Error(err))
		http.Error(w, fmt.Sprintf("Error processing spans: %v", err), http.StatusInternalServerError)

		return
	}

	r.logger.Debug("Archived spans", zap.Int("count", len(spans)))

	w.WriteHeader(http.StatusCreated)
	fmt.Fprintf(w, "Spans received successfully")
}

func (r *Receiver) postOTLP(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()

	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, r.config.MaxBodySize))
	if err != nil {
		http.Error(w, fmt.Sprintf("Error reading request: %v", err), http.StatusBadRequest)
		return
	}

	jsonBody := req.Header.Get("Content-Type") == "application/json"

	var export collectortrace.ExportTraceServiceRequest
	if jsonBody {
		err = protojson.Unmarshal(body, &export)
	} else {
		err = proto.Unmarshal(body, &export)
	}

	if err != nil {
		http.Error(w, fmt.Sprintf("Error decoding traces: %v", err), http.StatusBadRequest)
		return
	}

	spans := otlp.Spans(export.GetResourceSpans())

	if err := r.store.Save(req.Context(), spans); err != nil {
		r.logger.Error("Failed to archive OTLP spans", zap.Error(err))
		http.Error(w, fmt.Sprintf("Error processing traces: %v", err), http.StatusInternalServerError)

		return
	}

	r.logger.Debug("Archived OTLP spans", zap.Int("count", len(spans)))

	var (
		resp        []byte
		contentType string
	)

	if jsonBody {
		resp, err = protojson.Marshal(&collectortrace.ExportTraceServiceResponse{})
		contentType = "application/json"
	} else {
		resp, err = proto.Marshal(&collectortrace.ExportTraceServiceResponse{})
		contentType = "application/x-protobuf"
	}

	if err != nil {
		http.Error(w, fmt.Sprintf("Error encoding response: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp)
}

func (r *Receiver) getTrace(w http.ResponseWriter, req *http.Request) {
	traceID := req.URL.Query().Get("traceID")
	if traceID == "" {
		http.Error(w, "traceID parameter is required", http.StatusBadRequest)
		return
	}

	spans, err := r.store.Trace(req.Context(), traceID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, spans)
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, archive.ErrTraceNotFound) {
		http.Error(w, "trace not found", http.StatusNotFound)
		return
	}

	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("failed to encode response: %v", err), http.StatusInternalServerError)
	}
}
