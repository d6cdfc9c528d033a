package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/mikey/image-analysis-gateway/internal/core"
	"github.com/mikey/image-analysis-gateway/internal/gateway"
)

// Handlers adapts net/http requests to the gateway dispatcher
type Handlers struct {
	dispatcher      *gateway.Dispatcher
	logger          *zap.Logger
	maxFileBytes    int64
	maxRequestBytes int64
}

// NewHandlers creates the HTTP handlers. maxRequestBytes caps the raw body;
// maxFileBytes is only used to word the rejection.
func NewHandlers(dispatcher *gateway.Dispatcher, logger *zap.Logger, maxFileBytes, maxRequestBytes int64) *Handlers {
	if maxFileBytes <= 0 {
		maxFileBytes = core.DefaultMaxFileSize
	}
	if maxRequestBytes < maxFileBytes {
		maxRequestBytes = maxFileBytes + 1024*1024
	}
	return &Handlers{
		dispatcher:      dispatcher,
		logger:          logger,
		maxFileBytes:    maxFileBytes,
		maxRequestBytes: maxRequestBytes,
	}
}

// Analyze handles every method on the analysis routes
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFromContext(r.Context())

	// credentials are checked before the body is touched
	if resp, done := h.dispatcher.Gate(r.Method, requestID); done {
		writeResponse(w, resp)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxRequestBytes))
	if err != nil {
		writeResponse(w, h.bodyError(requestID, err))
		return
	}

	writeResponse(w, h.dispatcher.Handle(r.Context(), gateway.Request{
		Method:      r.Method,
		ContentType: r.Header.Get("Content-Type"),
		Body:        body,
		RequestID:   requestID,
	}))
}

// Health reports liveness
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func (h *Handlers) bodyError(requestID string, err error) gateway.Response {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		h.logger.Info("Request body over limit",
			zap.String("request_id", requestID),
			zap.Int64("limit", maxErr.Limit))
		tooLarge := core.NewFileTooLargeError(h.maxFileBytes, err)
		return gateway.ErrorResponse(gateway.StatusFor(tooLarge.Kind), tooLarge.Message)
	}

	h.logger.Warn("Failed to read request body",
		zap.String("request_id", requestID),
		zap.Error(err))
	return gateway.ErrorResponse(http.StatusBadRequest, "Failed to read request body")
}

func writeResponse(w http.ResponseWriter, resp gateway.Response) {
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}
