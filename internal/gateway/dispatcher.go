// Package gateway turns a transport-neutral request into an analysis and maps
// every outcome to a status code and JSON body. It is the only place where
// error kinds become HTTP semantics; the HTTP server, the Lambda handler and
// tests all go through Handle.
package gateway

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/image-analysis-gateway/internal/adapters/formdata"
	"github.com/mikey/image-analysis-gateway/internal/core"
)

// defaultRetryAfter is advertised on 503 when the classifier gave no estimate
const defaultRetryAfter = 20 * time.Second

const (
	msgMethodNotAllowed = "Method not allowed"
	msgNotConfigured    = "Classifier API token not configured"
	msgInternal         = "Internal server error. Please try again later."
)

// Request is an inbound call as seen by the dispatcher
type Request struct {
	Method      string
	ContentType string
	Body        []byte
	// Base64 is set when the transport delivered Body base64 encoded
	Base64    bool
	RequestID string
}

// Response is what the transport writes back
type Response struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// Analyzer runs validation, classification and interpretation
type Analyzer interface {
	Configured() bool
	Analyze(ctx context.Context, file *core.UploadedFile) (*core.AnalysisResponse, error)
}

// Dispatcher gates requests and maps results onto responses
type Dispatcher struct {
	analyzer Analyzer
	logger   *zap.Logger
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(analyzer Analyzer, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		analyzer: analyzer,
		logger:   logger,
	}
}

// Handle processes one request. It never fails; every error is rendered.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	logger := d.logger
	if req.RequestID != "" {
		logger = logger.With(zap.String("request_id", req.RequestID))
	}

	if resp, done := d.gate(logger, req.Method); done {
		return resp
	}

	boundary, err := formdata.BoundaryFromContentType(req.ContentType)
	if err != nil {
		return d.renderError(logger, err)
	}

	body, err := formdata.DecodeBody(req.Body, req.Base64)
	if err != nil {
		return d.renderError(logger, err)
	}

	file, err := formdata.Parse(body, boundary)
	if err != nil {
		return d.renderError(logger, err)
	}

	logger.Info("Analysing upload",
		zap.String("filename", file.Filename),
		zap.String("content_type", file.ContentType),
		zap.Int64("size", file.Size))

	result, err := d.analyzer.Analyze(ctx, file)
	if err != nil {
		return d.renderError(logger, err)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		logger.Error("Failed to encode analysis", zap.Error(err))
		return errorResponse(http.StatusInternalServerError, msgInternal)
	}

	logger.Info("Analysis complete",
		zap.String("model", result.ModelUsed),
		zap.Float64("confidence", result.Confidence),
		zap.String("processing_time", result.ProcessingTime))

	return Response{Status: http.StatusOK, Headers: Headers(), Body: payload}
}

// Gate answers the requests that are decided before the body is read:
// preflight, wrong method and missing credentials. done is false when the
// request should go on to Handle with its body.
func (d *Dispatcher) Gate(method, requestID string) (resp Response, done bool) {
	logger := d.logger
	if requestID != "" {
		logger = logger.With(zap.String("request_id", requestID))
	}
	return d.gate(logger, method)
}

func (d *Dispatcher) gate(logger *zap.Logger, method string) (Response, bool) {
	switch strings.ToUpper(method) {
	case http.MethodOptions:
		return Response{Status: http.StatusOK, Headers: Headers()}, true
	case http.MethodPost:
	default:
		logger.Debug("Method rejected", zap.String("method", method))
		return errorResponse(http.StatusMethodNotAllowed, msgMethodNotAllowed), true
	}

	if !d.analyzer.Configured() {
		logger.Error("Classifier credentials are not configured")
		return errorResponse(http.StatusInternalServerError, msgNotConfigured), true
	}
	return Response{}, false
}

// StatusFor maps an error kind to its HTTP status
func StatusFor(kind core.ErrorKind) int {
	switch kind {
	case core.KindBadRequest:
		return http.StatusBadRequest
	case core.KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case core.KindUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case core.KindUpstream, core.KindBadUpstreamResponse, core.KindInvalidResponseFormat:
		return http.StatusBadGateway
	case core.KindModelLoading:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// renderError logs err and builds the caller-facing response. Only client
// input and upstream messages are echoed; everything else gets the generic
// message.
func (d *Dispatcher) renderError(logger *zap.Logger, err error) Response {
	kind := core.KindOf(err)
	status := StatusFor(kind)

	message := core.MessageOf(err)
	switch kind {
	case core.KindNotConfigured:
		if message == "" {
			message = msgNotConfigured
		}
	case core.KindNetwork, core.KindInternal:
		message = msgInternal
	}
	if message == "" {
		message = msgInternal
	}

	fields := []zap.Field{
		zap.String("kind", kind.String()),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", fields...)
	} else {
		logger.Info("Request rejected", fields...)
	}

	resp := errorResponse(status, message)
	if kind == core.KindModelLoading {
		// advisory only; the gateway never retries on its own
		retryAfter := core.RetryAfterOf(err)
		if retryAfter <= 0 {
			retryAfter = defaultRetryAfter
		}
		resp.Headers["Retry-After"] = strconv.Itoa(int(math.Ceil(retryAfter.Seconds())))
	}
	return resp
}
