package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrorKind classifies failures so that the transport layer can map them to
// externally visible status codes without inspecting messages.
type ErrorKind int

const (
	// KindInternal is any failure nobody classified.
	KindInternal ErrorKind = iota
	// KindBadRequest covers malformed or incomplete client input.
	KindBadRequest
	// KindUnsupportedMediaType means the uploaded file type is not allowed.
	KindUnsupportedMediaType
	// KindPayloadTooLarge means the uploaded file exceeds the size limit.
	KindPayloadTooLarge
	// KindNotConfigured means classifier credentials are missing.
	KindNotConfigured
	// KindModelLoading means the classifier asked the caller to retry later.
	KindModelLoading
	// KindUpstream is a hard error reported by the classifier.
	KindUpstream
	// KindBadUpstreamResponse means the classifier reply could not be decoded.
	KindBadUpstreamResponse
	// KindInvalidResponseFormat means the reply decoded but is not a usable prediction list.
	KindInvalidResponseFormat
	// KindNetwork means the classifier could not be reached in time.
	KindNetwork
)

var kindNames = map[ErrorKind]string{
	KindInternal:              "internal",
	KindBadRequest:            "bad_request",
	KindUnsupportedMediaType:  "unsupported_media_type",
	KindPayloadTooLarge:       "payload_too_large",
	KindNotConfigured:         "not_configured",
	KindModelLoading:          "model_loading",
	KindUpstream:              "upstream",
	KindBadUpstreamResponse:   "bad_upstream_response",
	KindInvalidResponseFormat: "invalid_response_format",
	KindNetwork:               "network",
}

// String returns the snake_case name used in log fields
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified gateway error. Message is safe to show to callers
// for client-input and upstream kinds.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
	// RetryAfter is the upstream's estimate of when a retry may succeed
	RetryAfter time.Duration
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf returns the kind of the first classified error in the chain, or
// KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-safe message of a classified error
func MessageOf(err error) string {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Message
	}
	return ""
}

// RetryAfterOf returns the retry hint of the first classified error in the
// chain, or zero.
func RetryAfterOf(err error) time.Duration {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.RetryAfter
	}
	return 0
}

// NewNetworkError classifies a transport failure. Deadline expiry, cancellation
// and net.Error values all count as network errors.
func NewNetworkError(err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewError(KindNetwork, "Network error: classifier request timed out", err)
	case errors.Is(err, context.Canceled):
		return NewError(KindNetwork, "Network error: classifier request cancelled", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewError(KindNetwork, "Network error: classifier request timed out", err)
	}
	return NewError(KindNetwork, "Network error", err)
}

// NewModelLoadingError builds the advisory error returned while the remote
// model is warming up.
func NewModelLoadingError(upstreamMessage string, cause error) *Error {
	if upstreamMessage == "" {
		upstreamMessage = "Please try again in a few moments"
	}
	return NewError(KindModelLoading, "Model loading: "+upstreamMessage, cause)
}

// NewUpstreamError builds the error for any other classifier failure
func NewUpstreamError(upstreamMessage string, cause error) *Error {
	if upstreamMessage == "" {
		upstreamMessage = "Unknown error"
	}
	return NewError(KindUpstream, "Classifier API error: "+upstreamMessage, cause)
}
