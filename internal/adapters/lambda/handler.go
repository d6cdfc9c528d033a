// Package lambda serves the gateway from AWS Lambda behind an API Gateway
// proxy integration.
package lambda

import (
	"context"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"go.uber.org/zap"

	"github.com/mikey/image-analysis-gateway/internal/gateway"
)

// Handler converts proxy events to gateway requests
type Handler struct {
	dispatcher *gateway.Dispatcher
	logger     *zap.Logger
}

// NewHandler creates a new Lambda handler
func NewHandler(dispatcher *gateway.Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Handle is the function passed to lambda.Start
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	requestID := event.RequestContext.RequestID
	if requestID == "" {
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			requestID = lc.AwsRequestID
		}
	}

	resp := h.dispatcher.Handle(ctx, gateway.Request{
		Method:      event.HTTPMethod,
		ContentType: header(event, "Content-Type"),
		Body:        []byte(event.Body),
		Base64:      event.IsBase64Encoded,
		RequestID:   requestID,
	})

	return events.APIGatewayProxyResponse{
		StatusCode: resp.Status,
		Headers:    resp.Headers,
		Body:       string(resp.Body),
	}, nil
}

// header looks a header up case-insensitively; API Gateway passes names
// through as the client sent them.
func header(event events.APIGatewayProxyRequest, name string) string {
	for key, value := range event.Headers {
		if strings.EqualFold(key, name) {
			return value
		}
	}
	for key, values := range event.MultiValueHeaders {
		if strings.EqualFold(key, name) && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}
