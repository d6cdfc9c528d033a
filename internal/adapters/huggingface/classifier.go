package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/image-analysis-gateway/internal/core"
	"github.com/mikey/image-analysis-gateway/internal/utils"
)

// maxResponseBytes caps how much of an upstream reply is read
const maxResponseBytes = 1 << 20

// TokenSource returns the bearer token to use for the next request
type TokenSource func() string

// HuggingFaceClient is an implementation of the Classifier interface using
// the Hugging Face inference API
type HuggingFaceClient struct {
	httpClient    *http.Client
	endpoint      string
	model         string
	token         TokenSource
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// errorResponse is the error envelope returned by the inference API
type errorResponse struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time,omitempty"`
}

// NewHuggingFaceClient creates a new Hugging Face client
func NewHuggingFaceClient(
	httpClient *http.Client,
	baseURL string,
	model string,
	token TokenSource,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *HuggingFaceClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HuggingFaceClient{
		httpClient:    httpClient,
		endpoint:      strings.TrimRight(baseURL, "/") + "/models/" + strings.TrimLeft(model, "/"),
		model:         model,
		token:         token,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Model returns the Hugging Face model id
func (c *HuggingFaceClient) Model() string {
	return c.model
}

// Configured reports whether an API token is currently available
func (c *HuggingFaceClient) Configured() bool {
	return c.token != nil && c.token() != ""
}

// Classify posts the raw image bytes to the inference API
func (c *HuggingFaceClient) Classify(ctx context.Context, file *core.UploadedFile) (core.ClassificationResult, error) {
	token := ""
	if c.token != nil {
		token = c.token()
	}
	if token == "" {
		return nil, core.NewError(core.KindNotConfigured, "Classifier API token not configured", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(file.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to build inference request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Accept", "application/json")
	req.ContentLength = int64(len(file.Data))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Inference request failed",
			zap.String("model", c.model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, core.NewNetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, core.NewNetworkError(err)
	}

	c.logger.Debug("Inference response received",
		zap.String("model", c.model),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)))

	switch resp.StatusCode {
	case http.StatusOK:
		return c.decodePredictions(body)
	case http.StatusServiceUnavailable:
		errResp := c.decodeError(body)
		loading := core.NewModelLoadingError(c.textProcessor.ProcessText(errResp.Error, 300), fmt.Errorf("status %d", resp.StatusCode))
		if errResp.EstimatedTime > 0 {
			loading.RetryAfter = time.Duration(errResp.EstimatedTime * float64(time.Second))
		}
		return nil, loading
	default:
		upstream := c.upstreamMessage(body)
		c.logger.Warn("Inference API returned an error",
			zap.String("model", c.model),
			zap.Int("status", resp.StatusCode),
			zap.String("upstream_error", upstream))
		return nil, core.NewUpstreamError(upstream, fmt.Errorf("status %d", resp.StatusCode))
	}
}

func (c *HuggingFaceClient) decodePredictions(body []byte) (core.ClassificationResult, error) {
	if !json.Valid(body) {
		return nil, core.NewError(core.KindBadUpstreamResponse, "Failed to parse classifier response",
			fmt.Errorf("invalid JSON: %s", c.textProcessor.TruncateText(string(body), 200)))
	}

	var predictions core.ClassificationResult
	if err := json.Unmarshal(body, &predictions); err != nil {
		return nil, core.NewError(core.KindInvalidResponseFormat, "Invalid API response format", err)
	}
	return predictions, nil
}

// decodeError parses an error body; anything that is not the JSON error
// envelope yields the zero value.
func (c *HuggingFaceClient) decodeError(body []byte) errorResponse {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return errorResponse{}
	}
	return errResp
}

// upstreamMessage extracts the "error" field of an error body, if any
func (c *HuggingFaceClient) upstreamMessage(body []byte) string {
	return c.textProcessor.ProcessText(c.decodeError(body).Error, 300)
}
