package bedrock

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/mikey/image-analysis-gateway/internal/adapters/llmvision"
	"github.com/mikey/image-analysis-gateway/internal/core"
	"github.com/mikey/image-analysis-gateway/internal/utils"
)

const anthropicVersion = "bedrock-2023-05-31"

// ModelInvoker is the part of the Bedrock runtime client used here
type ModelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockClient is an implementation of the Classifier interface using an
// Anthropic Claude model hosted on Amazon Bedrock
type BedrockClient struct {
	client        ModelInvoker
	modelID       string
	maxTokens     int
	temperature   float32
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

type messagesRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float32   `json:"temperature"`
	System           string    `json:"system,omitempty"`
	Messages         []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// NewBedrockClient creates a new Bedrock client
func NewBedrockClient(
	client ModelInvoker,
	modelID string,
	maxTokens int,
	temperature float32,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *BedrockClient {
	return &BedrockClient{
		client:        client,
		modelID:       modelID,
		maxTokens:     maxTokens,
		temperature:   temperature,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Model returns the Bedrock model ID
func (c *BedrockClient) Model() string {
	return c.modelID
}

// Configured is always true; credentials come from the AWS default chain
func (c *BedrockClient) Configured() bool {
	return true
}

// Classify sends the image as a base64 content block and parses the JSON reply
func (c *BedrockClient) Classify(ctx context.Context, file *core.UploadedFile) (core.ClassificationResult, error) {
	if !strings.HasPrefix(c.modelID, "anthropic.claude") {
		return nil, core.NewError(core.KindNotConfigured, "Classifier model does not accept images",
			fmt.Errorf("unsupported bedrock model %q", c.modelID))
	}

	payload, err := json.Marshal(messagesRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        c.maxTokens,
		Temperature:      c.temperature,
		System:           llmvision.SystemPrompt,
		Messages: []message{
			{
				Role: "user",
				Content: []contentBlock{
					{
						Type: "image",
						Source: &imageSource{
							Type:      "base64",
							MediaType: llmvision.MediaType(file.ContentType),
							Data:      base64.StdEncoding.EncodeToString(file.Data),
						},
					},
					{Type: "text", Text: llmvision.Prompt},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, c.classifyError(err)
	}

	var claudeResp messagesResponse
	if err := json.Unmarshal(resp.Body, &claudeResp); err != nil {
		return nil, core.NewError(core.KindBadUpstreamResponse, "Failed to parse classifier response", err)
	}

	var reply strings.Builder
	for _, block := range claudeResp.Content {
		if block.Type == "text" {
			reply.WriteString(block.Text)
		}
	}
	if reply.Len() == 0 {
		return nil, core.NewError(core.KindInvalidResponseFormat, "Invalid API response format",
			errors.New("no text content in Bedrock response"))
	}

	c.logger.Debug("Bedrock classification received",
		zap.String("model", c.modelID),
		zap.String("stop_reason", claudeResp.StopReason))

	return llmvision.ParsePredictions(c.textProcessor, reply.String())
}

// classifyError maps AWS SDK errors onto gateway error kinds
func (c *BedrockClient) classifyError(err error) error {
	var respErr *awshttp.ResponseError
	if !errors.As(err, &respErr) {
		return core.NewNetworkError(err)
	}

	message := ""
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		message = apiErr.ErrorMessage()
	}

	status := respErr.HTTPStatusCode()
	c.logger.Warn("Bedrock API error", zap.Int("status", status), zap.String("message", message))

	message = c.textProcessor.ProcessText(message, 300)
	if status == http.StatusServiceUnavailable {
		return core.NewModelLoadingError(message, err)
	}
	return core.NewUpstreamError(message, err)
}
