package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/image-analysis-gateway/internal/adapters/llmvision"
	"github.com/mikey/image-analysis-gateway/internal/core"
	"github.com/mikey/image-analysis-gateway/internal/utils"
)

// OpenAIClient is an implementation of the Classifier interface using an
// OpenAI vision-capable chat model
type OpenAIClient struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *OpenAIClient {
	return &OpenAIClient{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Model returns the OpenAI model name
func (c *OpenAIClient) Model() string {
	return c.modelName
}

// Configured is always true; the factory refuses to build a client without a key
func (c *OpenAIClient) Configured() bool {
	return true
}

// Classify sends the image inline as a data URL and parses the JSON reply
func (c *OpenAIClient) Classify(ctx context.Context, file *core.UploadedFile) (core.ClassificationResult, error) {
	dataURL := "data:" + llmvision.MediaType(file.ContentType) + ";base64," +
		base64.StdEncoding.EncodeToString(file.Data)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: llmvision.SystemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: llmvision.Prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, c.classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, core.NewError(core.KindInvalidResponseFormat, "Invalid API response format", errors.New("no choices in OpenAI response"))
	}

	c.logger.Debug("OpenAI classification received",
		zap.String("model", c.modelName),
		zap.String("response_id", resp.ID),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return llmvision.ParsePredictions(c.textProcessor, resp.Choices[0].Message.Content)
}

// classifyError maps go-openai errors onto gateway error kinds
func (c *OpenAIClient) classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		c.logger.Warn("OpenAI API error",
			zap.Int("status", apiErr.HTTPStatusCode),
			zap.String("message", apiErr.Message))
		if apiErr.HTTPStatusCode == http.StatusServiceUnavailable {
			return core.NewModelLoadingError(c.textProcessor.ProcessText(apiErr.Message, 300), err)
		}
		return core.NewUpstreamError(c.textProcessor.ProcessText(apiErr.Message, 300), err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		c.logger.Warn("OpenAI request error", zap.Int("status", reqErr.HTTPStatusCode), zap.Error(err))
		if reqErr.HTTPStatusCode == http.StatusServiceUnavailable {
			return core.NewModelLoadingError("", err)
		}
		return core.NewUpstreamError(http.StatusText(reqErr.HTTPStatusCode), err)
	}

	return core.NewNetworkError(err)
}
