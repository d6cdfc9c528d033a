package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"github.com/mikey/image-analysis-gateway/internal/adapters/llmvision"
	"github.com/mikey/image-analysis-gateway/internal/core"
	"github.com/mikey/image-analysis-gateway/internal/utils"
)

// GeminiClient is an implementation of the Classifier interface using Google Gemini
type GeminiClient struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*GeminiClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(llmvision.SystemPrompt)}}

	return &GeminiClient{
		client:        client,
		model:         model,
		modelName:     modelName,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Model returns the Gemini model name
func (c *GeminiClient) Model() string {
	return c.modelName
}

// Configured is always true; the factory refuses to build a client without a key
func (c *GeminiClient) Configured() bool {
	return true
}

// Classify sends the image as an inline blob next to the classification prompt
func (c *GeminiClient) Classify(ctx context.Context, file *core.UploadedFile) (core.ClassificationResult, error) {
	image := genai.Blob{
		MIMEType: llmvision.MediaType(file.ContentType),
		Data:     file.Data,
	}

	resp, err := c.model.GenerateContent(ctx, image, genai.Text(llmvision.Prompt))
	if err != nil {
		return nil, c.classifyError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, core.NewError(core.KindInvalidResponseFormat, "Invalid API response format", errors.New("empty response from Gemini"))
	}

	var reply strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			reply.WriteString(string(text))
		}
	}

	return llmvision.ParsePredictions(c.textProcessor, reply.String())
}

// classifyError maps Google API errors onto gateway error kinds
func (c *GeminiClient) classifyError(err error) error {
	code, message := 0, ""

	var gErr *googleapi.Error
	var apiErr *apierror.APIError
	if errors.As(err, &gErr) {
		code, message = gErr.Code, gErr.Message
	}
	if errors.As(err, &apiErr) {
		if code == 0 {
			code = apiErr.HTTPCode()
		}
		if s := apiErr.GRPCStatus(); s != nil {
			if message == "" {
				message = s.Message()
			}
			if code <= 0 && s.Code() == codes.Unavailable {
				code = http.StatusServiceUnavailable
			}
		}
	}
	if gErr == nil && apiErr == nil {
		return core.NewNetworkError(err)
	}

	c.logger.Warn("Gemini API error", zap.Int("status", code), zap.String("message", message))

	message = c.textProcessor.ProcessText(message, 300)
	if code == http.StatusServiceUnavailable {
		return core.NewModelLoadingError(message, err)
	}
	return core.NewUpstreamError(message, err)
}
