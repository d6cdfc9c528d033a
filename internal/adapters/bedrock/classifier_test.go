package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mikey/image-analysis-gateway/internal/core"
	"github.com/mikey/image-analysis-gateway/internal/utils"
)

type fakeInvoker struct {
	input *bedrockruntime.InvokeModelInput
	body  []byte
	err   error
}

func (f *fakeInvoker) InvokeModel(_ context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: f.body}, nil
}

func newTestClient(t *testing.T, invoker ModelInvoker, modelID string) *BedrockClient {
	logger := zaptest.NewLogger(t)
	return NewBedrockClient(invoker, modelID, 256, 0, logger, utils.NewTextProcessor(logger))
}

func serviceError(status int, message string) error {
	return &smithy.OperationError{
		ServiceID:     "Bedrock Runtime",
		OperationName: "InvokeModel",
		Err: &awshttp.ResponseError{
			ResponseError: &smithyhttp.ResponseError{
				Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
				Err:      &smithy.GenericAPIError{Code: "ServiceException", Message: message},
			},
			RequestID: "req-1",
		},
	}
}

func TestClassify_Success(t *testing.T) {
	invoker := &fakeInvoker{
		body: []byte(`{"content":[{"type":"text","text":"[{\"label\":\"benign_tissue\",\"score\":0.7}]"}],"stop_reason":"end_turn"}`),
	}
	c := newTestClient(t, invoker, "anthropic.claude-3-haiku-20240307-v1:0")

	result, err := c.Classify(context.Background(), &core.UploadedFile{ContentType: "image/jpg", Data: []byte{0xff, 0xd8}})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "benign_tissue", result[0].Label)

	var sent messagesRequest
	require.NoError(t, json.Unmarshal(invoker.input.Body, &sent))
	assert.Equal(t, anthropicVersion, sent.AnthropicVersion)
	require.Len(t, sent.Messages, 1)
	require.Len(t, sent.Messages[0].Content, 2)
	image := sent.Messages[0].Content[0]
	assert.Equal(t, "image", image.Type)
	require.NotNil(t, image.Source)
	assert.Equal(t, "image/jpeg", image.Source.MediaType)
	assert.Equal(t, "/9g=", image.Source.Data)
}

func TestClassify_NoTextContent(t *testing.T) {
	c := newTestClient(t, &fakeInvoker{body: []byte(`{"content":[]}`)}, "anthropic.claude-3-haiku-20240307-v1:0")

	_, err := c.Classify(context.Background(), &core.UploadedFile{ContentType: "image/png", Data: []byte("x")})
	assert.Equal(t, core.KindInvalidResponseFormat, core.KindOf(err))
}

func TestClassify_NonJSONBody(t *testing.T) {
	c := newTestClient(t, &fakeInvoker{body: []byte(`<html>`)}, "anthropic.claude-3-haiku-20240307-v1:0")

	_, err := c.Classify(context.Background(), &core.UploadedFile{ContentType: "image/png", Data: []byte("x")})
	assert.Equal(t, core.KindBadUpstreamResponse, core.KindOf(err))
}

func TestClassify_NonVisionModel(t *testing.T) {
	invoker := &fakeInvoker{}
	c := newTestClient(t, invoker, "amazon.titan-text-express-v1")

	_, err := c.Classify(context.Background(), &core.UploadedFile{ContentType: "image/png", Data: []byte("x")})
	assert.Equal(t, core.KindNotConfigured, core.KindOf(err))
	assert.Nil(t, invoker.input)
}

func TestClassify_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    core.ErrorKind
		message string
	}{
		{"unavailable", serviceError(503, "Model is warming up"), core.KindModelLoading, "Model loading: Model is warming up"},
		{"throttled", serviceError(429, "Too many requests"), core.KindUpstream, "Classifier API error: Too many requests"},
		{"timeout", context.DeadlineExceeded, core.KindNetwork, "Network error: classifier request timed out"},
		{"dial", errors.New("dial tcp: connection refused"), core.KindNetwork, "Network error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &fakeInvoker{err: tt.err}, "anthropic.claude-3-haiku-20240307-v1:0")

			_, err := c.Classify(context.Background(), &core.UploadedFile{ContentType: "image/png", Data: []byte("x")})
			assert.Equal(t, tt.kind, core.KindOf(err))
			assert.Equal(t, tt.message, core.MessageOf(err))
		})
	}
}
