package lambda

import (
	"bytes"
	"context"
	"encoding/base64"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mikey/image-analysis-gateway/internal/allowlist"
	"github.com/mikey/image-analysis-gateway/internal/core"
	"github.com/mikey/image-analysis-gateway/internal/core/mocks"
	"github.com/mikey/image-analysis-gateway/internal/gateway"
)

func newTestHandler(t *testing.T, classifier core.Classifier) *Handler {
	logger := zaptest.NewLogger(t)
	validator := core.NewValidator(allowlist.NewChecker(allowlist.DefaultImageTypes, logger), core.DefaultMaxFileSize)
	service := core.NewAnalysisService(classifier, validator, logger, time.Second)
	return NewHandler(gateway.NewDispatcher(service, logger), logger)
}

func upload(t *testing.T) ([]byte, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="slide.tiff"`)
	h.Set("Content-Type", "image/tiff")
	pw, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = pw.Write([]byte{'I', 'I', '*', 0x00, 0xff, 0x00})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes(), w.FormDataContentType()
}

func TestHandle_Base64ProxyEvent(t *testing.T) {
	classifier := mocks.NewMockClassifier(gomock.NewController(t))
	classifier.EXPECT().Configured().Return(true)
	classifier.EXPECT().Model().Return("test-model").AnyTimes()
	classifier.EXPECT().
		Classify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, file *core.UploadedFile) (core.ClassificationResult, error) {
			assert.Equal(t, []byte{'I', 'I', '*', 0x00, 0xff, 0x00}, file.Data)
			return core.ClassificationResult{{Label: "tumor", Score: 0.6}}, nil
		})

	body, contentType := upload(t)
	resp, err := newTestHandler(t, classifier).Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Headers:         map[string]string{"content-type": contentType},
		Body:            base64.StdEncoding.EncodeToString(body),
		IsBase64Encoded: true,
		RequestContext:  events.APIGatewayProxyRequestContext{RequestID: "api-req"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Contains(t, resp.Body, `"malignancyScore":0.6`)
}

func TestHandle_Preflight(t *testing.T) {
	classifier := mocks.NewMockClassifier(gomock.NewController(t))

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "lambda-req"})
	resp, err := newTestHandler(t, classifier).Handle(ctx, events.APIGatewayProxyRequest{HTTPMethod: http.MethodOptions})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Body)
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
}

func TestHandle_MultiValueContentType(t *testing.T) {
	classifier := mocks.NewMockClassifier(gomock.NewController(t))
	classifier.EXPECT().Configured().Return(true)

	resp, err := newTestHandler(t, classifier).Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:        http.MethodPost,
		MultiValueHeaders: map[string][]string{"Content-Type": {"multipart/form-data"}},
		Body:              "",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Missing boundary in multipart data"}`, resp.Body)
}
