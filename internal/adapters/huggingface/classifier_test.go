package huggingface

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mikey/image-analysis-gateway/internal/core"
	"github.com/mikey/image-analysis-gateway/internal/utils"
)

const testModel = "microsoft/swin-tiny-patch4-window7-224"

func newTestClient(t *testing.T, url string, token string) *HuggingFaceClient {
	logger := zaptest.NewLogger(t)
	return NewHuggingFaceClient(http.DefaultClient, url, testModel,
		func() string { return token }, logger, utils.NewTextProcessor(logger))
}

func testFile() *core.UploadedFile {
	data := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}
	return &core.UploadedFile{ContentType: "image/jpeg", Data: data, Size: int64(len(data))}
}

func TestClassify_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/"+testModel, r.URL.Path)
		assert.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, testFile().Data, body)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"label":"benign_tissue","score":0.2},{"label":"malignant_tissue","score":0.8}]`))
	}))
	defer ts.Close()

	result, err := newTestClient(t, ts.URL, "hf_test").Classify(context.Background(), testFile())
	require.NoError(t, err)
	assert.Equal(t, core.ClassificationResult{
		{Label: "benign_tissue", Score: 0.2},
		{Label: "malignant_tissue", Score: 0.8},
	}, result)
}

func TestClassify_ModelLoading(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"loading","estimated_time":20.0}`))
	}))
	defer ts.Close()

	_, err := newTestClient(t, ts.URL, "hf_test").Classify(context.Background(), testFile())
	require.Error(t, err)
	assert.Equal(t, core.KindModelLoading, core.KindOf(err))
	assert.Equal(t, "Model loading: loading", core.MessageOf(err))
	assert.Equal(t, 20*time.Second, core.RetryAfterOf(err))
}

func TestClassify_ModelLoadingWithoutJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`<html>busy</html>`))
	}))
	defer ts.Close()

	_, err := newTestClient(t, ts.URL, "hf_test").Classify(context.Background(), testFile())
	assert.Equal(t, core.KindModelLoading, core.KindOf(err))
	assert.Equal(t, "Model loading: Please try again in a few moments", core.MessageOf(err))
}

func TestClassify_UpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Could not process image"}`))
	}))
	defer ts.Close()

	_, err := newTestClient(t, ts.URL, "hf_test").Classify(context.Background(), testFile())
	assert.Equal(t, core.KindUpstream, core.KindOf(err))
	assert.Equal(t, "Classifier API error: Could not process image", core.MessageOf(err))
}

func TestClassify_MalformedJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"label":`))
	}))
	defer ts.Close()

	_, err := newTestClient(t, ts.URL, "hf_test").Classify(context.Background(), testFile())
	assert.Equal(t, core.KindBadUpstreamResponse, core.KindOf(err))
}

func TestClassify_NotAPredictionList(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"label":"x","score":1}`))
	}))
	defer ts.Close()

	_, err := newTestClient(t, ts.URL, "hf_test").Classify(context.Background(), testFile())
	assert.Equal(t, core.KindInvalidResponseFormat, core.KindOf(err))
}

func TestClassify_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := newTestClient(t, url, "hf_test").Classify(context.Background(), testFile())
	require.Error(t, err)
	assert.Equal(t, core.KindNetwork, core.KindOf(err))
}

func TestClassify_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(t, ts.URL, "hf_test").Classify(ctx, testFile())
	assert.Equal(t, core.KindNetwork, core.KindOf(err))
}

func TestClassify_MissingToken(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1", "")
	assert.False(t, client.Configured())

	_, err := client.Classify(context.Background(), testFile())
	assert.Equal(t, core.KindNotConfigured, core.KindOf(err))
}

func TestModelAndConfigured(t *testing.T) {
	client := newTestClient(t, "https://example.invalid/", "tok")
	assert.Equal(t, testModel, client.Model())
	assert.True(t, client.Configured())
	assert.Equal(t, "https://example.invalid/models/"+testModel, client.endpoint)
}
