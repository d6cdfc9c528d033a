package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mikey/image-analysis-gateway/internal/allowlist"
	"github.com/mikey/image-analysis-gateway/internal/core"
	"github.com/mikey/image-analysis-gateway/internal/core/mocks"
)

func newTestAnalyzer(t *testing.T, classifier core.Classifier, out *bytes.Buffer) *Analyzer {
	logger := zaptest.NewLogger(t)
	validator := core.NewValidator(allowlist.NewChecker(allowlist.DefaultImageTypes, logger), core.DefaultMaxFileSize)
	return NewAnalyzer(core.NewAnalysisService(classifier, validator, logger, time.Second), logger, out, true)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "scan.PNG")
	require.NoError(t, os.WriteFile(pngPath, []byte("not really a png"), 0o600))
	file, err := LoadFile(pngPath)
	require.NoError(t, err)
	assert.Equal(t, "image/png", file.ContentType)
	assert.Equal(t, "scan.PNG", file.Filename)
	assert.Equal(t, int64(16), file.Size)

	sniffPath := filepath.Join(dir, "slide")
	require.NoError(t, os.WriteFile(sniffPath, []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}, 0o600))
	file, err = LoadFile(sniffPath)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", file.ContentType)

	_, err = LoadFile(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestAnalyzeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))

	classifier := mocks.NewMockClassifier(gomock.NewController(t))
	classifier.EXPECT().Model().Return("test-model").AnyTimes()
	classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).
		Return(core.ClassificationResult{{Label: "cancer_cells", Score: 0.66}, {Label: "normal", Score: 0.34}}, nil)

	var out bytes.Buffer
	result, err := newTestAnalyzer(t, classifier, &out).AnalyzeFile(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, result.Malignant)
	assert.Contains(t, out.String(), "Top label: cancer_cells")
	assert.Contains(t, out.String(), "Model used: test-model")
	assert.Contains(t, out.String(), "normal")

	out.Reset()
	analyzer := newTestAnalyzer(t, classifier, &out)
	require.NoError(t, analyzer.PrintJSON(result))
	assert.Contains(t, out.String(), `"malignancyScore": 0.66`)
	assert.NotContains(t, out.String(), "test-model")
}

func TestAnalyze_PrintsCallerMessage(t *testing.T) {
	classifier := mocks.NewMockClassifier(gomock.NewController(t))
	classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).Times(0)

	var out bytes.Buffer
	_, err := newTestAnalyzer(t, classifier, &out).Analyze(context.Background(),
		&core.UploadedFile{Filename: "a.gif", ContentType: "image/gif", Size: 3, Data: []byte("GIF")})

	assert.Equal(t, core.KindUnsupportedMediaType, core.KindOf(err))
	assert.Contains(t, out.String(), "Error: Unsupported file type. Please use JPG, PNG, or TIFF images.")
}

func TestAnalyzeFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.tiff")
	require.NoError(t, os.WriteFile(path, []byte("II*"), 0o600))

	classifier := mocks.NewMockClassifier(gomock.NewController(t))
	classifier.EXPECT().Model().Return("test-model").AnyTimes()
	classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, file *core.UploadedFile) (core.ClassificationResult, error) {
			assert.Equal(t, "image/tiff", file.ContentType)
			return core.ClassificationResult{{Label: "benign", Score: 0.9}}, nil
		})

	var out bytes.Buffer
	_, err := newTestAnalyzer(t, classifier, &out).AnalyzeFileJSON(context.Background(), path)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.InDelta(t, 0.1, got["malignancyScore"], 1e-9)
}
