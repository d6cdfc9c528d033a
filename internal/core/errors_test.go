package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("classify: %w", NewModelLoadingError("loading", nil))
	assert.Equal(t, KindModelLoading, KindOf(err))
	assert.Equal(t, "Model loading: loading", MessageOf(err))
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, "", MessageOf(errors.New("boom")))
}

func TestNewNetworkError(t *testing.T) {
	err := NewNetworkError(fmt.Errorf("post: %w", context.DeadlineExceeded))
	assert.Equal(t, KindNetwork, err.Kind)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Message, "timed out")
}

func TestUpstreamDefaults(t *testing.T) {
	assert.Equal(t, "Classifier API error: Unknown error", NewUpstreamError("", nil).Message)
	assert.Equal(t, "Model loading: Please try again in a few moments", NewModelLoadingError("", nil).Message)
	assert.Equal(t, "model_loading", KindModelLoading.String())
}

func TestRetryAfterOf(t *testing.T) {
	loading := NewModelLoadingError("loading", nil)
	loading.RetryAfter = 3 * time.Second

	assert.Equal(t, 3*time.Second, RetryAfterOf(fmt.Errorf("classify: %w", loading)))
	assert.Zero(t, RetryAfterOf(errors.New("plain")))
}
